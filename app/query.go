package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

const (
	codeQueryNotFound   = 404
	codeQueryBadRequest = 400
)

func (app *DAOApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = codeQueryNotFound
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

// view runs fn on the committed state and fills res with its JSON result.
func view(db *state.StateDB, res *abcitypes.ResponseQuery, fn func(st *state.State) (any, error)) {
	err := db.View(func(st *state.State) error {
		v, err := fn(st)
		if err != nil {
			return err
		}
		res.Height = int64(st.Header().Height)
		if v == nil {
			res.Code = codeQueryNotFound
			return nil
		}
		res.Value, err = json.Marshal(v)
		return err
	})
	if err != nil {
		res.Code = state.ErrorCode(err)
		res.Log = err.Error()
	}
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) != common.AddressLength {
		res.Code = codeQueryBadRequest
		return
	}
	addr := common.BytesToAddress(req.Data)
	view(q.db, res, func(st *state.State) (any, error) {
		return st.GetAccount(addr)
	})
	return
}

type MemberQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewMemberQuerier(db *state.StateDB, logger cmtlog.Logger) (q *MemberQuerier) {
	q = &MemberQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// MembersResult answers a member listing.
type MembersResult struct {
	TotalWeight uint64          `json:"totalWeight"`
	Members     []*types.Member `json:"members"`
}

// Query returns one member for a 20 byte address and the whole registry for empty data.
func (q *MemberQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	switch len(req.Data) {
	case 0:
		view(q.db, res, func(st *state.State) (any, error) {
			members, err := st.Members()
			if err != nil {
				return nil, err
			}
			return &MembersResult{TotalWeight: st.TotalWeight(), Members: members}, nil
		})
	case common.AddressLength:
		addr := common.BytesToAddress(req.Data)
		view(q.db, res, func(st *state.State) (any, error) {
			m, err := st.GetMember(addr)
			if m == nil {
				return nil, err
			}
			return m, err
		})
	default:
		res.Code = codeQueryBadRequest
	}
	return
}

type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// ProposalResult is a stored proposal with its evaluation at the committed height.
type ProposalResult struct {
	*types.Proposal
	Outcome      string `json:"outcome"`
	ExecutableAt uint64 `json:"executableAt"`
	TotalWeight  uint64 `json:"totalWeight"`
}

func proposalResult(st *state.State, p *types.Proposal) (*ProposalResult, error) {
	params, err := st.Params()
	if err != nil {
		return nil, err
	}
	return &ProposalResult{
		Proposal:     p,
		Outcome:      types.Evaluate(p, st.TotalWeight()).String(),
		ExecutableAt: p.StartDate + params.Timelock,
		TotalWeight:  st.TotalWeight(),
	}, nil
}

// Query returns one proposal for a 32 byte id and every proposal for empty data.
func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	switch len(req.Data) {
	case 0:
		view(q.db, res, func(st *state.State) (any, error) {
			proposals, err := st.Proposals()
			if err != nil {
				return nil, err
			}
			results := make([]*ProposalResult, 0, len(proposals))
			for _, p := range proposals {
				r, err := proposalResult(st, p)
				if err != nil {
					return nil, err
				}
				results = append(results, r)
			}
			return results, nil
		})
	case common.HashLength:
		id := common.BytesToHash(req.Data)
		view(q.db, res, func(st *state.State) (any, error) {
			p, err := st.GetProposal(id)
			if p == nil {
				return nil, err
			}
			return proposalResult(st, p)
		})
	default:
		res.Code = codeQueryBadRequest
	}
	return
}

type VoteQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewVoteQuerier(db *state.StateDB, logger cmtlog.Logger) (q *VoteQuerier) {
	q = &VoteQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// Query takes the proposal id followed by the voter address.
func (q *VoteQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) != common.HashLength+common.AddressLength {
		res.Code = codeQueryBadRequest
		return
	}
	id := common.BytesToHash(req.Data[:common.HashLength])
	voter := common.BytesToAddress(req.Data[common.HashLength:])
	view(q.db, res, func(st *state.State) (any, error) {
		v, err := st.GetVote(id, voter)
		if v == nil {
			return nil, err
		}
		return v, err
	})
	return
}

type IdentifyQuerier struct {
	logger cmtlog.Logger
}

func NewIdentifyQuerier(logger cmtlog.Logger) (q *IdentifyQuerier) {
	q = &IdentifyQuerier{
		logger: logger,
	}
	return
}

type IdentifyRequest struct {
	Actions     []types.Action `json:"actions"`
	Description string         `json:"description"`
}

type IdentifyResult struct {
	ID common.Hash `json:"id"`
}

// Query derives a proposal id without touching state.
func (q *IdentifyQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var ireq IdentifyRequest
	if err1 := json.Unmarshal(req.Data, &ireq); err1 != nil {
		res.Code = codeQueryBadRequest
		res.Log = err1.Error()
		return
	}
	id, err1 := types.HashProposal(ireq.Actions, ireq.Description)
	if err1 != nil {
		res.Code = codeQueryBadRequest
		res.Log = err1.Error()
		return
	}
	res.Value, _ = json.Marshal(&IdentifyResult{ID: id})
	return
}

type ParamsQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewParamsQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ParamsQuerier) {
	q = &ParamsQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ParamsQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	view(q.db, res, func(st *state.State) (any, error) {
		return st.Params()
	})
	return
}
