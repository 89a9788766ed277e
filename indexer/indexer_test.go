package indexer

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calehh/hac-dao/types"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/libs/log"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	blocks map[int64][]*abci.ExecTxResult
	latest int64
}

func (f *fakeSource) Status(ctx context.Context) (*coretypes.ResultStatus, error) {
	return &coretypes.ResultStatus{SyncInfo: coretypes.SyncInfo{LatestBlockHeight: f.latest}}, nil
}

func (f *fakeSource) BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error) {
	return &coretypes.ResultBlockResults{Height: *height, TxsResults: f.blocks[*height]}, nil
}

func txResult(events ...abci.Event) *abci.ExecTxResult {
	return &abci.ExecTxResult{Events: events}
}

var (
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob      = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	relayer  = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	proposal = common.HexToHash("0x1234")
)

func newTestIndexer(t *testing.T) (*ChainIndexer, *fakeSource) {
	src := &fakeSource{blocks: map[int64][]*abci.ExecTxResult{
		1: {
			txResult(types.EncodeEventJoin(&types.EventJoin{Address: alice, Weight: 1, Payment: big.NewInt(1e18), TotalWeight: 2})),
			txResult(types.EncodeEventJoin(&types.EventJoin{Address: bob, Weight: 1, Payment: big.NewInt(1e18), TotalWeight: 3})),
		},
		2: {
			txResult(types.EncodeEventProposal(&types.EventProposal{ID: proposal, Proposer: alice, StartDate: 100, Actions: 1, Description: "Proposal 1"})),
			{Code: 7, Log: "rejected", Events: []abci.Event{types.EncodeEventJoin(&types.EventJoin{Address: relayer, Weight: 1, Payment: big.NewInt(1)})}},
		},
		3: {
			txResult(types.EncodeEventVote(&types.EventVote{Proposal: proposal, Voter: alice, Choice: types.VoteFor, Weight: 1, Relayer: alice})),
			txResult(types.EncodeEventVote(&types.EventVote{Proposal: proposal, Voter: bob, Choice: types.VoteAgainst, Weight: 1, Relayer: relayer})),
		},
		5: {
			txResult(types.EncodeEventExecute(&types.EventExecute{Proposal: proposal, Executor: bob, Actions: 1, Reward: big.NewInt(1e16)})),
		},
	}, latest: 5}
	c, err := NewChainIndexerWithSource(log.NewNopLogger(), ":memory:", src)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, src
}

func TestIndexerSync(t *testing.T) {
	c, src := newTestIndexer(t)
	require.Equal(t, int64(1), c.Height)
	require.NoError(t, c.sync(context.Background()))
	require.Equal(t, int64(6), c.Height)

	members, total, err := c.getMembers(0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(2), total)
	require.Equal(t, alice.Hex(), members[0].Address)

	p, err := c.getProposalById(proposal.Hex())
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "Proposal 1", p.Description)
	require.Equal(t, uint64(1), p.ForWeight)
	require.Equal(t, uint64(1), p.AgainstWeight)
	require.True(t, p.Executed)
	require.Equal(t, uint64(5), p.ExecutedHeight)

	votes, err := c.getVotesByVoter(bob.Hex(), 0, 10)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	require.Equal(t, relayer.Hex(), votes[0].Relayer)

	height, err := c.getIndexedHeight()
	require.NoError(t, err)
	require.Equal(t, uint64(5), height)

	// nothing new
	require.NoError(t, c.sync(context.Background()))
	require.Equal(t, int64(6), c.Height)

	src.latest = 6
	require.NoError(t, c.sync(context.Background()))
	height, err = c.getIndexedHeight()
	require.NoError(t, err)
	require.Equal(t, uint64(6), height)
}

func TestIndexerMissingProposal(t *testing.T) {
	c, _ := newTestIndexer(t)
	p, err := c.getProposalById(common.HexToHash("0xdead").Hex())
	require.NoError(t, err)
	require.Nil(t, p)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := newTestIndexer(t)
	require.NoError(t, c.sync(context.Background()))
	h := NewService("", c).Handler()

	w := post(t, h, "/getMembers", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	var members GetMembersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	require.Equal(t, uint64(2), members.Total)

	w = post(t, h, "/getProposals", `{"proposalId":"`+proposal.Hex()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var proposals GetProposalsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proposals))
	require.Len(t, proposals.Proposals, 1)
	require.Len(t, proposals.Proposals[0].Votes, 2)

	w = post(t, h, "/getProposals", `{"proposer":"`+bob.Hex()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	proposals = GetProposalsResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proposals))
	require.Equal(t, uint64(0), proposals.Total)
	require.Empty(t, proposals.Proposals)

	w = post(t, h, "/getProposals", `{"proposalId":"0xdead"}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = post(t, h, "/getVotes", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, h, "/getVotes", `{"proposalId":"`+proposal.Hex()+`","pageSize":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	var votes GetVotesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &votes))
	require.Len(t, votes.Votes, 1)
	require.Equal(t, alice.Hex(), votes.Votes[0].Voter)

	w = post(t, h, "/getExecutions", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	var executions GetExecutionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &executions))
	require.Len(t, executions.Executions, 1)
	require.Equal(t, "10000000000000000", executions.Executions[0].Reward)

	req := httptest.NewRequest(http.MethodGet, "/height", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"height":5}`, rec.Body.String())
}
