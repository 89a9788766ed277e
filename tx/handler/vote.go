package handler

import (
	"context"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type VoteTxHandler struct {
	logger cmtlog.Logger
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	logger = logger.With("module", "voteTx")
	h = &VoteTxHandler{
		logger: logger,
	}
	return
}

func (h *VoteTxHandler) handle(ctx context.Context, st *state.State, btx *tx.DAOTx) (*abcitypes.Event, error) {
	vtx, ok := btx.Tx.(*tx.VoteTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.CastVote(btx.Sender, vtx.Proposal, vtx.Choice)
	if err != nil {
		return nil, err
	}
	e := types.EncodeEventVote(event)
	return &e, nil
}

func (h *VoteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	_, err1 := h.handle(ctx, st, btx)
	return checkResult(h.logger, btx, err1), nil
}

func (h *VoteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	event, err1 := h.handle(ctx, st, btx)
	return execResult(h.logger, btx, event, err1), nil
}

// VoteBySigTxHandler records a vote signed off-chain by a member and relayed by the tx sender.
type VoteBySigTxHandler struct {
	logger cmtlog.Logger
}

func NewVoteBySigTxHandler(logger cmtlog.Logger) (h *VoteBySigTxHandler) {
	logger = logger.With("module", "voteBySigTx")
	h = &VoteBySigTxHandler{
		logger: logger,
	}
	return
}

func (h *VoteBySigTxHandler) handle(ctx context.Context, st *state.State, btx *tx.DAOTx) (*abcitypes.Event, error) {
	vtx, ok := btx.Tx.(*tx.VoteBySigTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.CastVoteBySig(btx.Sender, vtx.Proposal, vtx.Choice, vtx.Signature, vtx.Voter)
	if err != nil {
		return nil, err
	}
	e := types.EncodeEventVote(event)
	return &e, nil
}

func (h *VoteBySigTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	_, err1 := h.handle(ctx, st, btx)
	return checkResult(h.logger, btx, err1), nil
}

func (h *VoteBySigTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	event, err1 := h.handle(ctx, st, btx)
	return execResult(h.logger, btx, event, err1), nil
}
