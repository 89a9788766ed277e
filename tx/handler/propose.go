package handler

import (
	"context"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ProposeTxHandler struct {
	logger cmtlog.Logger
}

func NewProposeTxHandler(logger cmtlog.Logger) (h *ProposeTxHandler) {
	logger = logger.With("module", "proposeTx")
	h = &ProposeTxHandler{
		logger: logger,
	}
	return
}

func (h *ProposeTxHandler) handle(ctx context.Context, st *state.State, btx *tx.DAOTx) (*abcitypes.Event, error) {
	ptx, ok := btx.Tx.(*tx.ProposeTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.CreateProposal(btx.Sender, ptx.Actions, ptx.Description)
	if err != nil {
		return nil, err
	}
	h.logger.Info("proposal created", "id", event.ID, "proposer", event.Proposer, "startDate", event.StartDate)
	e := types.EncodeEventProposal(event)
	return &e, nil
}

func (h *ProposeTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	_, err1 := h.handle(ctx, st, btx)
	return checkResult(h.logger, btx, err1), nil
}

func (h *ProposeTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	event, err1 := h.handle(ctx, st, btx)
	return execResult(h.logger, btx, event, err1), nil
}
