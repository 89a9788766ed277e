package handler

import (
	"context"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ExecuteTxHandler struct {
	logger cmtlog.Logger
}

func NewExecuteTxHandler(logger cmtlog.Logger) (h *ExecuteTxHandler) {
	logger = logger.With("module", "executeTx")
	h = &ExecuteTxHandler{
		logger: logger,
	}
	return
}

func (h *ExecuteTxHandler) handle(ctx context.Context, st *state.State, btx *tx.DAOTx) (*abcitypes.Event, error) {
	etx, ok := btx.Tx.(*tx.ExecuteTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.Execute(ctx, btx.Sender, etx.Actions, etx.Description)
	if err != nil {
		return nil, err
	}
	h.logger.Info("proposal executed", "id", event.Proposal, "executor", event.Executor, "reward", event.Reward)
	e := types.EncodeEventExecute(event)
	return &e, nil
}

func (h *ExecuteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	_, err1 := h.handle(ctx, st, btx)
	return checkResult(h.logger, btx, err1), nil
}

func (h *ExecuteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	event, err1 := h.handle(ctx, st, btx)
	return execResult(h.logger, btx, event, err1), nil
}
