package handler

import (
	"context"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type JoinTxHandler struct {
	logger cmtlog.Logger
}

func NewJoinTxHandler(logger cmtlog.Logger) (h *JoinTxHandler) {
	logger = logger.With("module", "joinTx")
	h = &JoinTxHandler{
		logger: logger,
	}
	return
}

func (h *JoinTxHandler) handle(ctx context.Context, st *state.State, btx *tx.DAOTx) (*abcitypes.Event, error) {
	jtx, ok := btx.Tx.(*tx.JoinTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.Join(btx.Sender, jtx.Payment)
	if err != nil {
		return nil, err
	}
	e := types.EncodeEventJoin(event)
	return &e, nil
}

func (h *JoinTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	_, err1 := h.handle(ctx, st, btx)
	return checkResult(h.logger, btx, err1), nil
}

func (h *JoinTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	event, err1 := h.handle(ctx, st, btx)
	return execResult(h.logger, btx, event, err1), nil
}
