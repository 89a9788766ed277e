package handler

import (
	"context"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// TxHandler applies one transaction type. Check runs against a throwaway state;
// Process runs against the block state. Both report rule violations through the
// result code and keep err for failures that must halt the block.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error)
}

func NewTxHandlers(logger cmtlog.Logger) map[tx.DAOTxType]TxHandler {
	return map[tx.DAOTxType]TxHandler{
		tx.DAOTxTypeJoin:      NewJoinTxHandler(logger),
		tx.DAOTxTypePropose:   NewProposeTxHandler(logger),
		tx.DAOTxTypeVote:      NewVoteTxHandler(logger),
		tx.DAOTxTypeVoteBySig: NewVoteBySigTxHandler(logger),
		tx.DAOTxTypeExecute:   NewExecuteTxHandler(logger),
	}
}

func checkResult(logger cmtlog.Logger, btx *tx.DAOTx, err error) *abcitypes.ResponseCheckTx {
	res := &abcitypes.ResponseCheckTx{Code: state.CodeOK}
	if err != nil {
		logger.Info("CheckTx fail", "type", btx.Type, "sender", btx.Sender, "err", err)
		res.Code = state.ErrorCode(err)
		res.Log = err.Error()
	}
	return res
}

func execResult(logger cmtlog.Logger, btx *tx.DAOTx, event *abcitypes.Event, err error) *abcitypes.ExecTxResult {
	res := &abcitypes.ExecTxResult{Code: state.CodeOK}
	if err != nil {
		logger.Info("tx rejected", "type", btx.Type, "sender", btx.Sender, "err", err)
		res.Code = state.ErrorCode(err)
		res.Log = err.Error()
		return res
	}
	if event != nil {
		res.Events = []abcitypes.Event{*event}
	}
	return res
}
