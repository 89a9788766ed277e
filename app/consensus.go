package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
	ErrUnsupportedTx       = errors.New("unsupported tx")
)

// getState opens the state the next block is applied to.
func (app *DAOApp) getState() (st *state.State) {
	st = app.db.NewState()
	app.st = st
	return
}

func (app *DAOApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.DAOTx, err error) {
	btx, err = tx.UnmarshalDAOTx(txDat)
	if err != nil {
		return
	}
	_, err = st.Verify(btx, allowNonceGap)
	return
}

// apply authenticates one transaction, consumes its nonce and runs its handler.
// A rule violation is reported in the result code; err is only set when the
// transaction could not be admitted at all.
func (app *DAOApp) apply(ctx context.Context, st *state.State, txDat []byte) (res *abcitypes.ExecTxResult, err error) {
	btx, err := app.parseTx(st, txDat, false)
	if err != nil {
		return nil, err
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedTx, btx.Type)
	}
	if err = st.IncNonce(btx.Sender); err != nil {
		return nil, err
	}
	res, err = h.Process(ctx, st, btx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrUnexpectedTxProcess
	}
	return
}

func (app *DAOApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: state.CodeOK}
	err = app.db.View(func(st *state.State) error {
		btx, err := app.parseTx(st, check.Tx, true)
		if err != nil {
			app.logger.Info("parse tx fail", "err", err)
			res.Code = state.ErrorCode(err)
			res.Log = err.Error()
			return nil
		}
		h, ok := app.txHdlrs[btx.Type]
		if !ok {
			app.logger.Info("unsupported tx", "type", btx.Type)
			res.Code = state.CodeInvalidTx
			res.Log = ErrUnsupportedTx.Error()
			return nil
		}
		if err = st.IncNonce(btx.Sender); err != nil {
			return err
		}
		res, err = h.Check(ctx, st, btx)
		return err
	})
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: state.CodeInternal, Log: err.Error()}
		err = nil
	}
	return
}

// PrepareProposal keeps, in mempool order, every transaction that can be admitted
// on top of the ones before it. Transactions whose operation fails are kept: they
// still consume their nonce.
func (app *DAOApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.db.NewState()
	st.SetBlockTime(uint64(proposal.Time.Unix()))
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		_, err := app.apply(ctx, st, stx)
		if err != nil {
			app.logger.Info("drop tx", "err", err)
			continue
		}
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *DAOApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	st := app.db.NewState()
	st.SetBlockTime(uint64(proposal.Time.Unix()))
	for _, stx := range proposal.Txs {
		if _, err := app.apply(ctx, st, stx); err != nil {
			app.logger.Error("reject proposal", "height", proposal.Height, "err", err)
			return res, nil
		}
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *DAOApp) finalize(ctx context.Context, st *state.State, txs [][]byte) (res []*abcitypes.ExecTxResult, err error) {
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		result, err := app.apply(ctx, st, stx)
		if err != nil {
			app.logger.Error("unexpected tx in block", "index", i, "err", err)
			result = &abcitypes.ExecTxResult{Code: state.ErrorCode(err), Log: err.Error()}
		}
		res[i] = result
	}
	return
}

func (app *DAOApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.getState()
	st.SetBlockTime(uint64(req.Time.Unix()))
	res, err := app.finalize(ctx, st, req.Txs)
	if err != nil {
		return nil, err
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *DAOApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit", "height", app.lastBlk.Height)
	return &abcitypes.ResponseCommit{}, nil
}
