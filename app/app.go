package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/hac-dao/config"
	"github.com/calehh/hac-dao/market"
	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/tx/handler"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &DAOApp{}

type DAOApp struct {
	cfg    *config.DAOAppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.DAOTxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewDAOApp(cfg *config.DAOAppConfig, logger cmtlog.Logger) (app *DAOApp, err error) {
	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, logger)
	if err != nil {
		return nil, err
	}
	return NewDAOAppWithDB(cfg, db, logger), nil
}

// NewDAOAppWithDB runs the application on an already opened state database.
func NewDAOAppWithDB(cfg *config.DAOAppConfig, db *state.StateDB, logger cmtlog.Logger) (app *DAOApp) {
	logger = logger.With("module", "app")
	db.RegisterCallee(market.Kind, market.New(logger))
	app = &DAOApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

func (app *DAOApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *DAOApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("DAO app stopped")
}

func (app *DAOApp) registerTxHandler() {
	app.txHdlrs = handler.NewTxHandlers(app.logger)
}

func (app *DAOApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/members/"] = NewMemberQuerier(app.db, app.logger)
	app.queriers["/proposals/"] = NewProposalQuerier(app.db, app.logger)
	app.queriers["/votes/"] = NewVoteQuerier(app.db, app.logger)
	app.queriers["/identify/"] = NewIdentifyQuerier(app.logger)
	app.queriers["/params/"] = NewParamsQuerier(app.db, app.logger)
}

func (app *DAOApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	var genesis types.AppGenesis
	if err = json.Unmarshal(chain.AppStateBytes, &genesis); err != nil {
		app.logger.Error("InitChain parse app state fail", "err", err)
		return nil, fmt.Errorf("parse app state: %w", err)
	}
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	st.SetBlockTime(uint64(chain.Time.Unix()))
	if err = st.InitGenesis(&genesis); err != nil {
		app.logger.Error("InitChain genesis fail", "err", err)
		return nil, err
	}
	if err = seedListings(st, genesis.Listings); err != nil {
		app.logger.Error("InitChain seed listings fail", "err", err)
		return nil, err
	}
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err := app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	app.logger.Info("InitChain", "chainId", chain.ChainId, "dao", genesis.Params.Address, "deployer", genesis.Params.Deployer)
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func seedListings(st *state.State, listings []types.GenesisListing) error {
	deployed := make(map[common.Address]bool)
	for _, l := range listings {
		if !deployed[l.Marketplace] {
			if err := st.Deploy(l.Marketplace, market.Kind); err != nil {
				return err
			}
			deployed[l.Marketplace] = true
		}
		if err := market.Seed(st.CalleeStore(l.Marketplace), l); err != nil {
			return err
		}
	}
	return nil
}

func (app *DAOApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *DAOApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *DAOApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *DAOApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *DAOApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *DAOApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *DAOApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
