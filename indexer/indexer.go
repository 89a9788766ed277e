package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/hac-dao/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// BlockSource is the part of the CometBFT RPC client the indexer reads from.
type BlockSource interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
}

type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	src           BlockSource
	eventHandlers map[string]eventHandler
}

// NewChainIndexer indexes the node at chainUrl into the sqlite database at dbPath.
func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string) (*ChainIndexer, error) {
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	c, err := NewChainIndexerWithSource(logger, dbPath, cli)
	if err != nil {
		return nil, err
	}
	c.Url = chainUrl
	return c, nil
}

func NewChainIndexerWithSource(logger cmtlog.Logger, dbPath string, src BlockSource) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath)
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite ":memory:" databases exist per connection
	db.DB().SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Height{}, &Member{}, &Proposal{}, &Vote{}, &Execution{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		db.Close()
		return nil, err
	}

	c := &ChainIndexer{
		logger: logger.With("module", "indexer"),
		Height: int64(h.Height + 1),
		db:     db,
		src:    src,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventJoinType:     c.handleEventJoin,
		types.EventProposalType: c.handleEventProposal,
		types.EventVoteType:     c.handleEventVote,
		types.EventExecuteType:  c.handleEventExecute,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(db *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(db *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(db, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventJoin(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventJoin(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	member := Member{
		Address:      ev.Address.Hex(),
		Weight:       ev.Weight,
		Payment:      ev.Payment.String(),
		JoinedHeight: uint64(height),
	}
	return db.Save(&member).Error
}

func (c *ChainIndexer) handleEventProposal(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposal(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	proposal := Proposal{
		Id:          ev.ID.Hex(),
		Proposer:    ev.Proposer.Hex(),
		Description: ev.Description,
		Actions:     ev.Actions,
		StartDate:   ev.StartDate,
		NewHeight:   uint64(height),
	}
	return db.Save(&proposal).Error
}

func (c *ChainIndexer) handleEventVote(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVote(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	vote := Vote{
		Proposal: ev.Proposal.Hex(),
		Voter:    ev.Voter.Hex(),
		Choice:   uint8(ev.Choice),
		Weight:   ev.Weight,
		Relayer:  ev.Relayer.Hex(),
		Height:   uint64(height),
	}
	if err := db.Create(&vote).Error; err != nil {
		return err
	}
	var column string
	switch ev.Choice {
	case types.VoteFor:
		column = "for_weight"
	case types.VoteAgainst:
		column = "against_weight"
	default:
		column = "abstain_weight"
	}
	return db.Model(&Proposal{}).Where("id = ?", vote.Proposal).
		UpdateColumn(column, gorm.Expr(column+" + ?", ev.Weight)).Error
}

func (c *ChainIndexer) handleEventExecute(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventExecute(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	execution := Execution{
		Proposal: ev.Proposal.Hex(),
		Executor: ev.Executor.Hex(),
		Actions:  ev.Actions,
		Reward:   ev.Reward.String(),
		Height:   uint64(height),
	}
	if err := db.Create(&execution).Error; err != nil {
		return err
	}
	return db.Model(&Proposal{}).Where("id = ?", execution.Proposal).
		UpdateColumns(map[string]any{"executed": true, "executed_height": uint64(height)}).Error
}

// indexBlock stores the events of one block together with the new height.
func (c *ChainIndexer) indexBlock(height int64, results *coretypes.ResultBlockResults) (err error) {
	dbtx := c.db.Begin()
	defer func() {
		if err != nil {
			dbtx.Rollback()
		}
	}()
	for _, res := range results.TxsResults {
		if res == nil || res.Code != 0 {
			continue
		}
		for _, event := range res.Events {
			if err = c.handleEvent(dbtx, event, height); err != nil {
				return
			}
		}
	}
	if err = dbtx.Save(&Height{Id: 1, Height: uint64(height)}).Error; err != nil {
		return
	}
	return dbtx.Commit().Error
}

// sync indexes every block up to the latest committed one.
func (c *ChainIndexer) sync(ctx context.Context) error {
	status, err := c.src.Status(ctx)
	if err != nil {
		return err
	}
	for c.Height <= status.SyncInfo.LatestBlockHeight {
		if err = ctx.Err(); err != nil {
			return err
		}
		height := c.Height
		results, err := c.src.BlockResults(ctx, &height)
		if err != nil {
			return err
		}
		if err = c.indexBlock(height, results); err != nil {
			return err
		}
		c.logger.Debug("block indexed", "height", height)
		c.Height++
	}
	return nil
}

func (c *ChainIndexer) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sync(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
			}
		}
	}
}

func (c *ChainIndexer) getIndexedHeight() (uint64, error) {
	h := Height{Id: 1}
	err := c.db.First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return h.Height, err
}

func (c *ChainIndexer) getMembers(page int, pageSize int) ([]Member, uint64, error) {
	var members []Member
	err := c.db.Order("joined_height asc").Offset(page * pageSize).Limit(pageSize).Find(&members).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Member{}).Count(&total).Error
	return members, total, err
}

func (c *ChainIndexer) getProposals(page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Order("new_height desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Count(&total).Error
	return proposals, total, err
}

func (c *ChainIndexer) getProposalsByProposer(proposer string, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Where("proposer = ?", proposer).Order("new_height desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("proposer = ?", proposer).Count(&total).Error
	return proposals, total, err
}

func (c *ChainIndexer) getProposalById(id string) (*Proposal, error) {
	var proposal Proposal
	err := c.db.Where("id = ?", id).First(&proposal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (c *ChainIndexer) getVotesByProposal(proposal string, page int, pageSize int) ([]Vote, error) {
	var votes []Vote
	err := c.db.Where("proposal = ?", proposal).Order("id asc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	return votes, err
}

func (c *ChainIndexer) getVotesByVoter(voter string, page int, pageSize int) ([]Vote, error) {
	var votes []Vote
	err := c.db.Where("voter = ?", voter).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	return votes, err
}

func (c *ChainIndexer) getExecutions(page int, pageSize int) ([]Execution, error) {
	var executions []Execution
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&executions).Error
	return executions, err
}
