package state

import (
	"sync"

	"github.com/calehh/hac-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
)

// StateDB is the single serialization point of the governance state. Blocks are
// applied to a State obtained from NewState and installed with SetState under the
// write lock; readers go through View under the read lock.
type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	ldb    dbm.DB
	db     *iavl.MutableTree

	callees map[string]Callee
	state   *State
	// committed reads the last saved version, never the working tree
	committed kvReader
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	ldb, err := dbm.NewDB("dao", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return newStateDB(ldb, dir, logger)
}

// NewMemStateDB keeps the tree in memory.
func NewMemStateDB(logger cmtlog.Logger) (db *StateDB, err error) {
	return newStateDB(dbm.NewMemDB(), "", logger)
}

func newStateDB(ldb dbm.DB, dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "daodb")
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	callees := make(map[string]Callee)
	st := newState(tdb, logger, callees)
	st.dbVer = version
	err = st.load()
	if err != nil && err != ErrNotFound {
		logger.Error("from daodb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		dir:     dir,
		logger:  logger,
		ldb:     ldb,
		db:      tdb,
		callees: callees,
		state:   st,
	}
	db.committed, err = db.versionReader(version)
	if err != nil {
		return nil, err
	}
	return db, nil
}

type emptyReader struct{}

func (emptyReader) Get(key []byte) ([]byte, error) {
	return nil, nil
}

func (db *StateDB) versionReader(version int64) (kvReader, error) {
	if version == 0 {
		return emptyReader{}, nil
	}
	return db.db.GetImmutable(version)
}

// RegisterCallee makes an implementation available to State.Deploy under kind.
func (db *StateDB) RegisterCallee(kind string, c Callee) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	db.callees[kind] = c
}

// Close closes the tree and its backing store. The tree does not own the store.
func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	if err != nil {
		return
	}
	err = db.ldb.Close()
	if err == leveldb.ErrClosed {
		err = nil
	}
	return
}

func (db *StateDB) Header() (header StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = *db.state.Header()
	return
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

// SetState commits a State produced by NewState and updated with State.Update.
func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	committed, err := db.versionReader(st.dbVer)
	if err != nil {
		return
	}
	db.state = st
	db.committed = committed
	return
}

// View runs fn against a throwaway copy of the last committed state. Writes made
// by fn are discarded, and a block flushed by Update but not yet saved is not visible.
func (db *StateDB) View(fn func(st *State) error) error {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st := db.state.nextState()
	st.store = newCacheStore(db.committed)
	*st.header = *db.state.header
	return fn(st)
}

func (db *StateDB) Params() (params *types.Params, err error) {
	err = db.View(func(st *State) error {
		params, err = st.Params()
		return err
	})
	return
}
