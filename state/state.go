package state

import (
	"fmt"

	"github.com/calehh/hac-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	KeyState          = "s"
	KeyParams         = "g"
	KeyAccountBody    = "a%x"
	KeyMemberBody     = "m%x"
	KeyMemberIndex    = "l%d"
	KeyProposalBody   = "p%x"
	KeyProposalIndex  = "n%d"
	KeyVoteBody       = "v%x%x"
	KeyContractKind   = "c%x"
	KeyContractPrefix = "x%x/"
)

// StateHeader is committed under KeyState on every block.
type StateHeader struct {
	ChainId     string
	Height      uint64
	Time        uint64
	TotalWeight uint64
	Members     uint64
	Proposals   uint64
	RootHash    []byte
	Hash        []byte
}

func (h *StateHeader) GetHash() []byte {
	if h == nil {
		return nil
	}
	return h.Hash
}

type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header  *StateHeader
	store   *cacheStore
	params  *types.Params
	callees map[string]Callee
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger, callees map[string]Callee) *State {
	return &State{
		logger:  logger,
		db:      db,
		dbVer:   0,
		header:  new(StateHeader),
		store:   newCacheStore(db),
		callees: callees,
	}
}

func (s *State) nextState() *State {
	n := &State{
		logger:  s.logger,
		db:      s.db,
		dbVer:   s.dbVer,
		store:   newCacheStore(s.db),
		params:  s.params,
		callees: s.callees,
	}
	header := *s.header
	n.header = &header
	if s.header.GetHash() != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

func (s *State) load() (err error) {
	val, err := s.store.Get([]byte(KeyState))
	if err != nil {
		return err
	}
	if len(val) == 0 {
		return nil
	}
	err = rlp.DecodeBytes(val, s.header)
	if err != nil {
		return
	}
	h := s.db.Hash()
	if h != nil {
		s.calcHash(h, true)
	}
	_, err = s.Params()
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

// atomic runs fn as one all-or-nothing step: on error every write fn made,
// including header counters, is undone. Calls nest.
func (s *State) atomic(fn func() error) (err error) {
	snap := s.store.Snapshot()
	header := *s.header
	defer func() {
		if err != nil {
			s.store.RevertToSnapshot(snap)
			*s.header = header
		}
	}()
	err = fn()
	return
}

// Update writes the block's changes into the working tree and returns the resulting app hash.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	err = s.putRLP([]byte(KeyState), s.header)
	if err != nil {
		return
	}
	err = s.store.Flush(s.db)
	if err != nil {
		return
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// SetBlockTime advances the logical clock. The clock never moves backwards.
func (s *State) SetBlockTime(t uint64) {
	if t > s.header.Time {
		s.header.Time = t
	}
}

func (s *State) Now() uint64 {
	return s.header.Time
}

func (s *State) getRLP(key []byte, val any) (found bool, err error) {
	dat, err := s.store.Get(key)
	if err != nil {
		return false, err
	}
	if len(dat) == 0 {
		return false, nil
	}
	if err = rlp.DecodeBytes(dat, val); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (s *State) putRLP(key []byte, val any) error {
	dat, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return s.store.Set(key, dat)
}

func (s *State) Params() (*types.Params, error) {
	if s.params != nil {
		return s.params, nil
	}
	p := new(types.Params)
	found, err := s.getRLP([]byte(KeyParams), p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	s.params = p
	return p, nil
}

func (s *State) mustParams() *types.Params {
	p, err := s.Params()
	if err != nil {
		panic(fmt.Errorf("params not initialized: %w", err))
	}
	return p
}

// InitGenesis stores the governance parameters, credits the genesis balances
// and registers the deployer as the bootstrap member.
func (s *State) InitGenesis(genesis *types.AppGenesis) (err error) {
	if err = genesis.ValidateBasic(); err != nil {
		return err
	}
	params := genesis.Params
	err = s.atomic(func() error {
		if err := s.putRLP([]byte(KeyParams), &params); err != nil {
			return err
		}
		for _, b := range genesis.Balances {
			if err := s.credit(b.Address, b.Amount); err != nil {
				return err
			}
		}
		return s.addMember(params.Deployer)
	})
	if err == nil {
		s.params = &params
	}
	return
}
