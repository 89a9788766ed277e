package state

import (
	"math/big"
	"testing"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

const genesisTime = 1_700_000_000

var ether = big.NewInt(params.Ether)

func ethers(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), ether)
}

type testEnv struct {
	db       *StateDB
	st       *State
	params   types.Params
	deployer *crypto.Key
	accounts []*crypto.Key
}

// newTestEnv starts a chain whose deployer and n other accounts each hold 10 ether.
func newTestEnv(t *testing.T, n int, callees map[string]Callee) *testEnv {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	for kind, c := range callees {
		db.RegisterCallee(kind, c)
	}
	deployer, err := crypto.GenerateKey()
	require.NoError(t, err)
	env := &testEnv{db: db, deployer: deployer}
	genesis := &types.AppGenesis{
		Params:   types.DefaultParams(deployer.Address()),
		Balances: []types.GenesisBalance{{Address: deployer.Address(), Amount: ethers(10)}},
	}
	for i := 0; i < n; i++ {
		k, err := crypto.GenerateKey()
		require.NoError(t, err)
		env.accounts = append(env.accounts, k)
		genesis.Balances = append(genesis.Balances, types.GenesisBalance{Address: k.Address(), Amount: ethers(10)})
	}
	env.params = genesis.Params
	st := db.NewState()
	st.SetChainId("test-chain")
	st.SetBlockTime(genesisTime)
	require.NoError(t, st.InitGenesis(genesis))
	env.st = st
	return env
}

func (e *testEnv) addr(i int) common.Address {
	return e.accounts[i].Address()
}

// advance moves the clock forward by secs.
func (e *testEnv) advance(secs uint64) {
	e.st.SetBlockTime(e.st.Now() + secs)
}

func (e *testEnv) joinAll(t *testing.T) {
	for i := range e.accounts {
		_, err := e.st.Join(e.addr(i), ether)
		require.NoError(t, err)
	}
}

func TestCacheStoreSnapshot(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	c := newCacheStore(db.db)

	require.NoError(t, c.Set([]byte("a"), []byte("1")))
	snap := c.Snapshot()
	require.NoError(t, c.Set([]byte("a"), []byte("2")))
	require.NoError(t, c.Set([]byte("b"), []byte("3")))
	inner := c.Snapshot()
	require.NoError(t, c.Set([]byte("b"), []byte("4")))

	c.RevertToSnapshot(inner)
	v, err := c.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("3"), v)

	c.RevertToSnapshot(snap)
	v, err = c.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
	v, err = c.Get([]byte("b"))
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, c.Flush(db.db))
	v, err = db.db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}

func TestPrefixStore(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	c := newCacheStore(db.db)
	p1 := NewPrefixStore(c, []byte("x1/"))
	p2 := NewPrefixStore(c, []byte("x2/"))

	require.NoError(t, p1.Set([]byte("k"), []byte("one")))
	require.NoError(t, p2.Set([]byte("k"), nil))
	v, err := p1.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), v)
	v, err = c.Get([]byte("x2/k"))
	require.NoError(t, err)
	require.Equal(t, []byte{}, v)
}

func TestCommitAndReload(t *testing.T) {
	dir := t.TempDir()
	db, err := NewStateDB(dir, cmtlog.NewNopLogger())
	require.NoError(t, err)
	deployer, err := crypto.GenerateKey()
	require.NoError(t, err)

	st := db.NewState()
	st.SetChainId("reload")
	st.SetBlockTime(genesisTime)
	require.NoError(t, st.InitGenesis(&types.AppGenesis{
		Params:   types.DefaultParams(deployer.Address()),
		Balances: []types.GenesisBalance{{Address: deployer.Address(), Amount: ethers(2)}},
	}))
	require.NoError(t, st.IncNonce(deployer.Address()))
	workingHash, err := st.Update()
	require.NoError(t, err)
	committed, err := db.SetState(st)
	require.NoError(t, err)
	require.NotEqual(t, common.Hash{}, committed)
	require.NotEqual(t, common.Hash{}, workingHash)
	require.NoError(t, db.Close())

	db, err = NewStateDB(dir, cmtlog.NewNopLogger())
	require.NoError(t, err)
	defer db.Close()
	header := db.Header()
	require.Equal(t, "reload", header.ChainId)
	require.Equal(t, uint64(1), header.TotalWeight)
	require.Equal(t, committed.Bytes(), header.Hash)

	err = db.View(func(st *State) error {
		m, err := st.GetMember(deployer.Address())
		require.NoError(t, err)
		require.NotNil(t, m)
		require.Equal(t, uint64(1), m.VoteWeight)
		a, err := st.GetAccount(deployer.Address())
		require.NoError(t, err)
		require.Equal(t, uint64(1), a.Nonce)
		require.Zero(t, ethers(2).Cmp(a.Balance))
		p, err := st.Params()
		require.NoError(t, err)
		require.Equal(t, types.DefaultTimelock, int(p.Timelock))
		return nil
	})
	require.NoError(t, err)

	next := db.NewState()
	require.Equal(t, header.Height+1, next.Header().Height)
}

func TestViewIgnoresUnsavedBlock(t *testing.T) {
	env := newTestEnv(t, 1, nil)
	_, err := env.st.Update()
	require.NoError(t, err)
	_, err = env.db.SetState(env.st)
	require.NoError(t, err)

	st := env.db.NewState()
	st.SetBlockTime(genesisTime + 10)
	_, err = st.Join(env.addr(0), ether)
	require.NoError(t, err)
	_, err = st.Update()
	require.NoError(t, err)

	// the block is flushed into the working tree but not saved yet
	require.NoError(t, env.db.View(func(v *State) error {
		m, err := v.GetMember(env.addr(0))
		require.NoError(t, err)
		require.Nil(t, m)
		require.Equal(t, uint64(1), v.TotalWeight())
		a, err := v.GetAccount(env.addr(0))
		require.NoError(t, err)
		require.Zero(t, ethers(10).Cmp(a.Balance))
		return nil
	}))

	_, err = env.db.SetState(st)
	require.NoError(t, err)
	require.NoError(t, env.db.View(func(v *State) error {
		m, err := v.GetMember(env.addr(0))
		require.NoError(t, err)
		require.NotNil(t, m)
		require.Equal(t, uint64(2), v.TotalWeight())
		return nil
	}))
}

func TestErrorCode(t *testing.T) {
	require.Equal(t, CodeOK, ErrorCode(nil))
	require.Equal(t, CodeAlreadyMember, ErrorCode(ErrAlreadyMember))
	require.Equal(t, CodeTimelockNotElapsed, ErrorCode(ErrTimelockNotElapsed))
	require.Equal(t, CodeActionCallFailed, ErrorCode(&ActionCallError{Index: 0, Cause: ErrInsufficientBalance}))
	require.Equal(t, CodeInvalidAction, ErrorCode(types.ErrEmptyActions))
	require.Equal(t, CodeInternal, ErrorCode(ErrNotFound))
}
