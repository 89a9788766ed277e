package market

import (
	"context"
	"math/big"
	"testing"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

var (
	marketAddr = common.HexToAddress("0x3a3a")
	nftAddr    = common.HexToAddress("0x4b4b")
	seller     = common.HexToAddress("0x5e11")
)

type fixture struct {
	st       *state.State
	params   types.Params
	deployer common.Address
	member   common.Address
}

func newFixture(t *testing.T) *fixture {
	db, err := state.NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	db.RegisterCallee(Kind, New(cmtlog.NewNopLogger()))

	deployer, err := crypto.GenerateKey()
	require.NoError(t, err)
	member, err := crypto.GenerateKey()
	require.NoError(t, err)
	genesis := &types.AppGenesis{
		Params: types.DefaultParams(deployer.Address()),
		Balances: []types.GenesisBalance{
			{Address: member.Address(), Amount: big.NewInt(2 * params.Ether)},
		},
	}
	st := db.NewState()
	st.SetBlockTime(1_700_000_000)
	require.NoError(t, st.InitGenesis(genesis))
	require.NoError(t, st.Deploy(marketAddr, Kind))
	require.NoError(t, Seed(st.CalleeStore(marketAddr), types.GenesisListing{
		Marketplace:  marketAddr,
		ItemContract: nftAddr,
		ItemID:       big.NewInt(1),
		Price:        big.NewInt(params.Ether / 10),
		Seller:       seller,
	}))
	_, err = st.Join(member.Address(), big.NewInt(params.Ether))
	require.NoError(t, err)
	return &fixture{st: st, params: genesis.Params, deployer: deployer.Address(), member: member.Address()}
}

func (f *fixture) buyAction(t *testing.T, itemID, price *big.Int) types.Action {
	payload, err := types.EncodeBuyNft(types.BuyNftArgs{
		Marketplace: marketAddr,
		NftContract: nftAddr,
		NftID:       itemID,
		Price:       price,
	})
	require.NoError(t, err)
	return types.Action{Kind: types.ActionSelfCall, Target: f.params.Address, Payload: payload}
}

func (f *fixture) pass(t *testing.T, actions []types.Action, description string) {
	event, err := f.st.CreateProposal(f.member, actions, description)
	require.NoError(t, err)
	_, err = f.st.CastVote(f.member, event.ID, types.VoteFor)
	require.NoError(t, err)
	f.st.SetBlockTime(f.st.Now() + types.DefaultTimelock)
}

func TestBuyNftThroughProposal(t *testing.T) {
	f := newFixture(t)
	price := big.NewInt(params.Ether / 10)
	actions := []types.Action{f.buyAction(t, big.NewInt(1), price)}
	f.pass(t, actions, "buy nft #1")

	_, err := f.st.Execute(context.Background(), f.member, actions, "buy nft #1")
	require.NoError(t, err)

	l, err := GetListing(f.st.CalleeStore(marketAddr), nftAddr, big.NewInt(1))
	require.NoError(t, err)
	require.True(t, l.Sold)
	require.Equal(t, f.params.Address, l.Owner)

	bal, err := f.st.Balance(seller)
	require.NoError(t, err)
	require.Zero(t, price.Cmp(bal))
	bal, err = f.st.Balance(marketAddr)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())
}

func TestBuyNftFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	treasury, err := f.st.Balance(f.params.Address)
	require.NoError(t, err)

	wrongPrice := []types.Action{f.buyAction(t, big.NewInt(1), big.NewInt(5))}
	f.pass(t, wrongPrice, "lowball")
	_, err = f.st.Execute(context.Background(), f.member, wrongPrice, "lowball")
	require.ErrorIs(t, err, state.ErrActionCallFailed)
	require.ErrorIs(t, err, ErrPriceMismatch)

	unlisted := []types.Action{f.buyAction(t, big.NewInt(2), big.NewInt(5))}
	f.pass(t, unlisted, "unlisted")
	_, err = f.st.Execute(context.Background(), f.member, unlisted, "unlisted")
	require.ErrorIs(t, err, ErrNotListed)

	after, err := f.st.Balance(f.params.Address)
	require.NoError(t, err)
	require.Zero(t, treasury.Cmp(after))
	l, err := GetListing(f.st.CalleeStore(marketAddr), nftAddr, big.NewInt(1))
	require.NoError(t, err)
	require.False(t, l.Sold)
}

func TestDirectCallCannotPurchase(t *testing.T) {
	f := newFixture(t)
	buy := f.buyAction(t, big.NewInt(1), big.NewInt(params.Ether/10))
	direct := []types.Action{{Kind: types.ActionCall, Target: marketAddr, Value: big.NewInt(params.Ether / 10), Payload: buy.Payload}}
	f.pass(t, direct, "sneaky")
	_, err := f.st.Execute(context.Background(), f.member, direct, "sneaky")
	require.ErrorIs(t, err, ErrUnsupportedCall)

	l, err := GetListing(f.st.CalleeStore(marketAddr), nftAddr, big.NewInt(1))
	require.NoError(t, err)
	require.False(t, l.Sold)
}
