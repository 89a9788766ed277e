package types

import (
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

var (
	dao   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func sampleActions(t *testing.T) []Action {
	payload, err := EncodeBuyNft(BuyNftArgs{
		Marketplace: common.HexToAddress("0xa0"),
		NftContract: common.HexToAddress("0xb0"),
		NftID:       big.NewInt(1),
		Price:       big.NewInt(params.Ether),
	})
	require.NoError(t, err)
	return []Action{
		{Kind: ActionTransfer, Target: alice, Value: big.NewInt(params.Ether)},
		{Kind: ActionSelfCall, Target: dao, Payload: payload},
	}
}

func TestHashProposal(t *testing.T) {
	actions := sampleActions(t)
	id1, err := HashProposal(actions, "Proposal 1")
	require.NoError(t, err)
	id2, err := HashProposal(actions, "Proposal 1")
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	other, err := HashProposal(actions, "hi")
	require.NoError(t, err)
	require.NotEqual(t, id1, other)

	// nil and zero values hash alike
	actions[1].Value = new(big.Int)
	same, err := HashProposal(actions, "Proposal 1")
	require.NoError(t, err)
	require.Equal(t, id1, same)

	actions[0].Value = big.NewInt(2)
	changed, err := HashProposal(actions, "Proposal 1")
	require.NoError(t, err)
	require.NotEqual(t, id1, changed)
}

func TestValidateActions(t *testing.T) {
	require.ErrorIs(t, ValidateActions(nil, dao), ErrEmptyActions)
	require.NoError(t, ValidateActions(sampleActions(t), dao))

	bad := []Action{
		{Kind: ActionTransfer, Target: alice, Value: big.NewInt(-1)},
		{Kind: ActionTransfer, Target: alice, Payload: []byte{1}},
		{Kind: ActionSelfCall, Target: alice, Payload: []byte{1, 2, 3, 4}},
		{Kind: ActionSelfCall, Target: dao, Payload: []byte{1}},
		{Kind: ActionKind(9), Target: alice},
	}
	for _, a := range bad {
		require.ErrorIs(t, ValidateActions([]Action{a}, dao), ErrInvalidAction, a.Kind.String())
	}
	require.NoError(t, ValidateActions([]Action{{Kind: ActionCall, Target: alice, Payload: []byte{9}}}, dao))
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name                  string
		forW, againstW, total uint64
		want                  Outcome
	}{
		{"majority", 2, 0, 3, OutcomeSucceeded},
		{"half of even total", 2, 1, 4, OutcomeSucceeded},
		{"integer division rounds down", 1, 0, 3, OutcomeSucceeded},
		{"below half", 1, 0, 4, OutcomeDefeated},
		{"tie", 2, 2, 4, OutcomeDefeated},
		{"against wins", 2, 3, 5, OutcomeDefeated},
		{"no votes", 0, 0, 1, OutcomeDefeated},
	}
	for _, c := range cases {
		p := &Proposal{StartDate: 1, ForWeight: c.forW, AgainstWeight: c.againstW}
		require.Equal(t, c.want, Evaluate(p, c.total), c.name)
	}
	require.Equal(t, OutcomePending, Evaluate(&Proposal{ForWeight: 5}, 1))
	require.Equal(t, OutcomePending, Evaluate(nil, 1))
}

func TestParseVoteChoice(t *testing.T) {
	for s, want := range map[string]VoteChoice{"for": VoteFor, "1": VoteFor, "no": VoteAgainst, "2": VoteAbstain} {
		c, ok := ParseVoteChoice(s)
		require.True(t, ok, s)
		require.Equal(t, want, c)
	}
	_, ok := ParseVoteChoice("maybe")
	require.False(t, ok)
	require.False(t, VoteChoice(3).Valid())
}

func TestSelfCall(t *testing.T) {
	args := BuyNftArgs{
		Marketplace: common.HexToAddress("0xa0"),
		NftContract: common.HexToAddress("0xb0"),
		NftID:       big.NewInt(42),
		Price:       big.NewInt(params.Ether),
	}
	payload, err := EncodeBuyNft(args)
	require.NoError(t, err)
	require.Equal(t, SelfABI.Methods[MethodBuyNft].ID, payload[:4])

	method, decoded, err := DecodeSelfCall(payload)
	require.NoError(t, err)
	require.Equal(t, MethodBuyNft, method)
	require.Equal(t, args, decoded)

	_, _, err = DecodeSelfCall([]byte{0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrUnknownSelfCall)
	_, _, err = DecodeSelfCall([]byte{1})
	require.ErrorIs(t, err, ErrUnknownSelfCall)
	_, _, err = DecodeSelfCall(payload[:20])
	require.Error(t, err)
}

func TestEvents(t *testing.T) {
	join := &EventJoin{Address: alice, Weight: 1, Payment: big.NewInt(params.Ether), TotalWeight: 2}
	require.Equal(t, join, DecodeEventJoin(EncodeEventJoin(join)))

	prop := &EventProposal{ID: common.HexToHash("0x01"), Proposer: alice, StartDate: 100, Actions: 2, Description: "hi"}
	require.Equal(t, prop, DecodeEventProposal(EncodeEventProposal(prop)))

	vote := &EventVote{Proposal: prop.ID, Voter: alice, Choice: VoteAbstain, Weight: 1, Relayer: dao}
	decoded := DecodeEventVote(EncodeEventVote(vote))
	require.Equal(t, vote, decoded)
	require.True(t, decoded.BySignature())
	vote.Relayer = alice
	require.False(t, vote.BySignature())

	exec := &EventExecute{Proposal: prop.ID, Executor: alice, Actions: 2}
	decodedExec := DecodeEventExecute(EncodeEventExecute(exec))
	require.Equal(t, 0, decodedExec.Reward.Sign())

	broken := EncodeEventJoin(join)
	broken.Attributes[1].Value = "x"
	require.Nil(t, DecodeEventJoin(broken))
}

func TestGenesisValidate(t *testing.T) {
	g := &AppGenesis{Params: DefaultParams(alice)}
	require.NoError(t, g.ValidateBasic())
	require.Equal(t, uint64(DefaultTimelock), g.Params.Timelock)
	require.NotEqual(t, alice, g.Params.Address)

	g.Balances = []GenesisBalance{{Address: alice, Amount: big.NewInt(-1)}}
	require.Error(t, g.ValidateBasic())

	g.Balances = nil
	g.Params.DomainName = ""
	require.Error(t, g.ValidateBasic())
}

func TestParamsBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero timelock", func(p *Params) { p.Timelock = 0 }},
		{"timelock overflows start date", func(p *Params) { p.Timelock = math.MaxUint64 }},
		{"timelock above int64", func(p *Params) { p.Timelock = math.MaxInt64 + 1 }},
		{"zero chain id", func(p *Params) { p.ChainID = 0 }},
		{"chain id above int64", func(p *Params) { p.ChainID = math.MaxInt64 + 1 }},
		{"negative fee", func(p *Params) { p.MembershipFee = big.NewInt(-1) }},
		{"missing deployer", func(p *Params) { p.Deployer = common.Address{} }},
	}
	for _, c := range cases {
		p := DefaultParams(alice)
		c.mutate(&p)
		require.Error(t, p.ValidateBasic(), c.name)
	}

	p := DefaultParams(alice)
	p.Timelock = math.MaxInt64
	p.ChainID = math.MaxInt64
	require.NoError(t, p.ValidateBasic())
}
