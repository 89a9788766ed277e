package state

import (
	"math/big"
	"testing"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestCreateProposal(t *testing.T) {
	env := newTestEnv(t, 1, nil)
	st := env.st
	actions := []types.Action{transferAction(common.HexToAddress("0xbeef"), big.NewInt(1))}

	_, err := st.CreateProposal(env.addr(0), actions, "Proposal 1")
	require.ErrorIs(t, err, ErrNotMember)

	_, err = st.CreateProposal(env.deployer.Address(), nil, "empty")
	require.ErrorIs(t, err, types.ErrEmptyActions)

	bad := []types.Action{{Kind: types.ActionSelfCall, Target: common.HexToAddress("0x01"), Payload: []byte{1, 2, 3, 4}}}
	_, err = st.CreateProposal(env.deployer.Address(), bad, "bad")
	require.ErrorIs(t, err, types.ErrInvalidAction)

	event, err := st.CreateProposal(env.deployer.Address(), actions, "Proposal 1")
	require.NoError(t, err)
	id, err := types.HashProposal(actions, "Proposal 1")
	require.NoError(t, err)
	require.Equal(t, id, event.ID)
	require.Equal(t, uint64(genesisTime), event.StartDate)

	p, err := st.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, env.deployer.Address(), p.Proposer)
	require.Equal(t, uint64(genesisTime), p.StartDate)
	require.Zero(t, p.ForWeight+p.AgainstWeight+p.AbstainWeight)
	require.False(t, p.Executed)
	require.Equal(t, "Proposal 1", p.Description)

	_, err = st.CreateProposal(env.deployer.Address(), actions, "Proposal 1")
	require.ErrorIs(t, err, ErrDuplicateProposal)

	_, err = st.CreateProposal(env.deployer.Address(), actions, "hi")
	require.NoError(t, err)

	proposals, err := st.Proposals()
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	require.Equal(t, id, proposals[0].ID)

	missing, err := st.GetProposal(common.HexToHash("0x1234"))
	require.NoError(t, err)
	require.Nil(t, missing)
	outcome, err := st.Outcome(common.HexToHash("0x1234"))
	require.NoError(t, err)
	require.Equal(t, types.OutcomePending, outcome)
}

func TestCastVote(t *testing.T) {
	env := newTestEnv(t, 3, nil)
	st := env.st
	_, err := st.Join(env.addr(0), ether)
	require.NoError(t, err)
	_, err = st.Join(env.addr(1), ether)
	require.NoError(t, err)

	actions := []types.Action{transferAction(common.HexToAddress("0xbeef"), big.NewInt(1))}
	event, err := st.CreateProposal(env.deployer.Address(), actions, "vote on me")
	require.NoError(t, err)
	id := event.ID

	_, err = st.CastVote(env.addr(2), id, types.VoteFor)
	require.ErrorIs(t, err, ErrNotMember)

	_, err = st.CastVote(env.addr(0), common.HexToHash("0x99"), types.VoteFor)
	require.ErrorIs(t, err, ErrProposalNotFound)

	_, err = st.CastVote(env.addr(0), id, types.VoteChoice(3))
	require.ErrorIs(t, err, ErrInvalidChoice)

	ve, err := st.CastVote(env.addr(0), id, types.VoteFor)
	require.NoError(t, err)
	require.Equal(t, env.addr(0), ve.Voter)
	require.False(t, ve.BySignature())

	_, err = st.CastVote(env.addr(0), id, types.VoteAgainst)
	require.ErrorIs(t, err, ErrAlreadyVoted)

	_, err = st.CastVote(env.addr(1), id, types.VoteAgainst)
	require.NoError(t, err)
	_, err = st.CastVote(env.deployer.Address(), id, types.VoteAbstain)
	require.NoError(t, err)

	p, err := st.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, uint64(1), p.ForWeight)
	require.Equal(t, uint64(1), p.AgainstWeight)
	require.Equal(t, uint64(1), p.AbstainWeight)

	// a tie is not a majority
	outcome, err := st.Outcome(id)
	require.NoError(t, err)
	require.Equal(t, types.OutcomeDefeated, outcome)

	v, err := st.GetVote(id, env.addr(1))
	require.NoError(t, err)
	require.Equal(t, types.VoteAgainst, v.Choice)
	require.Equal(t, uint64(1), v.Weight)
	v, err = st.GetVote(id, env.addr(2))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestCastVoteBySig(t *testing.T) {
	env := newTestEnv(t, 3, nil)
	st := env.st
	voter := env.accounts[0]
	relayer := env.addr(2)
	_, err := st.Join(voter.Address(), ether)
	require.NoError(t, err)

	actions := []types.Action{transferAction(common.HexToAddress("0xbeef"), big.NewInt(1))}
	a, err := st.CreateProposal(env.deployer.Address(), actions, "by sig")
	require.NoError(t, err)
	b, err := st.CreateProposal(env.deployer.Address(), actions, "direct")
	require.NoError(t, err)

	domain := st.VoteDomain()
	require.Equal(t, types.DefaultDomainName, domain.Name)
	require.Equal(t, env.params.Address, domain.VerifyingContract)

	sig, err := crypto.SignVote(voter, domain, a.ID, uint8(types.VoteFor))
	require.NoError(t, err)

	// the signature only covers the proposal and choice it was made for
	_, err = st.CastVoteBySig(relayer, a.ID, types.VoteAgainst, sig, voter.Address())
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = st.CastVoteBySig(relayer, a.ID, types.VoteFor, sig[:10], common.Address{})
	require.ErrorIs(t, err, ErrInvalidSignature)

	wrongDomain := domain
	wrongDomain.ChainID = 1
	foreign, err := crypto.SignVote(voter, wrongDomain, a.ID, uint8(types.VoteFor))
	require.NoError(t, err)
	_, err = st.CastVoteBySig(relayer, a.ID, types.VoteFor, foreign, voter.Address())
	require.ErrorIs(t, err, ErrInvalidSignature)
	_, err = st.CastVoteBySig(relayer, a.ID, types.VoteFor, foreign, common.Address{})
	require.ErrorIs(t, err, ErrSignerNotMember)

	event, err := st.CastVoteBySig(relayer, a.ID, types.VoteFor, sig, voter.Address())
	require.NoError(t, err)
	require.Equal(t, voter.Address(), event.Voter)
	require.Equal(t, relayer, event.Relayer)
	require.True(t, event.BySignature())

	_, err = st.CastVoteBySig(relayer, a.ID, types.VoteFor, sig, common.Address{})
	require.ErrorIs(t, err, ErrAlreadyVoted)
	_, err = st.CastVote(voter.Address(), a.ID, types.VoteAgainst)
	require.ErrorIs(t, err, ErrAlreadyVoted)

	// same tally effect as voting directly
	_, err = st.CastVote(voter.Address(), b.ID, types.VoteFor)
	require.NoError(t, err)
	pa, err := st.GetProposal(a.ID)
	require.NoError(t, err)
	pb, err := st.GetProposal(b.ID)
	require.NoError(t, err)
	require.Equal(t, pb.ForWeight, pa.ForWeight)
	require.Equal(t, pb.AgainstWeight, pa.AgainstWeight)
	va, err := st.GetVote(a.ID, voter.Address())
	require.NoError(t, err)
	vb, err := st.GetVote(b.ID, voter.Address())
	require.NoError(t, err)
	require.Equal(t, vb.Weight, va.Weight)
	require.Equal(t, vb.Choice, va.Choice)

	outsider := env.accounts[1]
	osig, err := crypto.SignVote(outsider, domain, a.ID, uint8(types.VoteFor))
	require.NoError(t, err)
	_, err = st.CastVoteBySig(relayer, a.ID, types.VoteFor, osig, common.Address{})
	require.ErrorIs(t, err, ErrSignerNotMember)
}
