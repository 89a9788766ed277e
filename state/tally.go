package state

import (
	"fmt"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common"
)

func voteKey(id common.Hash, voter common.Address) []byte {
	return []byte(fmt.Sprintf(KeyVoteBody, id.Bytes(), voter.Bytes()))
}

func (s *State) GetVote(id common.Hash, voter common.Address) (vote *types.Vote, err error) {
	v := new(types.Vote)
	found, err := s.getRLP(voteKey(id, voter), v)
	if err != nil || !found {
		return nil, err
	}
	return v, nil
}

// CastVote records one vote per member and proposal, adding the member's weight to the
// bucket of choice.
func (s *State) CastVote(voter common.Address, id common.Hash, choice types.VoteChoice) (event *types.EventVote, err error) {
	return s.castVote(voter, voter, id, choice)
}

func (s *State) castVote(relayer, voter common.Address, id common.Hash, choice types.VoteChoice) (event *types.EventVote, err error) {
	s.logger.Debug("apply vote", "voter", voter, "proposal", id, "choice", choice, "height", s.header.Height)
	if !choice.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChoice, choice)
	}
	var vote *types.Vote
	err = s.atomic(func() error {
		m, err := s.GetMember(voter)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotMember
		}
		p, err := s.GetProposal(id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: %v", ErrProposalNotFound, id)
		}
		prev, err := s.GetVote(id, voter)
		if err != nil {
			return err
		}
		if prev != nil {
			return ErrAlreadyVoted
		}
		switch choice {
		case types.VoteFor:
			p.ForWeight += m.VoteWeight
		case types.VoteAgainst:
			p.AgainstWeight += m.VoteWeight
		case types.VoteAbstain:
			p.AbstainWeight += m.VoteWeight
		}
		if err := s.setProposal(p); err != nil {
			return err
		}
		vote = &types.Vote{Proposal: id, Voter: voter, Choice: choice, Weight: m.VoteWeight}
		return s.putRLP(voteKey(id, voter), vote)
	})
	if err != nil {
		return nil, err
	}
	event = &types.EventVote{
		Proposal: id,
		Voter:    voter,
		Choice:   choice,
		Weight:   vote.Weight,
		Relayer:  relayer,
	}
	return
}

func (s *State) VoteDomain() crypto.VoteDomain {
	params := s.mustParams()
	return crypto.VoteDomain{
		Name:              params.DomainName,
		ChainID:           params.ChainID,
		VerifyingContract: params.Address,
	}
}

// CastVoteBySig lets relayer submit a vote signed by a member. The recorded voter is
// the recovered signer; claimed, when non-zero, must match it.
func (s *State) CastVoteBySig(relayer common.Address, id common.Hash, choice types.VoteChoice, sig []byte, claimed common.Address) (event *types.EventVote, err error) {
	if !choice.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChoice, choice)
	}
	signer, err1 := crypto.RecoverVoter(s.VoteDomain(), id, uint8(choice), sig)
	if err1 != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err1)
	}
	if claimed != (common.Address{}) && claimed != signer {
		return nil, fmt.Errorf("%w: recovered %v, expected %v", ErrInvalidSignature, signer, claimed)
	}
	m, err := s.GetMember(signer)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %v", ErrSignerNotMember, signer)
	}
	return s.castVote(relayer, signer, id, choice)
}
