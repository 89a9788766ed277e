package state

import (
	"fmt"

	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common"
)

func proposalKey(id common.Hash) []byte {
	return []byte(fmt.Sprintf(KeyProposalBody, id.Bytes()))
}

// GetProposal returns nil when no record with a start date exists for id.
func (s *State) GetProposal(id common.Hash) (proposal *types.Proposal, err error) {
	p := new(types.Proposal)
	found, err := s.getRLP(proposalKey(id), p)
	if err != nil || !found || !p.Exists() {
		return nil, err
	}
	return p, nil
}

func (s *State) setProposal(p *types.Proposal) error {
	return s.putRLP(proposalKey(p.ID), p)
}

// Proposals lists proposals in creation order.
func (s *State) Proposals() (proposals []*types.Proposal, err error) {
	for i := uint64(1); i <= s.header.Proposals; i++ {
		var id common.Hash
		found, err := s.getRLP([]byte(fmt.Sprintf(KeyProposalIndex, i)), &id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("proposal index %d: %w", i, ErrNotFound)
		}
		p, err := s.GetProposal(id)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return
}

// CreateProposal stores a new record under the content id of actions and description,
// starting the timelock at the current block time.
func (s *State) CreateProposal(caller common.Address, actions []types.Action, description string) (event *types.EventProposal, err error) {
	s.logger.Debug("apply proposal", "caller", caller, "actions", len(actions), "height", s.header.Height)
	params := s.mustParams()
	if s.header.Time == 0 {
		return nil, ErrClockUnset
	}
	m, err := s.GetMember(caller)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}
	if err = types.ValidateActions(actions, params.Address); err != nil {
		return nil, err
	}
	id, err := types.HashProposal(actions, description)
	if err != nil {
		return nil, err
	}
	var proposal *types.Proposal
	err = s.atomic(func() error {
		existing, err := s.GetProposal(id)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %v", ErrDuplicateProposal, id)
		}
		proposal = &types.Proposal{
			ID:          id,
			Proposer:    caller,
			StartDate:   s.header.Time,
			Description: description,
			Actions:     actions,
		}
		if err := s.setProposal(proposal); err != nil {
			return err
		}
		s.header.Proposals += 1
		return s.putRLP([]byte(fmt.Sprintf(KeyProposalIndex, s.header.Proposals)), id)
	})
	if err != nil {
		return nil, err
	}
	event = &types.EventProposal{
		ID:          id,
		Proposer:    caller,
		StartDate:   proposal.StartDate,
		Actions:     uint64(len(actions)),
		Description: description,
	}
	return
}

// Outcome evaluates a proposal against the current registered weight.
func (s *State) Outcome(id common.Hash) (types.Outcome, error) {
	p, err := s.GetProposal(id)
	if err != nil {
		return types.OutcomePending, err
	}
	return types.Evaluate(p, s.header.TotalWeight), nil
}
