package state

import (
	"fmt"
	"math/big"

	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common"
)

// MemberWeight is the vote weight granted on admission, independent of the payment.
const MemberWeight uint64 = 1

func memberKey(addr common.Address) []byte {
	return []byte(fmt.Sprintf(KeyMemberBody, addr.Bytes()))
}

func (s *State) GetMember(addr common.Address) (member *types.Member, err error) {
	m := new(types.Member)
	found, err := s.getRLP(memberKey(addr), m)
	if err != nil || !found {
		return nil, err
	}
	return m, nil
}

func (s *State) IsMember(addr common.Address) (bool, error) {
	m, err := s.GetMember(addr)
	return m != nil, err
}

func (s *State) TotalWeight() uint64 {
	return s.header.TotalWeight
}

// Members lists members in admission order.
func (s *State) Members() (members []*types.Member, err error) {
	for i := uint64(1); i <= s.header.Members; i++ {
		var addr common.Address
		found, err := s.getRLP([]byte(fmt.Sprintf(KeyMemberIndex, i)), &addr)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("member index %d: %w", i, ErrNotFound)
		}
		m, err := s.GetMember(addr)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return
}

func (s *State) addMember(addr common.Address) error {
	m := &types.Member{
		Address:    addr,
		VoteWeight: MemberWeight,
		JoinedAt:   s.header.Time,
	}
	if err := s.putRLP(memberKey(addr), m); err != nil {
		return err
	}
	s.header.Members += 1
	if err := s.putRLP([]byte(fmt.Sprintf(KeyMemberIndex, s.header.Members)), addr); err != nil {
		return err
	}
	s.header.TotalWeight += m.VoteWeight
	return nil
}

// Join admits caller for payment, which must cover the membership fee. The whole
// payment moves into the treasury; the weight granted is always MemberWeight.
func (s *State) Join(caller common.Address, payment *big.Int) (event *types.EventJoin, err error) {
	s.logger.Debug("apply join", "caller", caller, "payment", payment, "height", s.header.Height)
	params := s.mustParams()
	if payment == nil || payment.Cmp(params.MembershipFee) < 0 {
		return nil, fmt.Errorf("%w: paid %v, fee %v", ErrInsufficientPayment, payment, params.MembershipFee)
	}
	err = s.atomic(func() error {
		m, err := s.GetMember(caller)
		if err != nil {
			return err
		}
		if m != nil {
			return ErrAlreadyMember
		}
		if err := s.Transfer(caller, params.Address, payment); err != nil {
			return err
		}
		return s.addMember(caller)
	})
	if err != nil {
		return nil, err
	}
	event = &types.EventJoin{
		Address:     caller,
		Weight:      MemberWeight,
		Payment:     new(big.Int).Set(payment),
		TotalWeight: s.header.TotalWeight,
	}
	return
}
