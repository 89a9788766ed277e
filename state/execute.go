package state

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common"
)

// CallEnv is what a callee sees when an action reaches it.
type CallEnv struct {
	State  *State
	Self   common.Address
	Sender common.Address
	Store  KVStore
}

// Transfer pays amount out of the callee's own balance.
func (e *CallEnv) Transfer(to common.Address, amount *big.Int) error {
	return e.State.Transfer(e.Self, to, amount)
}

// Callee is code deployed at an address. value has already been credited to
// env.Self when Call runs. Returning an error aborts the whole execution.
type Callee interface {
	Call(ctx context.Context, env *CallEnv, value *big.Int, payload []byte) error
}

// Marketplace is the external collaborator reachable through the buyNft self call.
type Marketplace interface {
	Callee
	Purchase(ctx context.Context, env *CallEnv, itemContract common.Address, itemID, price *big.Int) error
}

var ErrUnknownCalleeKind = errors.New("unknown callee kind")

func contractKey(addr common.Address) []byte {
	return []byte(fmt.Sprintf(KeyContractKind, addr.Bytes()))
}

// Deploy binds addr to the callee implementation registered under kind.
func (s *State) Deploy(addr common.Address, kind string) error {
	if _, ok := s.callees[kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCalleeKind, kind)
	}
	return s.store.Set(contractKey(addr), []byte(kind))
}

// CalleeStore is the private storage namespace of the callee at addr.
func (s *State) CalleeStore(addr common.Address) KVStore {
	return NewPrefixStore(s.store, []byte(fmt.Sprintf(KeyContractPrefix, addr.Bytes())))
}

func (s *State) calleeAt(addr common.Address) (Callee, error) {
	kind, err := s.store.Get(contractKey(addr))
	if err != nil || len(kind) == 0 {
		return nil, err
	}
	c, ok := s.callees[string(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %q at %v", ErrUnknownCalleeKind, kind, addr)
	}
	return c, nil
}

func (s *State) callEnv(addr, sender common.Address) *CallEnv {
	return &CallEnv{
		State:  s,
		Self:   addr,
		Sender: sender,
		Store:  s.CalleeStore(addr),
	}
}

// Execute runs the action batch of a passed proposal once its timelock has elapsed.
// The proposal is marked executed before the first action runs, so an action that
// re-enters Execute for the same batch fails with ErrAlreadyExecuted. If any action
// fails the whole execution is undone, the executed flag included.
func (s *State) Execute(ctx context.Context, caller common.Address, actions []types.Action, description string) (event *types.EventExecute, err error) {
	s.logger.Debug("apply execute", "caller", caller, "actions", len(actions), "height", s.header.Height)
	params := s.mustParams()
	id, err := types.HashProposal(actions, description)
	if err != nil {
		return nil, err
	}
	var reward *big.Int
	err = s.atomic(func() error {
		p, err := s.GetProposal(id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: %v", ErrProposalNotFound, id)
		}
		if p.Executed {
			return ErrAlreadyExecuted
		}
		if s.header.Time < p.StartDate+params.Timelock {
			return fmt.Errorf("%w: executable at %d, now %d", ErrTimelockNotElapsed, p.StartDate+params.Timelock, s.header.Time)
		}
		if types.Evaluate(p, s.header.TotalWeight) != types.OutcomeSucceeded {
			return fmt.Errorf("%w: for %d, against %d, total %d", ErrQuorumNotMet, p.ForWeight, p.AgainstWeight, s.header.TotalWeight)
		}

		p.Executed = true
		if err := s.setProposal(p); err != nil {
			return err
		}

		for i := range actions {
			if err := s.invoke(ctx, params.Address, &actions[i]); err != nil {
				s.logger.Info("action failed", "proposal", id, "index", i, "err", err)
				return &ActionCallError{Index: i, Cause: err}
			}
		}
		reward = s.payReward(params, caller)
		return nil
	})
	if err != nil {
		return nil, err
	}
	event = &types.EventExecute{
		Proposal: id,
		Executor: caller,
		Actions:  uint64(len(actions)),
		Reward:   reward,
	}
	return
}

// invoke dispatches one action on behalf of the DAO at self.
func (s *State) invoke(ctx context.Context, self common.Address, a *types.Action) error {
	value := a.Value
	if value == nil {
		value = new(big.Int)
	}
	switch a.Kind {
	case types.ActionTransfer:
		return s.Transfer(self, a.Target, value)
	case types.ActionCall:
		return s.atomic(func() error {
			if err := s.Transfer(self, a.Target, value); err != nil {
				return err
			}
			c, err := s.calleeAt(a.Target)
			if err != nil {
				return err
			}
			if c == nil {
				// plain account, nothing to run
				return nil
			}
			return c.Call(ctx, s.callEnv(a.Target, self), value, a.Payload)
		})
	case types.ActionSelfCall:
		if a.Target != self {
			return fmt.Errorf("%w: self call targets %v", types.ErrInvalidAction, a.Target)
		}
		return s.selfCall(ctx, self, a.Payload)
	}
	return fmt.Errorf("%w: unknown kind %d", types.ErrInvalidAction, a.Kind)
}

func (s *State) selfCall(ctx context.Context, self common.Address, payload []byte) error {
	method, args, err := types.DecodeSelfCall(payload)
	if err != nil {
		return err
	}
	switch method {
	case types.MethodBuyNft:
		return s.buyNft(ctx, self, args.(types.BuyNftArgs))
	}
	return types.ErrUnknownSelfCall
}

// buyNft pays the marketplace and asks it to hand the item to the DAO.
func (s *State) buyNft(ctx context.Context, self common.Address, args types.BuyNftArgs) error {
	c, err := s.calleeAt(args.Marketplace)
	if err != nil {
		return err
	}
	market, ok := c.(Marketplace)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownMarketplace, args.Marketplace)
	}
	return s.atomic(func() error {
		if err := s.Transfer(self, args.Marketplace, args.Price); err != nil {
			return err
		}
		return market.Purchase(ctx, s.callEnv(args.Marketplace, self), args.NftContract, args.NftID, args.Price)
	})
}

// payReward pays the executor from the treasury when it can afford it.
func (s *State) payReward(params *types.Params, executor common.Address) *big.Int {
	reward := params.ExecutionReward
	if reward == nil || reward.Sign() == 0 {
		return new(big.Int)
	}
	if err := s.Transfer(params.Address, executor, reward); err != nil {
		s.logger.Debug("skip execution reward", "err", err)
		return new(big.Int)
	}
	return new(big.Int).Set(reward)
}
