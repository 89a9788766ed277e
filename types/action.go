package types

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

type ActionKind uint8

const (
	ActionTransfer ActionKind = 0
	ActionCall     ActionKind = 1
	ActionSelfCall ActionKind = 2
)

func (k ActionKind) String() string {
	switch k {
	case ActionTransfer:
		return "transfer"
	case ActionCall:
		return "call"
	case ActionSelfCall:
		return "self"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Action is one step of a proposal batch.
type Action struct {
	Kind    ActionKind     `json:"kind"`
	Target  common.Address `json:"target"`
	Value   *big.Int       `json:"value"`
	Payload hexutil.Bytes  `json:"payload"`
}

var (
	ErrEmptyActions  = errors.New("proposal has no actions")
	ErrInvalidAction = errors.New("invalid action")
)

func (a *Action) value() *big.Int {
	if a.Value == nil {
		return new(big.Int)
	}
	return a.Value
}

// Validate checks the shape of an action. self is the DAO address that self-calls must target.
func (a *Action) Validate(self common.Address) error {
	if a.Value != nil && a.Value.Sign() < 0 {
		return fmt.Errorf("%w: negative value", ErrInvalidAction)
	}
	switch a.Kind {
	case ActionTransfer:
		if len(a.Payload) != 0 {
			return fmt.Errorf("%w: transfer carries payload", ErrInvalidAction)
		}
	case ActionCall:
	case ActionSelfCall:
		if a.Target != self {
			return fmt.Errorf("%w: self call targets %v", ErrInvalidAction, a.Target)
		}
		if len(a.Payload) < 4 {
			return fmt.Errorf("%w: self call without method selector", ErrInvalidAction)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidAction, a.Kind)
	}
	return nil
}

func ValidateActions(actions []Action, self common.Address) error {
	if len(actions) == 0 {
		return ErrEmptyActions
	}
	for i := range actions {
		if err := actions[i].Validate(self); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

var proposalArgs abi.Arguments

func init() {
	uint256s, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		panic(err)
	}
	addresses, err := abi.NewType("address[]", "", nil)
	if err != nil {
		panic(err)
	}
	bytesList, err := abi.NewType("bytes[]", "", nil)
	if err != nil {
		panic(err)
	}
	bytes32, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	proposalArgs = abi.Arguments{
		{Name: "kinds", Type: uint256s},
		{Name: "targets", Type: addresses},
		{Name: "values", Type: uint256s},
		{Name: "payloads", Type: bytesList},
		{Name: "descriptionHash", Type: bytes32},
	}
}

// HashProposal derives the proposal id:
// keccak256(abi.encode(kinds, targets, values, payloads, keccak256(description))).
func HashProposal(actions []Action, description string) (id common.Hash, err error) {
	kinds := make([]*big.Int, len(actions))
	targets := make([]common.Address, len(actions))
	values := make([]*big.Int, len(actions))
	payloads := make([][]byte, len(actions))
	for i := range actions {
		kinds[i] = new(big.Int).SetUint64(uint64(actions[i].Kind))
		targets[i] = actions[i].Target
		values[i] = actions[i].value()
		payloads[i] = []byte(actions[i].Payload)
		if payloads[i] == nil {
			payloads[i] = []byte{}
		}
	}
	descHash := [32]byte(crypto.Keccak256Hash([]byte(description)))
	enc, err := proposalArgs.Pack(kinds, targets, values, payloads, descHash)
	if err != nil {
		return id, err
	}
	return crypto.Keccak256Hash(enc), nil
}
