package types

import (
	"fmt"
	"math/big"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	EventJoinType     = "join"
	EventProposalType = "proposal"
	EventVoteType     = "vote"
	EventExecuteType  = "execute"
)

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
)

type EventJoin struct {
	Address     common.Address `json:"address"`
	Weight      uint64         `json:"weight"`
	Payment     *big.Int       `json:"payment"`
	TotalWeight uint64         `json:"totalWeight"`
}

func EncodeEventJoin(event *EventJoin) abci.Event {
	return abci.Event{
		Type: EventJoinType,
		Attributes: []abci.EventAttribute{
			{Key: "address", Value: event.Address.Hex(), Index: true},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
			{Key: "payment", Value: bigString(event.Payment), Index: false},
			{Key: "totalWeight", Value: fmt.Sprintf("%v", event.TotalWeight), Index: false},
		},
	}
}

func DecodeEventJoin(originEvent abci.Event) *EventJoin {
	event := &EventJoin{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "address":
			event.Address = common.HexToAddress(v.Value)
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		case "payment":
			payment, ok := new(big.Int).SetString(v.Value, 10)
			if !ok {
				return nil
			}
			event.Payment = payment
		case "totalWeight":
			total, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.TotalWeight = total
		}
	}
	return event
}

type EventProposal struct {
	ID          common.Hash    `json:"id"`
	Proposer    common.Address `json:"proposer"`
	StartDate   uint64         `json:"startDate"`
	Actions     uint64         `json:"actions"`
	Description string         `json:"description"`
}

func EncodeEventProposal(event *EventProposal) abci.Event {
	return abci.Event{
		Type: EventProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: event.ID.Hex(), Index: true},
			{Key: "proposer", Value: event.Proposer.Hex(), Index: true},
			{Key: "startDate", Value: fmt.Sprintf("%v", event.StartDate), Index: false},
			{Key: "actions", Value: fmt.Sprintf("%v", event.Actions), Index: false},
			{Key: "description", Value: event.Description, Index: false},
		},
	}
}

func DecodeEventProposal(originEvent abci.Event) *EventProposal {
	event := &EventProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			event.ID = common.HexToHash(v.Value)
		case "proposer":
			event.Proposer = common.HexToAddress(v.Value)
		case "startDate":
			startDate, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.StartDate = startDate
		case "actions":
			actions, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Actions = actions
		case "description":
			event.Description = v.Value
		}
	}
	return event
}

type EventVote struct {
	Proposal common.Hash    `json:"proposal"`
	Voter    common.Address `json:"voter"`
	Choice   VoteChoice     `json:"choice"`
	Weight   uint64         `json:"weight"`
	Relayer  common.Address `json:"relayer"`
}

// BySignature reports whether the vote was submitted by someone other than the voter.
func (e *EventVote) BySignature() bool {
	return e.Relayer != (common.Address{}) && e.Relayer != e.Voter
}

func EncodeEventVote(event *EventVote) abci.Event {
	return abci.Event{
		Type: EventVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: event.Proposal.Hex(), Index: true},
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "choice", Value: fmt.Sprintf("%v", uint8(event.Choice)), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
			{Key: "relayer", Value: event.Relayer.Hex(), Index: false},
		},
	}
}

func DecodeEventVote(originEvent abci.Event) *EventVote {
	event := &EventVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			event.Proposal = common.HexToHash(v.Value)
		case "voter":
			event.Voter = common.HexToAddress(v.Value)
		case "choice":
			choice, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.Choice = VoteChoice(choice)
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		case "relayer":
			event.Relayer = common.HexToAddress(v.Value)
		}
	}
	return event
}

type EventExecute struct {
	Proposal common.Hash    `json:"proposal"`
	Executor common.Address `json:"executor"`
	Actions  uint64         `json:"actions"`
	Reward   *big.Int       `json:"reward"`
}

func EncodeEventExecute(event *EventExecute) abci.Event {
	return abci.Event{
		Type: EventExecuteType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: event.Proposal.Hex(), Index: true},
			{Key: "executor", Value: event.Executor.Hex(), Index: true},
			{Key: "actions", Value: fmt.Sprintf("%v", event.Actions), Index: false},
			{Key: "reward", Value: bigString(event.Reward), Index: false},
		},
	}
}

func DecodeEventExecute(originEvent abci.Event) *EventExecute {
	event := &EventExecute{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			event.Proposal = common.HexToHash(v.Value)
		case "executor":
			event.Executor = common.HexToAddress(v.Value)
		case "actions":
			actions, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Actions = actions
		case "reward":
			reward, ok := new(big.Int).SetString(v.Value, 10)
			if !ok {
				return nil
			}
			event.Reward = reward
		}
	}
	return event
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
