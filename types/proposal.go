package types

import (
	"github.com/ethereum/go-ethereum/common"
)

type Member struct {
	Address    common.Address `json:"address"`
	VoteWeight uint64         `json:"voteWeight"`
	JoinedAt   uint64         `json:"joinedAt"`
}

// Proposal is keyed by its content id. A record whose StartDate is zero does not exist.
type Proposal struct {
	ID            common.Hash    `json:"id"`
	Proposer      common.Address `json:"proposer"`
	StartDate     uint64         `json:"startDate"`
	ForWeight     uint64         `json:"voteYes"`
	AgainstWeight uint64         `json:"voteNo"`
	AbstainWeight uint64         `json:"voteAbstain"`
	Executed      bool           `json:"executed"`
	Description   string         `json:"description"`
	Actions       []Action       `json:"actions"`
}

func (p *Proposal) Exists() bool {
	return p != nil && p.StartDate != 0
}

type VoteChoice uint8

const (
	VoteAgainst VoteChoice = 0
	VoteFor     VoteChoice = 1
	VoteAbstain VoteChoice = 2
)

func (c VoteChoice) Valid() bool {
	return c <= VoteAbstain
}

func (c VoteChoice) String() string {
	switch c {
	case VoteAgainst:
		return "against"
	case VoteFor:
		return "for"
	case VoteAbstain:
		return "abstain"
	}
	return "unknown"
}

func ParseVoteChoice(s string) (VoteChoice, bool) {
	switch s {
	case "0", "against", "no":
		return VoteAgainst, true
	case "1", "for", "yes":
		return VoteFor, true
	case "2", "abstain":
		return VoteAbstain, true
	}
	return 0, false
}

type Vote struct {
	Proposal common.Hash    `json:"proposal"`
	Voter    common.Address `json:"voter"`
	Choice   VoteChoice     `json:"choice"`
	Weight   uint64         `json:"weight"`
}

type Outcome uint8

const (
	OutcomePending   Outcome = 0
	OutcomeSucceeded Outcome = 1
	OutcomeDefeated  Outcome = 2
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeDefeated:
		return "defeated"
	}
	return "pending"
}

// Evaluate measures quorum against the whole registered weight, not against turnout:
// the "for" weight alone must reach half of totalWeight (integer division) and beat
// the "against" weight. Abstentions count toward neither side.
func Evaluate(p *Proposal, totalWeight uint64) Outcome {
	if !p.Exists() {
		return OutcomePending
	}
	if p.ForWeight >= totalWeight/2 && p.ForWeight > p.AgainstWeight {
		return OutcomeSucceeded
	}
	return OutcomeDefeated
}
