package tx

import (
	"errors"
)

type DAOTxType uint8

const (
	DAOTxTypeUnknown   DAOTxType = 0
	DAOTxTypeJoin      DAOTxType = 1
	DAOTxTypePropose   DAOTxType = 2
	DAOTxTypeVote      DAOTxType = 3
	DAOTxTypeVoteBySig DAOTxType = 4
	DAOTxTypeExecute   DAOTxType = 5
)

func (t DAOTxType) String() string {
	switch t {
	case DAOTxTypeJoin:
		return "join"
	case DAOTxTypePropose:
		return "propose"
	case DAOTxTypeVote:
		return "vote"
	case DAOTxTypeVoteBySig:
		return "voteBySig"
	case DAOTxTypeExecute:
		return "execute"
	}
	return "unknown"
}

const (
	DAOTxVersion0 uint8 = 0
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrUnmatchedTxType      = errors.New("unmatched tx type")
)
