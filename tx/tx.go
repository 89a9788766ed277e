package tx

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

type DAOTx struct {
	Version uint8          `json:"version"`
	Type    DAOTxType      `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      any            `json:"tx"`
	Sig     hexutil.Bytes  `json:"sig"`
}

type JoinTx struct {
	Payment *big.Int `json:"payment"`
}

type ProposeTx struct {
	Actions     []types.Action `json:"actions"`
	Description string         `json:"description"`
}

type VoteTx struct {
	Proposal common.Hash      `json:"proposal"`
	Choice   types.VoteChoice `json:"choice"`
}

// VoteBySigTx is relayed by its sender on behalf of the member who signed it.
// Voter is optional; when set it must match the recovered signer.
type VoteBySigTx struct {
	Proposal  common.Hash      `json:"proposal"`
	Choice    types.VoteChoice `json:"choice"`
	Voter     common.Address   `json:"voter"`
	Signature hexutil.Bytes    `json:"signature"`
}

type ExecuteTx struct {
	Actions     []types.Action `json:"actions"`
	Description string         `json:"description"`
}

type daoTxTmpl[Tx any] struct {
	Version uint8          `json:"version"`
	Type    DAOTxType      `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      Tx             `json:"tx"`
	Sig     hexutil.Bytes  `json:"sig"`
}

func NewDAOTx(tp DAOTxType, nonce uint64, sender common.Address, payload any) *DAOTx {
	return &DAOTx{
		Version: DAOTxVersion0,
		Type:    tp,
		Nonce:   nonce,
		Sender:  sender,
		Tx:      payload,
	}
}

// SigData is the JSON encoding of the tx with the chain id in place of the signature.
func (tx *DAOTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = ext
	dat, err = json.Marshal(ntx)
	return
}

func (tx *DAOTx) SigHash(ext []byte) ([]byte, error) {
	dat, err := tx.SigData(ext)
	if err != nil {
		return nil, err
	}
	return ethcrypto.Keccak256(dat), nil
}

func (tx *DAOTx) Sign(k *crypto.Key, chainId string) error {
	if tx.Sender != k.Address() {
		return fmt.Errorf("%w: sender %v signed by %v", ErrInvalidTx, tx.Sender, k.Address())
	}
	h, err := tx.SigHash([]byte(chainId))
	if err != nil {
		return err
	}
	sig, err := k.Sign(h)
	if err != nil {
		return err
	}
	tx.Sig = sig
	return nil
}

func parseDAOTxType(dat []byte) DAOTxType {
	var tx struct {
		Type DAOTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return DAOTxTypeUnknown
	}
	return tx.Type
}

func unmarshalDAOTx[Tx any](dat []byte) (btx *DAOTx, err error) {
	var txt daoTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version != DAOTxVersion0 {
		return nil, ErrUnsupportedTxVersion
	}
	btx = new(DAOTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalDAOTx(dat []byte) (btx *DAOTx, err error) {
	tp := parseDAOTxType(dat)
	switch tp {
	case DAOTxTypeJoin:
		return unmarshalDAOTx[JoinTx](dat)
	case DAOTxTypePropose:
		return unmarshalDAOTx[ProposeTx](dat)
	case DAOTxTypeVote:
		return unmarshalDAOTx[VoteTx](dat)
	case DAOTxTypeVoteBySig:
		return unmarshalDAOTx[VoteBySigTx](dat)
	case DAOTxTypeExecute:
		return unmarshalDAOTx[ExecuteTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalDAOTx(btx *DAOTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
