package crypto

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	voteTypeName   = "Vote"
	domainTypeName = "EIP712Domain"
)

var (
	ErrSignatureLength = errors.New("signature must be 65 bytes")
	ErrSignatureValues = errors.New("signature values out of range")
)

// VoteDomain binds vote signatures to one deployment.
type VoteDomain struct {
	Name              string         `json:"name"`
	ChainID           uint64         `json:"chainId"`
	VerifyingContract common.Address `json:"verifyingContract"`
}

var voteTypes = apitypes.Types{
	domainTypeName: []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	voteTypeName: []apitypes.Type{
		{Name: "id", Type: "uint256"},
		{Name: "vote", Type: "uint256"},
	},
}

// VoteTypedData builds the typed data Vote(uint256 id,uint256 vote) for a proposal id and choice.
func VoteTypedData(domain VoteDomain, id common.Hash, choice uint8) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       voteTypes,
		PrimaryType: voteTypeName,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			ChainId:           math.NewHexOrDecimal256(int64(domain.ChainID)),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"id":   new(big.Int).SetBytes(id[:]).String(),
			"vote": new(big.Int).SetUint64(uint64(choice)).String(),
		},
	}
}

func VoteDigest(domain VoteDomain, id common.Hash, choice uint8) (common.Hash, error) {
	td := VoteTypedData(domain, id, choice)
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(hash), nil
}

// SignVote returns a 65 byte [R || S || V] signature with V in {27, 28}, the form wallets produce.
func SignVote(k *Key, domain VoteDomain, id common.Hash, choice uint8) ([]byte, error) {
	digest, err := VoteDigest(domain, id, choice)
	if err != nil {
		return nil, err
	}
	sig, err := k.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func RecoverVoter(domain VoteDomain, id common.Hash, choice uint8, sig []byte) (common.Address, error) {
	digest, err := VoteDigest(domain, id, choice)
	if err != nil {
		return common.Address{}, err
	}
	return RecoverAddress(digest[:], sig)
}

// RecoverAddress recovers the signer of digest. V may be 0/1 or 27/28; high-s signatures are rejected.
func RecoverAddress(digest []byte, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrSignatureLength
	}
	norm := make([]byte, crypto.SignatureLength)
	copy(norm, sig)
	if norm[crypto.RecoveryIDOffset] >= 27 {
		norm[crypto.RecoveryIDOffset] -= 27
	}
	r := new(big.Int).SetBytes(norm[:32])
	s := new(big.Int).SetBytes(norm[32:64])
	if !crypto.ValidateSignatureValues(norm[crypto.RecoveryIDOffset], r, s, true) {
		return common.Address{}, ErrSignatureValues
	}
	pub, err := crypto.SigToPub(digest, norm)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
