package types

import (
	"errors"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

const (
	DefaultTimelock   = 691200 // 8 days
	DefaultDomainName = "DAOContract"
	DefaultChainID    = 1337
)

// Params are fixed at genesis.
type Params struct {
	MembershipFee   *big.Int       `json:"membershipFee"`
	Timelock        uint64         `json:"timelock"`
	ExecutionReward *big.Int       `json:"executionReward"`
	DomainName      string         `json:"domainName"`
	ChainID         uint64         `json:"chainId"`
	Address         common.Address `json:"address"`
	Deployer        common.Address `json:"deployer"`
}

func DefaultParams(deployer common.Address) Params {
	return Params{
		MembershipFee:   big.NewInt(params.Ether),
		Timelock:        DefaultTimelock,
		ExecutionReward: big.NewInt(params.Ether / 100),
		DomainName:      DefaultDomainName,
		ChainID:         DefaultChainID,
		Address:         crypto.CreateAddress(deployer, 0),
		Deployer:        deployer,
	}
}

func (p *Params) ValidateBasic() error {
	if p.MembershipFee == nil || p.MembershipFee.Sign() < 0 {
		return errors.New("membership fee must be non-negative")
	}
	if p.ExecutionReward != nil && p.ExecutionReward.Sign() < 0 {
		return errors.New("execution reward must be non-negative")
	}
	// block times are positive int64 seconds, so StartDate+Timelock stays within uint64
	if p.Timelock == 0 || p.Timelock > math.MaxInt64 {
		return errors.New("timelock out of range")
	}
	// the EIP-712 domain carries the chain id as int64
	if p.ChainID == 0 || p.ChainID > math.MaxInt64 {
		return errors.New("chain id out of range")
	}
	if p.DomainName == "" {
		return errors.New("empty domain name")
	}
	if p.Address == (common.Address{}) {
		return errors.New("empty dao address")
	}
	if p.Deployer == (common.Address{}) {
		return errors.New("empty deployer")
	}
	return nil
}
