package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const MethodBuyNft = "buyNft"

const selfABIJSON = `[
	{"type":"function","name":"buyNft","stateMutability":"nonpayable","inputs":[
		{"name":"marketplace","type":"address"},
		{"name":"nftContract","type":"address"},
		{"name":"nftId","type":"uint256"},
		{"name":"price","type":"uint256"}
	],"outputs":[]}
]`

// SelfABI describes the privileged methods reachable only through an ActionSelfCall.
var SelfABI abi.ABI

var ErrUnknownSelfCall = errors.New("unknown self call")

func init() {
	var err error
	SelfABI, err = abi.JSON(strings.NewReader(selfABIJSON))
	if err != nil {
		panic(err)
	}
}

type BuyNftArgs struct {
	Marketplace common.Address
	NftContract common.Address
	NftID       *big.Int
	Price       *big.Int
}

func EncodeBuyNft(args BuyNftArgs) ([]byte, error) {
	return SelfABI.Pack(MethodBuyNft, args.Marketplace, args.NftContract, args.NftID, args.Price)
}

// DecodeSelfCall returns the method name and decoded arguments of a self-call payload.
func DecodeSelfCall(payload []byte) (method string, args any, err error) {
	if len(payload) < 4 {
		return "", nil, ErrUnknownSelfCall
	}
	m, err := SelfABI.MethodById(payload[:4])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnknownSelfCall, err)
	}
	vals, err := m.Inputs.Unpack(payload[4:])
	if err != nil {
		return "", nil, err
	}
	switch m.Name {
	case MethodBuyNft:
		if len(vals) != 4 {
			return "", nil, fmt.Errorf("buyNft: want 4 arguments, got %d", len(vals))
		}
		a := BuyNftArgs{}
		var ok1, ok2, ok3, ok4 bool
		a.Marketplace, ok1 = vals[0].(common.Address)
		a.NftContract, ok2 = vals[1].(common.Address)
		a.NftID, ok3 = vals[2].(*big.Int)
		a.Price, ok4 = vals[3].(*big.Int)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return "", nil, errors.New("buyNft: malformed arguments")
		}
		return m.Name, a, nil
	}
	return "", nil, ErrUnknownSelfCall
}
