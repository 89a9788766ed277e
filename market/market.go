// Package market is an in-chain NFT marketplace. The DAO can only buy from it
// through the buyNft self call of an executed proposal.
package market

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

const Kind = "market"

var (
	ErrNotListed       = errors.New("item not listed")
	ErrAlreadySold     = errors.New("item already sold")
	ErrPriceMismatch   = errors.New("price mismatch")
	ErrUnsupportedCall = errors.New("marketplace accepts plain transfers only")
)

type Listing struct {
	ItemContract common.Address `json:"itemContract"`
	ItemID       *big.Int       `json:"itemId"`
	Seller       common.Address `json:"seller"`
	Price        *big.Int       `json:"price"`
	Owner        common.Address `json:"owner"`
	Sold         bool           `json:"sold"`
}

var _ state.Marketplace = &Marketplace{}

type Marketplace struct {
	logger cmtlog.Logger
}

func New(logger cmtlog.Logger) *Marketplace {
	return &Marketplace{logger: logger.With("module", "market")}
}

func listingKey(itemContract common.Address, itemID *big.Int) []byte {
	return []byte(fmt.Sprintf("l%x/%s", itemContract.Bytes(), itemID.String()))
}

func GetListing(store state.KVStore, itemContract common.Address, itemID *big.Int) (*Listing, error) {
	dat, err := store.Get(listingKey(itemContract, itemID))
	if err != nil {
		return nil, err
	}
	if len(dat) == 0 {
		return nil, nil
	}
	l := new(Listing)
	if err = rlp.DecodeBytes(dat, l); err != nil {
		return nil, err
	}
	return l, nil
}

func putListing(store state.KVStore, l *Listing) error {
	dat, err := rlp.EncodeToBytes(l)
	if err != nil {
		return err
	}
	return store.Set(listingKey(l.ItemContract, l.ItemID), dat)
}

// Seed lists an item for sale, owned by its seller.
func Seed(store state.KVStore, l types.GenesisListing) error {
	return putListing(store, &Listing{
		ItemContract: l.ItemContract,
		ItemID:       l.ItemID,
		Seller:       l.Seller,
		Price:        l.Price,
		Owner:        l.Seller,
	})
}

func (m *Marketplace) Call(ctx context.Context, env *state.CallEnv, value *big.Int, payload []byte) error {
	if len(payload) != 0 {
		return ErrUnsupportedCall
	}
	return nil
}

// Purchase settles a sale whose price has already been paid to the marketplace.
func (m *Marketplace) Purchase(ctx context.Context, env *state.CallEnv, itemContract common.Address, itemID, price *big.Int) error {
	l, err := GetListing(env.Store, itemContract, itemID)
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("%w: %v #%v", ErrNotListed, itemContract, itemID)
	}
	if l.Sold {
		return fmt.Errorf("%w: %v #%v", ErrAlreadySold, itemContract, itemID)
	}
	if l.Price.Cmp(price) != 0 {
		return fmt.Errorf("%w: listed %v, offered %v", ErrPriceMismatch, l.Price, price)
	}
	l.Sold = true
	l.Owner = env.Sender
	if err = putListing(env.Store, l); err != nil {
		return err
	}
	m.logger.Info("item sold", "contract", itemContract, "id", itemID, "buyer", env.Sender, "price", price)
	return env.Transfer(l.Seller, price)
}
