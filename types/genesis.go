package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/ethereum/go-ethereum/common"
)

// GenesisValidator is one entry of the fixed validator set written by init.
type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
}

// GenesisDoc is the subset of the CometBFT genesis file the DAO writes.
// AppState holds an AppGenesis.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppState        json.RawMessage           `json:"app_state"`
}

// Validate checks the chain settings and the embedded governance genesis,
// defaulting the initial height to 1.
func (gd *GenesisDoc) Validate() error {
	if gd.ChainID == "" {
		return errors.New("empty chain id")
	}
	if gd.InitialHeight < 0 {
		return fmt.Errorf("negative initial height %v", gd.InitialHeight)
	}
	if gd.InitialHeight == 0 {
		gd.InitialHeight = 1
	}
	if len(gd.Validators) == 0 {
		return errors.New("no validators")
	}
	var app AppGenesis
	if err := json.Unmarshal(gd.AppState, &app); err != nil {
		return fmt.Errorf("app state: %w", err)
	}
	return app.ValidateBasic()
}

// ExportGenesisFile validates genesis and writes it to genFile.
func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.Validate(); err != nil {
		return err
	}
	dat, err := cmtjson.MarshalIndent(genesis, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(genFile, dat, 0o600)
}

// AppGenesis is the app_state section of the genesis file.
type AppGenesis struct {
	Params   Params           `json:"params"`
	Balances []GenesisBalance `json:"balances"`
	Listings []GenesisListing `json:"listings"`
}

type GenesisBalance struct {
	Address common.Address `json:"address"`
	Amount  *big.Int       `json:"amount"`
}

// GenesisListing seeds an item for sale on a marketplace collaborator.
type GenesisListing struct {
	Marketplace  common.Address `json:"marketplace"`
	ItemContract common.Address `json:"itemContract"`
	ItemID       *big.Int       `json:"itemId"`
	Price        *big.Int       `json:"price"`
	Seller       common.Address `json:"seller"`
}

func (g *AppGenesis) ValidateBasic() error {
	if err := g.Params.ValidateBasic(); err != nil {
		return err
	}
	for _, b := range g.Balances {
		if b.Amount == nil || b.Amount.Sign() < 0 {
			return fmt.Errorf("invalid balance for %v", b.Address)
		}
	}
	for _, l := range g.Listings {
		if l.ItemID == nil || l.Price == nil || l.Price.Sign() < 0 {
			return fmt.Errorf("invalid listing on %v", l.Marketplace)
		}
	}
	return nil
}

const DefaultPower = 1000
