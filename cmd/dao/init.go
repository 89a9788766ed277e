package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"math/rand"
	"os"
	"time"

	app_config "github.com/calehh/hac-dao/config"
	"github.com/calehh/hac-dao/types"
	cmtos "github.com/cometbft/cometbft/libs/os"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/spf13/cobra"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	Deployer   string          `json:"deployer" yaml:"deployer"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

const flagDeployerBalance = "deployer-balance"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, deployer key, genesis, and application configuration files",
	Long:  `Initialize validators's and node's configuration files.`,
	Args:  cobra.NoArgs,
	RunE:  initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(types.FlagHome, "", "home directory")
	initCmd.Flags().String(flagDeployerBalance, "100", "deployer genesis balance, in whole coins")
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	balanceStr, _ := cmd.Flags().GetString(flagDeployerBalance)

	if chainID == "" {
		chainID = fmt.Sprintf("dao-chain-%v", rand.Uint64())
	}
	coins, ok := new(big.Int).SetString(balanceStr, 10)
	if !ok || coins.Sign() < 0 {
		return fmt.Errorf("invalid deployer balance %q", balanceStr)
	}
	balance := new(big.Int).Mul(coins, big.NewInt(params.Ether))

	appConfig := app_config.NewDAOConfig(home)
	genFile := appConfig.GenesisFile()
	if !overwrite && cmtos.FileExists(genFile) {
		return fmt.Errorf("genesis.json file already exists: %v", genFile)
	}

	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	deployer, err := app_config.InitializeDeployer(appConfig)
	if err != nil {
		return err
	}

	appGenesis := types.AppGenesis{
		Params: types.DefaultParams(deployer.Address()),
		Balances: []types.GenesisBalance{
			{Address: deployer.Address(), Amount: balance},
		},
		Listings: []types.GenesisListing{},
	}
	appState, err := json.MarshalIndent(&appGenesis, "", "  ")
	if err != nil {
		return err
	}

	genDoc := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators: []types.GenesisValidator{
			{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower},
		},
		AppState: appState,
	}
	if err = types.ExportGenesisFile(genDoc, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file: %w", err)
	}
	if err = app_config.WriteConfigFiles(appConfig); err != nil {
		return err
	}
	return displayInfo(printInfo{
		Moniker:    appConfig.Moniker,
		ChainID:    chainID,
		NodeID:     nodeID,
		Deployer:   deployer.Address().Hex(),
		AppMessage: appState,
	})
}
