package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calehh/hac-dao/app"
	app_config "github.com/calehh/hac-dao/config"
	"github.com/calehh/hac-dao/indexer"
	"github.com/calehh/hac-dao/types"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dao",
	Short: "DAO governance chain",
	Long: `A membership DAO with content-addressed proposals, timelocked execution
and EIP-712 vote-by-signature, run as a CometBFT application.`,
	SilenceUsage: true,
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run the DAO node",
	Args:  cobra.NoArgs,
	RunE:  nodeRun,
}

func init() {
	nodeCmd.Flags().String(types.FlagHome, "", "home directory")
}

func nodeRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	appConfig, err := app_config.LoadConfig(home)
	if err != nil {
		return err
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node's key: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	app, err := app.NewDAOApp(appConfig.App, logger)
	if err != nil {
		log.Fatalf("new App err:%v", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(app),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("Creating node: %v", err)
	}

	app.Start(node.BlockStore())
	err = node.Start()
	if err != nil {
		log.Fatalf("start comet node err %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if appConfig.App.Indexer {
		rpcUrl, err := url.Parse(appConfig.RPC.ListenAddress)
		if err != nil {
			log.Fatalf("new parse url err %s", err.Error())
		}
		rpcUrl.Scheme = "http"
		idx, err := indexer.NewChainIndexer(logger, appConfig.App.IndexerDBPath(), rpcUrl.String())
		if err != nil {
			log.Fatalf("new chain indexer err %s", err.Error())
		}
		defer idx.Close()
		go idx.Start(ctx, appConfig.App.IndexerInterval)
		go func() {
			if err := indexer.NewService(appConfig.App.IndexerListen, idx).Start(); err != nil {
				logger.Error("indexer service stopped", "err", err)
			}
		}()
	}

	defer func() {
		log.Println("shut down...")
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			err = node.Stop()
			if err != nil {
				log.Fatalf("stop comet node err %s", err.Error())
			}
			node.Wait()
			app.Stop()
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	return nil
}
