package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calehh/hac-dao/indexer"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/spf13/cobra"
)

type indexerArguments struct {
	Url      string
	DB       string
	Listen   string
	Interval time.Duration
}

var indexerArgs indexerArguments

var indexerCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Index a running node into sqlite and serve the indexer API",
	Args:  cobra.NoArgs,
	RunE:  indexerRun,
}

func init() {
	urlFlag(indexerCmd, &indexerArgs.Url)
	indexerCmd.Flags().StringVar(&indexerArgs.DB, "db", "indexer.db", "sqlite database file")
	indexerCmd.Flags().StringVar(&indexerArgs.Listen, "listen", "127.0.0.1:8080", "http listen address")
	indexerCmd.Flags().DurationVar(&indexerArgs.Interval, "interval", 2*time.Second, "poll interval")
}

func indexerRun(cmd *cobra.Command, args []string) error {
	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	idx, err := indexer.NewChainIndexer(logger, indexerArgs.DB, indexerArgs.Url)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go idx.Start(ctx, indexerArgs.Interval)

	errc := make(chan error, 1)
	go func() {
		errc <- indexer.NewService(indexerArgs.Listen, idx).Start()
	}()
	select {
	case <-ctx.Done():
		return nil
	case err = <-errc:
		return err
	}
}
