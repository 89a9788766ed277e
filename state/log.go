package state

import (
	cosmoslog "cosmossdk.io/log"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// treeLogger lets the iavl tree log through the node's logger.
type treeLogger struct {
	logger cmtlog.Logger
}

func Cometbft2CosmosLogger(lg cmtlog.Logger) cosmoslog.Logger {
	return treeLogger{logger: lg.With("store", "iavl")}
}

func (l treeLogger) Info(msg string, keyVals ...any) {
	l.logger.Info(msg, keyVals...)
}

// Warn has no cometbft level of its own.
func (l treeLogger) Warn(msg string, keyVals ...any) {
	l.logger.Info(msg, append(keyVals, "level", "warn")...)
}

func (l treeLogger) Error(msg string, keyVals ...any) {
	l.logger.Error(msg, keyVals...)
}

func (l treeLogger) Debug(msg string, keyVals ...any) {
	l.logger.Debug(msg, keyVals...)
}

func (l treeLogger) With(keyVals ...any) cosmoslog.Logger {
	return treeLogger{l.logger.With(keyVals...)}
}

func (l treeLogger) Impl() any {
	return l.logger
}
