package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArunaStorage/aruna-sub004/components/server"
	"github.com/ArunaStorage/aruna-sub004/pkg/mconfig"
	"github.com/ArunaStorage/aruna-sub004/pkg/mzap"
)

func main() {
	var cfg server.Config
	if err := mconfig.Load(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var logger *mzap.Logger
	var logErr error
	if cfg.Development {
		logger, logErr = mzap.NewDevelopment()
	} else {
		logger, logErr = mzap.New()
	}
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", logErr)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("failed to initialize control-plane node: %v", err)
		os.Exit(1)
	}
	defer node.Close()

	logger.Infof("control-plane node %s ready, listening on %s", cfg.NodeID, cfg.BindAddr)

	<-ctx.Done()
	logger.Info("shutting down control-plane node")
}
