package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArunaStorage/aruna-sub004/components/proxy"
	"github.com/ArunaStorage/aruna-sub004/pkg/mconfig"
	"github.com/ArunaStorage/aruna-sub004/pkg/mzap"
)

func main() {
	var cfg proxy.Config
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

	if _, err := proxy.New(cfg); err != nil {
		logger.Errorf("failed to initialize data proxy node: %v", err)
		os.Exit(1)
	}

	logger.Info("data proxy node ready")

	<-ctx.Done()
	logger.Info("shutting down data proxy node")
}
