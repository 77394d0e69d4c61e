package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/toolroom-io/scanbridge/cmd/scanbridge/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.NewScanBridgeCommand(ctx).Execute(); err != nil {
		os.Exit(1)
	}
}
