package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	driftlenscmder "github.com/papercomputeco/driftlens/cmd/driftlens"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := driftlenscmder.NewDriftlensCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
