package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanqian/phytocast/internal/interface/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.New().ExecuteContext(ctx); err != nil {
		log.Printf("phytoctl: %v", err)
		stop()
		os.Exit(1)
	}
}
