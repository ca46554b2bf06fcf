package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/movieweb/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	code := cli.New(os.Stdout, os.Stderr).Execute(ctx, os.Args[1:])

	stop()
	os.Exit(code)
}
