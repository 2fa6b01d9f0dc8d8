package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	runner := NewRunner(RunnerOpts{Lookup: os.LookupEnv})
	err := runner.app().Run(ctx, os.Args)

	stop()

	if err != nil {
		runner.logger.Fatalf("application error: %v", err)
	}
	runner.Close()
}
