package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

type Runner func(ctx context.Context) error

// Run executes one job run with signal-aware cancellation and maps the
// outcome to a process exit code. The exit code is the worker's contract
// with the scheduler: 0 means the job is fully complete, anything else
// means the scheduler decides whether to redrive.
func Run(serviceName string, run Runner) int {
	log.Printf("%s starting", serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		log.Printf("%s failed: %v", serviceName, err)
		return 1
	}

	log.Printf("%s finished", serviceName)
	return 0
}
