package main

import (
	"log"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/anderlopz/parkpass/internal/adapters/parkingapi"
	"github.com/anderlopz/parkpass/internal/adapters/sqlite"
	"github.com/anderlopz/parkpass/internal/pkg/config"
	"github.com/anderlopz/parkpass/internal/pkg/logging"
	"github.com/anderlopz/parkpass/internal/workflows"
)

// The reconciler drains the cancel-retry queue: reservations whose release
// failed against the backend while the trip already ended on the device.
func main() {
	cfg, err := config.Load("parkpass-reconciler")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	api := parkingapi.New(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.Timeout)*time.Second,
		parkingapi.StaticToken(cfg.Backend.Token),
	)

	journal, err := sqlite.Open(cfg.Journal.Path)
	if err != nil {
		log.Fatalf("journal: %v", err)
	}
	defer journal.Close()

	w := worker.New(c, workflows.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.CancelRetryWorkflow)
	w.RegisterActivity(&workflows.CancelRetryActivities{
		API:     api,
		Journal: journal,
	})

	log.Println("reconciler worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
