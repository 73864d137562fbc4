// Command dispatcher admits queued review jobs into the review workflow.
// It runs as an SQS-triggered Lambda or as a long-polling service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/JaimeStill/rapid/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatal("env file load failed: ", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}
	if err := cfg.FinalizeAdmission(); err != nil {
		log.Fatal("config load failed: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := NewDispatcher(ctx, cfg)
	if err != nil {
		log.Fatal("dispatcher init failed: ", err)
	}

	if cfg.Admission.Mode == config.ModeLambda {
		lambda.StartWithOptions(d.LambdaHandler(), lambda.WithContext(ctx))
		return
	}

	if err := d.Start(); err != nil {
		log.Fatal("dispatcher start failed: ", err)
	}

	<-ctx.Done()

	if err := d.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		log.Fatal("shutdown failed: ", err)
	}
}
