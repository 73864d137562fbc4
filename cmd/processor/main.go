// Command processor is the Lambda task that reviews one check item against
// its documents and records the result.
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
	if err := cfg.FinalizeReview(); err != nil {
		log.Fatal("config load failed: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := NewHandler(ctx, cfg)
	if err != nil {
		log.Fatal("processor init failed: ", err)
	}

	lambda.StartWithOptions(
		h.Handle,
		lambda.WithContext(ctx),
		lambda.WithEnableSIGTERM(func() {
			if err := h.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
				log.Print("shutdown failed: ", err)
			}
		}),
	)
}
