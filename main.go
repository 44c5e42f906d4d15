package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v9"

	"github.com/dkovalev/gemini-relay/pkg/api/handler"
	"github.com/dkovalev/gemini-relay/pkg/auth"
	"github.com/dkovalev/gemini-relay/pkg/domain"
	"github.com/dkovalev/gemini-relay/pkg/gemini"
	"github.com/dkovalev/gemini-relay/pkg/logger"
	"github.com/dkovalev/gemini-relay/pkg/workers"
)

type Config struct {
	GeminiAPIKeys     []string `env:"GEMINI_API_KEYS,required" envSeparator:" "`
	GeminiModel       string   `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	SystemInstruction string   `env:"SYSTEM_INSTRUCTION"`
	HTTPPort          string   `env:"HTTP_PORT" envDefault:"8080"`
	APIAuthTokens     []string `env:"API_AUTH_TOKENS" envSeparator:" "`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	workerGroup, err := setupWorkers()
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

func setupWorkers() (workers.Group, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	geminiClient, err := gemini.NewClient(cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	dispatcher := gemini.NewDispatcher(geminiClient)
	dispatchConfig := domain.DispatchConfig{
		Credentials:       cfg.GeminiAPIKeys,
		SystemInstruction: cfg.SystemInstruction,
	}

	chatHandler := handler.NewChat(dispatcher, dispatchConfig)
	authenticator := auth.NewAuthenticator(cfg.APIAuthTokens)

	var workerGroup workers.Group

	apiServer, err := workers.NewAPIServer(cfg.HTTPPort, authenticator, chatHandler.GenerateReply)
	if err != nil {
		return nil, fmt.Errorf("creating api server: %w", err)
	}
	workerGroup = append(workerGroup, apiServer)

	return workerGroup, nil
}
