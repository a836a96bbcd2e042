// Command subscribedemo wires the subscribe engine, the reference
// WebSocket transport, and a console listener together against a
// configuration file, and runs until it receives a shutdown signal.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"subscribecore/internal/config"
	"subscribecore/internal/filterexpr"
	"subscribecore/internal/subscribe"
	"subscribecore/internal/transport"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	brokerURL := flag.String("broker", "ws://localhost:8080/subscribe", "broker WebSocket URL")
	channels := flag.String("channels", "", "comma-separated channels to subscribe to at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info().
		Str("config", *configPath).
		Str("broker", *brokerURL).
		Str("uuid", cfg.UUID).
		Msg("starting subscribedemo")

	if err := validateFilterExpression(cfg.FilterExpression, logger); err != nil {
		logger.Fatal().Err(err).Msg("invalid filter expression")
	}

	ws := transport.New(*brokerURL, 60*time.Second, 3*time.Second, 20*time.Second, logger)
	if err := ws.Connect(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to broker")
	}
	defer ws.Close()

	sink := newConsoleSink(logger)
	engine := subscribe.New(cfg, subscribe.Collaborators{
		Transport:  ws,
		Heartbeat:  noopHeartbeat{},
		StateStore: newMemoryStateStore(),
		Sink:       sink,
	}, logger)

	if names := splitNonEmpty(*channels); len(names) > 0 {
		engine.AddChannels(names)
		engine.Subscribe(context.Background(), true, nil, nil, nil, nil)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	engine.Close()
}

func validateFilterExpression(expr string, logger zerolog.Logger) error {
	v, err := filterexpr.New(logger)
	if err != nil {
		return err
	}
	return v.Validate(expr)
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			if i > start {
				out = append(out, csv[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// setupLogger configures the zerolog logger.
func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
