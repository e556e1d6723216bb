package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/matiasleandrokruk/statsmcp/internal/api"
	"github.com/matiasleandrokruk/statsmcp/internal/domain/dataset"
	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/config"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/eventbus"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/quote"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/tracing"
	"github.com/matiasleandrokruk/statsmcp/internal/version"
)

// App is the fully wired service.
type App struct {
	Server     *Server
	Dispatcher *tool.Dispatcher
	Dataset    *dataset.Dataset
	Bus        *eventbus.Bus
}

// BuildOptions overrides collaborators, mainly for tests.
type BuildOptions struct {
	// Quotes replaces the Alpha Vantage provider.
	Quotes quote.Provider
	// TraceWriter receives exported spans when tracing is enabled; stderr by default.
	TraceWriter io.Writer
}

// Build validates cfg, loads the dataset and wires every tool surface.
// A missing API key fails with config.ErrConfigMissing before anything is
// loaded.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts BuildOptions) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	traceWriter := opts.TraceWriter
	if traceWriter == nil {
		traceWriter = os.Stderr
	}
	shutdownTracing, err := tracing.Setup(tracing.Options{
		Enabled:        cfg.TracingEnabled,
		Writer:         traceWriter,
		ServiceName:    api.ServerName,
		ServiceVersion: version.Version,
	})
	if err != nil {
		return nil, err
	}

	ds, err := dataset.Load(ctx, cfg.DatasetPath, dataset.Options{Table: cfg.DatasetTable})
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	summary := ds.Summarize()
	logger.Info("dataset loaded", "source", ds.Source(), "rows", summary.RowCount, "columns", summary.ColumnCount)

	quotes := opts.Quotes
	if quotes == nil {
		quotes = quote.NewAlphaVantageProvider(cfg.AlphaVantageAPIKey,
			quote.WithBaseURL(cfg.AlphaVantageBaseURL),
			quote.WithInterval(cfg.AlphaVantageInterval),
			quote.WithTimeout(cfg.QuoteTimeout),
		)
	}

	registry := tool.NewToolRegistry()
	if err := tool.RegisterBuiltins(registry, tool.BuiltinServices{Dataset: ds, Quotes: quotes}); err != nil {
		ds.Close()
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("register tools: %w", err)
	}

	bus := eventbus.New()
	go logInvocations(logger, bus.Subscribe(tool.TopicToolInvoked))

	dispatcher := tool.NewDispatcher(registry, tool.WithEventBus(bus))

	router := api.NewRouter(api.Dependencies{
		Dispatcher: dispatcher,
		Dataset:    ds,
		Logger:     logger,
		Version:    version.Version,
	})

	srv := NewServer(router, Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     DefaultConfig().ReadTimeout,
		IdleTimeout:     DefaultConfig().IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Reverse order on shutdown: the bus closes first, tracing flushes last.
	srv.OnShutdown(func(ctx context.Context) error { return shutdownTracing(ctx) })
	srv.OnShutdown(func(context.Context) error { return ds.Close() })
	srv.OnShutdown(func(context.Context) error {
		if n := bus.Dropped(); n > 0 {
			logger.Warn("invocation records dropped", "count", n)
		}
		bus.Close()
		return nil
	})

	logger.Info("tools registered", "count", len(registry.List()))
	return &App{Server: srv, Dispatcher: dispatcher, Dataset: ds, Bus: bus}, nil
}

// logInvocations logs one line per invocation record until the bus closes.
func logInvocations(logger *slog.Logger, records <-chan eventbus.Event) {
	for evt := range records {
		rec, ok := evt.Payload.(tool.InvocationRecord)
		if !ok {
			continue
		}
		attrs := []any{
			"invocation_id", rec.ID,
			"tool", rec.Tool,
			"outcome", string(rec.Outcome),
			"duration_ms", rec.Duration.Milliseconds(),
		}
		if rec.Subject != "" {
			attrs = append(attrs, "subject", rec.Subject)
		}
		if rec.ErrorKind != "" {
			logger.Warn("tool invocation failed", append(attrs, "error_kind", string(rec.ErrorKind))...)
			continue
		}
		logger.Info("tool invocation", attrs...)
	}
}
