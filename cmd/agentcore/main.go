// SPDX-License-Identifier: Apache-2.0

// Command agentcore boots the orchestration core and serves an
// interactive session on stdin. Each line is one request; responses
// are printed as JSON so the binary doubles as a smoke-test harness
// for the full pipeline.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/maarifa/agentcore/pkg/agent"
	"github.com/maarifa/agentcore/pkg/cache"
	"github.com/maarifa/agentcore/pkg/config"
	"github.com/maarifa/agentcore/pkg/core"
	"github.com/maarifa/agentcore/pkg/intent"
	"github.com/maarifa/agentcore/pkg/llm"
	"github.com/maarifa/agentcore/pkg/memory"
	"github.com/maarifa/agentcore/pkg/planner"
	"github.com/maarifa/agentcore/pkg/policy"
	"github.com/maarifa/agentcore/pkg/telemetry"
	"github.com/maarifa/agentcore/pkg/tools"
)

const (
	serviceName    = "agentcore"
	serviceVersion = "0.1.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "agentcore:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		role       = flag.String("role", "student", "role for stdin requests (guest, student, instructor, admin)")
		locale     = flag.String("locale", "ar", "response locale (ar, en)")
		sessionID  = flag.String("session", "local", "session id for stdin requests")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitWithConfig(serviceName, serviceVersion, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	provider, err := buildProvider(cfg.LLM)
	if err != nil {
		return err
	}

	store := cache.NewStore(cache.StoreConfig{
		ResponseCapacity:  cfg.Cache.ResponseCapacity,
		RetrievalCapacity: cfg.Cache.RetrievalCapacity,
		ToolCapacity:      cfg.Cache.ToolCapacity,
		SessionCapacity:   cfg.Cache.SessionCapacity,
		ResponseTTL:       cfg.Cache.ResponseTTL,
		RetrievalTTL:      cfg.Cache.RetrievalTTL,
		ToolTTL:           cfg.Cache.ToolTTL,
	})

	audit, closeAudit, err := buildAuditStore(cfg.Audit)
	if err != nil {
		return err
	}
	defer closeAudit()

	history, closeHistory, err := buildHistory(cfg.Audit)
	if err != nil {
		return err
	}
	defer closeHistory()

	retriever, closeRetriever, err := buildRetriever(ctx, cfg.Memory, logger)
	if err != nil {
		return err
	}
	defer closeRetriever()

	metrics, err := telemetry.NewRequestMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	registry := tools.NewRegistry()
	if err := agent.RegisterBuiltins(registry, agent.BuiltinDeps{
		Provider:  provider,
		Retriever: retriever,
		Store:     store,
		History:   history,
		Audit:     audit,
	}); err != nil {
		return fmt.Errorf("register capabilities: %w", err)
	}

	a := agent.New(registry, provider,
		agent.WithPolicyEngine(policy.NewEngine(policy.RateLimitConfig{
			Window:           cfg.Policy.RateWindow,
			AuthenticatedMax: cfg.Policy.AuthenticatedMax,
			GuestMax:         cfg.Policy.GuestMax,
		})),
		agent.WithFeatureFlags(intent.FeatureFlags{DamageAssessment: cfg.Features.DamageAssessment}),
		agent.WithCacheStore(store),
		agent.WithHistory(history),
		agent.WithAuditStore(audit),
		agent.WithMetrics(metrics),
		agent.WithEventEmitter(telemetry.NewLogEmitter(logger)),
		agent.WithLogger(logger),
	)

	if cfg.Intent.LexiconPath != "" {
		lex, err := intent.LoadLexicon(cfg.Intent.LexiconPath)
		if err != nil {
			return err
		}
		lex.Apply(a.Classifier())
		logger.Info("intent lexicon loaded", "path", cfg.Intent.LexiconPath)
	}

	logger.Info("agentcore ready",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"role", *role,
		"features.damage_assessment", cfg.Features.DamageAssessment)

	return serveStdin(ctx, a, core.Role(*role), *locale, *sessionID)
}

// serveStdin reads one request per line until EOF or signal.
func serveStdin(ctx context.Context, a *agent.Agent, role core.Role, locale, sessionID string) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			resp := a.HandleRequest(ctx, agent.Request{
				Message:   line,
				SessionID: sessionID,
				UserID:    sessionID,
				Role:      role,
				Locale:    locale,
			})
			if err := enc.Encode(resp); err != nil {
				return err
			}
		}
	}
}

func buildProvider(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "", "ollama":
		return llm.NewOllama(cfg.BaseURL, cfg.Model), nil
	case "mock":
		return &llm.MockProvider{Response: "mock response"}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func buildAuditStore(cfg config.AuditConfig) (planner.AuditStore, func(), error) {
	switch cfg.Backend {
	case "", "memory":
		return planner.NewMemoryAuditStore(), func() {}, nil
	case "sqlite":
		s, err := planner.OpenSQLiteAuditStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit store: %w", err)
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

// buildHistory keys off the audit backend: when the deployment persists
// audit entries it persists conversation turns alongside them.
func buildHistory(cfg config.AuditConfig) (memory.History, func(), error) {
	if cfg.Backend != "sqlite" {
		return memory.NewInMemoryHistory(), func() {}, nil
	}
	h, err := memory.NewSQLiteHistory(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open history store: %w", err)
	}
	return h, func() { h.Close() }, nil
}

func buildRetriever(ctx context.Context, cfg config.MemoryConfig, logger *slog.Logger) (*memory.Retriever, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}

	embedder := memory.NewHTTPEmbedder(cfg.EmbedderBaseURL, cfg.EmbedderModel)

	var (
		store   memory.VectorStore
		cleanup = func() {}
	)
	switch cfg.Provider {
	case "qdrant":
		qs, err := memory.NewQdrantStore(cfg.QdrantAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect qdrant: %w", err)
		}
		store = qs
		cleanup = func() { qs.Close() }
	case "", "inmemory":
		store = memory.NewInMemoryVectorStore()
	default:
		return nil, nil, fmt.Errorf("unknown memory provider %q", cfg.Provider)
	}

	r := memory.NewRetriever(store, embedder, cfg.Collection)
	if err := r.Init(ctx, cfg.VectorSize); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("init retriever collection: %w", err)
	}
	logger.Info("retrieval enabled", "provider", cfg.Provider, "collection", cfg.Collection)
	return r, cleanup, nil
}
