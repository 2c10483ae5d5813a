// Command regagent is the interactive CLI for the question answering
// pipeline. It wires the configured model provider, the pgvector corpus
// store, conversation history, and trace sinks, then answers queries from
// the command line or an interactive session.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/medlexica/regagent/agent"
	"github.com/medlexica/regagent/config"
	geminiembed "github.com/medlexica/regagent/contrib/embedder/gemini"
	openaiembed "github.com/medlexica/regagent/contrib/embedder/openai"
	"github.com/medlexica/regagent/contrib/provider/claude"
	"github.com/medlexica/regagent/contrib/provider/gemini"
	"github.com/medlexica/regagent/contrib/provider/openai"
	"github.com/medlexica/regagent/contrib/vector/pg"
	"github.com/medlexica/regagent/llm"
	"github.com/medlexica/regagent/middleware"
	"github.com/medlexica/regagent/pkg/logging"
	"github.com/medlexica/regagent/pkg/telemetry"
	"github.com/medlexica/regagent/planner"
	"github.com/medlexica/regagent/retrievers"
	"github.com/medlexica/regagent/router"
	"github.com/medlexica/regagent/session"
	"github.com/medlexica/regagent/tokenizer"
	"github.com/medlexica/regagent/trace"
	"github.com/medlexica/regagent/vector"
)

// embeddingDimension is the width of the corpus index. Both embedding
// backends are configured to produce vectors of this size.
const embeddingDimension = 768

func main() {
	persona := flag.String("persona", agent.PersonaAutomatic,
		"persona key (clinical_analyst, health_economist, regulatory_specialist) or automatic")
	sessionID := flag.String("session", "", "Redis session ID; empty keeps history in memory only")
	query := flag.String("q", "", "one-shot query; empty starts an interactive session")
	traceFile := flag.String("trace-file", "", "trace log path, overrides REGAGENT_TRACE_PATH")
	flag.Parse()

	logger := logging.WithComponent("cli")
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	if *traceFile != "" {
		cfg.TracePath = *traceFile
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "regagent",
		ServiceVersion: "v1.0.0",
		Environment:    "production",
	})
	if err != nil {
		logger.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}
	defer shutdown(context.Background())

	reasoningModel, synthesisModel, err := buildModels(ctx, cfg)
	if err != nil {
		logger.Error("failed to build model clients", "error", err)
		os.Exit(1)
	}

	rt, err := buildRouter(ctx, cfg)
	if err != nil {
		logger.Error("failed to build tool router", "error", err)
		os.Exit(1)
	}

	weights, err := config.LoadWeightTable(cfg.WeightTablePath)
	if err != nil {
		logger.Error("failed to load weight table", "error", err)
		os.Exit(1)
	}

	opts := []agent.Option{
		agent.WithToolPlanner(planner.NewToolPlanner(weights, cfg.CoverageThreshold)),
		agent.WithTraceSink(buildTraceSinks(cfg, logger)),
	}
	if tok, err := tokenizer.New("cl100k_base"); err == nil {
		opts = append(opts, agent.WithTokenBudget(tok, cfg.EvidenceTokenBudget))
	} else {
		logger.Warn("tokenizer unavailable, evidence truncation disabled", "error", err)
	}

	a := agent.New(reasoningModel, synthesisModel, rt, opts...)
	history := buildHistory(cfg, *sessionID)

	if *query != "" {
		fmt.Println(ask(ctx, a, history, *query, *persona))
		return
	}

	fmt.Println("regagent interactive session. Type a question, or 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}
		fmt.Println(ask(ctx, a, history, line, *persona))
		fmt.Println()
	}
}

func ask(ctx context.Context, a *agent.Agent, history session.History, query, persona string) string {
	logger := logging.WithComponent("cli")

	turns, err := history.Turns(ctx)
	if err != nil {
		logger.Warn("failed to read conversation history", "error", err)
	}

	answer := a.Run(ctx, query, persona, session.Lines(turns))

	if err := history.Append(ctx,
		session.Turn{Role: session.RoleUser, Content: query},
		session.Turn{Role: session.RoleAssistant, Content: answer},
	); err != nil {
		logger.Warn("failed to record conversation turn", "error", err)
	}
	return answer
}

func buildModels(ctx context.Context, cfg *config.Config) (reasoning, synthesis llm.Client, err error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		proCfg := gemini.DefaultConfig(cfg.GeminiAPIKey)
		if cfg.ReasoningModel != "" {
			proCfg.Model = cfg.ReasoningModel
		}
		pro, err := gemini.New(ctx, proCfg)
		if err != nil {
			return nil, nil, err
		}
		flashCfg := gemini.FlashConfig(cfg.GeminiAPIKey)
		if cfg.SynthesisModel != "" {
			flashCfg.Model = cfg.SynthesisModel
		}
		flash, err := gemini.New(ctx, flashCfg)
		if err != nil {
			return nil, nil, err
		}
		return pro, flash, nil

	case config.ProviderOpenAI:
		proCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.ReasoningModel != "" {
			proCfg.Model = cfg.ReasoningModel
		}
		flashCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.SynthesisModel != "" {
			flashCfg.Model = cfg.SynthesisModel
		}
		return openai.New(proCfg), openai.New(flashCfg), nil

	case config.ProviderClaude:
		proCfg := claude.DefaultConfig(cfg.AnthropicAPIKey)
		if cfg.ReasoningModel != "" {
			proCfg.Model = cfg.ReasoningModel
		}
		flashCfg := claude.DefaultConfig(cfg.AnthropicAPIKey)
		if cfg.SynthesisModel != "" {
			flashCfg.Model = cfg.SynthesisModel
		}
		return claude.New(proCfg), claude.New(flashCfg), nil
	}
	return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// buildEmbedder picks the embedding backend matching the configured model
// provider. Claude has no embeddings API, so that provider falls back to
// whichever embedding key is present.
func buildEmbedder(ctx context.Context, cfg *config.Config) (vector.Embedder, error) {
	switch {
	case cfg.Provider == config.ProviderOpenAI,
		cfg.Provider == config.ProviderClaude && cfg.GeminiAPIKey == "":
		return openaiembed.New(cfg.OpenAIAPIKey, "", "", embeddingDimension)
	default:
		return geminiembed.New(ctx, cfg.GeminiAPIKey, "", embeddingDimension)
	}
}

func buildRouter(ctx context.Context, cfg *config.Config) (*router.Router, error) {
	logger := logging.WithComponent("cli")

	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	store, err := pg.New(&pg.Config{
		Host:      cfg.PostgresHost,
		Port:      cfg.PostgresPort,
		User:      cfg.PostgresUser,
		Password:  cfg.PostgresPassword,
		DBName:    cfg.PostgresDB,
		SSLMode:   cfg.PostgresSSLMode,
		Dimension: embeddingDimension,
		TableName: "corpus_chunks",
	}, embedder)
	if err != nil {
		return nil, fmt.Errorf("corpus store: %w", err)
	}

	vectorOpts := []retrievers.VectorOption{retrievers.WithTopK(cfg.TopK)}
	if cfg.NamespaceMapPath != "" {
		nsMap, err := retrievers.LoadNamespaceMap(cfg.NamespaceMapPath)
		if err != nil {
			return nil, fmt.Errorf("namespace map: %w", err)
		}
		vectorOpts = append(vectorOpts, retrievers.WithNamespaceMap(nsMap))
	}

	wrap := middleware.Chain(
		middleware.Logging(logging.WithComponent("tools")),
		middleware.Concurrency(4),
		middleware.Timeout(30*time.Second),
	)

	rt := router.New()
	rt.Register(planner.ToolVectorSearch, wrap(retrievers.NewVectorTool(store, vectorOpts...).Run))
	// The graph database port has no driver wired in this build; planned
	// graph_query calls degrade to failed results and the pipeline falls
	// back to vector search.
	logger.Warn("knowledge graph port not configured, graph_query disabled")
	return rt, nil
}

func buildTraceSinks(cfg *config.Config, logger *slog.Logger) trace.Sink {
	sinks := trace.MultiSink{trace.NewJSONLSink(cfg.TracePath)}
	if cfg.MongoURI != "" {
		mongoSink, err := trace.NewMongoSink(&trace.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   "regagent",
			Collection: "traces",
		})
		if err != nil {
			logger.Warn("mongo trace sink unavailable", "error", err)
		} else {
			sinks = append(sinks, mongoSink)
		}
	}
	return sinks
}

func buildHistory(cfg *config.Config, sessionID string) session.History {
	if sessionID == "" {
		return session.NewInMemoryHistory(cfg.SessionTurns)
	}
	redisCfg := session.DefaultRedisConfig()
	redisCfg.Addr = cfg.RedisAddr
	redisCfg.Password = cfg.RedisPassword
	redisCfg.DB = cfg.RedisDB
	return session.NewRedisHistory(redisCfg, sessionID, cfg.SessionTurns)
}
