package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	webAdapter "portfolio-agent/internal/adapters/web"
	"portfolio-agent/internal/ai"
	"portfolio-agent/internal/app"
	"portfolio-agent/internal/core"
	"portfolio-agent/internal/db"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rows, err := db.LoadLedger(ctx, pool)
	if err != nil {
		logger.Fatal("ledger load", zap.Error(err))
	}
	ds, err := core.NewDataset(rows)
	if err != nil {
		logger.Fatal("dataset", zap.Error(err))
	}
	logger.Info("ledger loaded",
		zap.Int("rows", ds.Len()),
		zap.Int("properties", len(ds.Properties())))

	validator := core.NewValidator(
		core.WithFuzzyThreshold(envFloat("FUZZY_THRESHOLD", core.DefaultFuzzyThreshold)),
		core.WithTieMargin(envFloat("FUZZY_TIE_MARGIN", core.DefaultFuzzyTieMargin)),
		core.WithMaxSuggestions(envInt("FUZZY_MAX_SUGGESTIONS", core.DefaultMaxSuggestions)),
	)

	pipelineOpts := []core.PipelineOption{
		core.WithMinConfidence(envFloat("INTENT_MIN_CONFIDENCE", core.DefaultMinConfidence)),
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent := ai.NewAgent(apiKey, os.Getenv("OPENAI_MODEL"))
		pipelineOpts = append(pipelineOpts,
			core.WithClassifier(ai.NewHybridClassifier(agent, core.NewRuleClassifier(), logger)),
			core.WithExtractor(ai.NewHybridExtractor(agent, core.NewRuleExtractor(), logger)),
		)
		logger.Info("model-backed routing enabled")
	} else {
		logger.Info("OPENAI_API_KEY not set, using rule-based routing")
	}

	pipeline := core.NewPipeline(ds, validator, pipelineOpts...)
	svc := app.NewAppService(ds, pipeline, app.WithClock(time.Now))

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, logger)

	logger.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
