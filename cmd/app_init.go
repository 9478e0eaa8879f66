package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/metal-lca/internal/aggregate"
	"github.com/sells-group/metal-lca/internal/compute"
	"github.com/sells-group/metal-lca/internal/factors"
	"github.com/sells-group/metal-lca/internal/pipeline"
	"github.com/sells-group/metal-lca/internal/predict"
	"github.com/sells-group/metal-lca/internal/resolver"
	"github.com/sells-group/metal-lca/internal/scenario"
	"github.com/sells-group/metal-lca/internal/stage"
	"github.com/sells-group/metal-lca/internal/store"
	"github.com/sells-group/metal-lca/internal/threshold"
	anthropicpkg "github.com/sells-group/metal-lca/pkg/anthropic"
)

// appEnv holds the loaded tables, store and services shared by the
// serve/stage/aggregate/scenario/export commands.
type appEnv struct {
	Store      store.Store
	Catalog    *stage.Catalog
	Thresholds *threshold.Table
	Factors    *factors.Table
	Evaluator  *pipeline.Evaluator
	Pipeline   *pipeline.Pipeline
	Aggregator *aggregate.Aggregator
	Scenarios  *scenario.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// tables bundles the read-only lookup tables loaded at startup.
type tables struct {
	Thresholds *threshold.Table
	Factors    *factors.Table
	Engine     *compute.Engine
}

// loadTables reads the threshold and emission factor tables (embedded unless
// overridden) and checks every factor a stage formula references is present.
func loadTables() (*tables, error) {
	var (
		tt  *threshold.Table
		ft  *factors.Table
		err error
	)

	if cfg.Tables.ThresholdsPath != "" {
		tt, err = threshold.Load(cfg.Tables.ThresholdsPath)
	} else {
		tt, err = threshold.Default()
	}
	if err != nil {
		return nil, eris.Wrap(err, "load threshold table")
	}

	if cfg.Tables.FactorsPath != "" {
		ft, err = factors.Load(cfg.Tables.FactorsPath)
	} else {
		ft, err = factors.Default()
	}
	if err != nil {
		return nil, eris.Wrap(err, "load emission factor table")
	}

	engine, err := compute.NewEngine(ft)
	if err != nil {
		return nil, err
	}

	return &tables{Thresholds: tt, Factors: ft, Engine: engine}, nil
}

// initPredictor returns the Anthropic-backed predictor, or the disabled one
// when no API key is configured.
func initPredictor() predict.Predictor {
	if cfg.Anthropic.Key == "" {
		zap.L().Debug("LCA_ANTHROPIC_KEY not set, AI prediction disabled")
		return predict.Disabled{}
	}

	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	zap.L().Info("ai prediction enabled", zap.String("model", cfg.Anthropic.Model))
	return predict.NewAnthropicPredictor(client, predict.Config{
		Model:           cfg.Anthropic.Model,
		MaxTokens:       cfg.Anthropic.MaxTokens,
		RatePerSec:      cfg.Prediction.RatePerSec,
		Burst:           cfg.Prediction.Burst,
		MaxAttempts:     cfg.Prediction.MaxAttempts,
		BreakerFailures: cfg.Prediction.BreakerFailures,
		BreakerReset:    cfg.Prediction.BreakerReset(),
	})
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
}

// initApp validates config, loads tables, opens and migrates the store and
// wires the services. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	tbl, err := loadTables()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	catalog := stage.Default()
	res := resolver.NewDefault(
		initPredictor(),
		cfg.Prediction.Timeout(),
		cfg.Prediction.DefaultConfidence,
		cfg.Prediction.FallbackConfidence,
	)
	eval := pipeline.NewEvaluator(res, tbl.Engine, threshold.NewClassifier(tbl.Thresholds))

	zap.L().Debug("application initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("factor_version", tbl.Factors.Version()),
	)

	return &appEnv{
		Store:      st,
		Catalog:    catalog,
		Thresholds: tbl.Thresholds,
		Factors:    tbl.Factors,
		Evaluator:  eval,
		Pipeline:   pipeline.New(catalog, eval, st, st),
		Aggregator: aggregate.New(st, st),
		Scenarios:  scenario.New(catalog, eval, st, st),
	}, nil
}
