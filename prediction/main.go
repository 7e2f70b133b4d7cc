package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/foldline-labs/foldline-go/internal/domain"
	"github.com/foldline-labs/foldline-go/internal/engine"
	"github.com/foldline-labs/foldline-go/internal/engine/plan"
	"github.com/foldline-labs/foldline-go/internal/esmfold"
	"github.com/foldline-labs/foldline-go/internal/orchpolicy"
	"github.com/foldline-labs/foldline-go/internal/platform/auth"
	"github.com/foldline-labs/foldline-go/internal/platform/env"
	"github.com/foldline-labs/foldline-go/internal/platform/httpserver"
	"github.com/foldline-labs/foldline-go/internal/platform/objectstore"
	"github.com/foldline-labs/foldline-go/internal/platform/postgres"
	repopg "github.com/foldline-labs/foldline-go/internal/repo/postgres"
	"github.com/foldline-labs/foldline-go/internal/seqvalidate"
	"github.com/foldline-labs/foldline-go/internal/service/predictions"
	"github.com/foldline-labs/foldline-go/internal/steps"
	"github.com/foldline-labs/foldline-go/internal/storage/artifacts"
)

const serviceName = "prediction"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("FOLDLINE_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("FOLDLINE_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	policy, err := loadPolicy(env.String("FOLDLINE_POLICY_PATH", ""))
	if err != nil {
		logger.Error("invalid orchestration policy", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = repopg.EnsureSchema(schemaCtx, db)
	cancel()
	if err != nil {
		logger.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	storeClient, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store client init failed", "error", err)
		os.Exit(2)
	}
	bucketCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = objectstore.EnsureBucket(bucketCtx, storeClient, storeCfg)
	cancel()
	if err != nil {
		logger.Error("object store unavailable", "error", err)
		os.Exit(1)
	}

	artifactStore, err := artifacts.NewStore(storeClient, storeCfg.Bucket)
	if err != nil {
		logger.Error("artifact store init failed", "error", err)
		os.Exit(2)
	}

	atlas, err := atlasFromEnv()
	if err != nil {
		logger.Error("invalid predictor config", "error", err)
		os.Exit(2)
	}

	registry, err := steps.NewRegistry(steps.Deps{
		Logger:    logger,
		Atlas:     atlas,
		Synthetic: esmfold.Synthetic{},
		Artifacts: artifactStore,
	})
	if err != nil {
		logger.Error("step registry init failed", "error", err)
		os.Exit(2)
	}

	runStore := repopg.NewPredictionRunStore(db)
	ledgerStore := repopg.NewStepExecutionStore(db)

	eng, err := engine.New(engine.Config{
		Logger:   logger,
		Registry: registry,
		Policy:   policy,
		Plan: func(chars plan.Characteristics) ([]domain.StepDescriptor, error) {
			return plan.Build(chars, policy)
		},
		Normalize: seqvalidate.NormalizeAndCheck,
		Sink:      predictions.NewLedgerSink(ledgerStore),
	})
	if err != nil {
		logger.Error("engine init failed", "error", err)
		os.Exit(2)
	}

	svc, err := predictions.NewService(logger, eng, runStore, ledgerStore, artifactStore)
	if err != nil {
		logger.Error("service init failed", "error", err)
		os.Exit(2)
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	var authenticator auth.Authenticator = auth.Anonymous{}
	if authCfg.Mode == auth.ModeOIDC {
		oidcAuth, err := auth.NewOIDCAuthenticator(ctx, authCfg)
		if err != nil {
			logger.Error("oidc init failed", "error", err)
			os.Exit(2)
		}
		authenticator = oidcAuth
	}

	mux := http.NewServeMux()
	api := newPredictionAPI(logger, svc, db, storeClient, storeCfg)
	api.register(mux)

	authMw := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		SkipPrefixes:  []string{"/healthz", "/readyz"},
	}
	handler := httpserver.Wrap(logger, serviceName, authMw.Wrap(mux))

	err = httpserver.Run(ctx, logger, httpserver.Config{
		Service:         serviceName,
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}, handler)
	if err != nil && err != http.ErrServerClosed {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

// loadPolicy reads the orchestration policy document, falling back to the
// built-in defaults when no path is configured.
func loadPolicy(path string) (orchpolicy.Policy, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return orchpolicy.Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return orchpolicy.Policy{}, err
	}
	return orchpolicy.Parse(raw)
}

func atlasFromEnv() (*esmfold.AtlasClient, error) {
	recycles, err := env.Int("FOLDLINE_ESMFOLD_RECYCLES", 4)
	if err != nil {
		return nil, err
	}
	opts := []esmfold.AtlasOption{
		esmfold.WithRecycles(recycles),
	}
	if url := strings.TrimSpace(env.String("FOLDLINE_ESMFOLD_URL", "")); url != "" {
		opts = append(opts, esmfold.WithAtlasURL(url))
	}
	return esmfold.NewAtlasClient(opts...), nil
}
