// Command docverify-service wires every verification-pipeline component
// together and runs the process: the metrics/SSE HTTP server, and either a
// Queue Worker (USE_QUEUE=true) or a bare in-process Dispatcher reachable
// from Job Intake directly.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/merchantiq/docverify/internal/awsconfig"
	"github.com/merchantiq/docverify/internal/config"
	"github.com/merchantiq/docverify/pkg/blob"
	"github.com/merchantiq/docverify/pkg/fieldparser"
	"github.com/merchantiq/docverify/pkg/forensic"
	"github.com/merchantiq/docverify/pkg/infrastructure/metrics"
	"github.com/merchantiq/docverify/pkg/intake"
	"github.com/merchantiq/docverify/pkg/llm"
	"github.com/merchantiq/docverify/pkg/llm/anthropic"
	"github.com/merchantiq/docverify/pkg/ocr"
	"github.com/merchantiq/docverify/pkg/ocr/awsocr"
	"github.com/merchantiq/docverify/pkg/pipeline"
	"github.com/merchantiq/docverify/pkg/progress"
	"github.com/merchantiq/docverify/pkg/progress/sse"
	"github.com/merchantiq/docverify/pkg/queue"
	"github.com/merchantiq/docverify/pkg/registry"
	"github.com/merchantiq/docverify/pkg/registry/cache"
	"github.com/merchantiq/docverify/pkg/registry/companyhouse"
	"github.com/merchantiq/docverify/pkg/registry/policy"
	"github.com/merchantiq/docverify/pkg/registry/vat"
	"github.com/merchantiq/docverify/pkg/storage"
	"github.com/merchantiq/docverify/pkg/storage/pgxstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	if err := runMigrations(os.Getenv("DATABASE_URL")); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer closeStore()

	ocrStage, err := buildOCRStage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build ocr stage: %w", err)
	}

	parser := fieldparser.NewStage(buildLLMPort(cfg, log), cfg.LLM.Enabled, cfg.LLM.Timeout, log)
	forensicStage := forensic.NewStage(log, nil)
	registryStage, err := buildRegistryStage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build registry stage: %w", err)
	}

	bus := progress.NewBus(0)
	dispatcher := pipeline.NewDispatcher(store, bus, ocrStage, parser, forensicStage, registryStage, nil, log)

	var blobPort blob.Port
	if cfg.Blob.Enabled {
		localBlob, err := blob.NewLocalPort(cfg.Intake.UploadDir + "/blob")
		if err != nil {
			return fmt.Errorf("build blob port: %w", err)
		}
		blobPort = localBlob
	}

	var queuePort queue.Port
	if cfg.Intake.UseQueue {
		queuePort = queue.NewInMemoryPort()
	}

	intakeSvc := intake.New(
		cfg.Intake.MaxUploadSize, cfg.Intake.UploadDir, cfg.Intake.UseQueue,
		store, blobPort, queuePort, directDispatch{dispatcher}, nil, log,
	)
	_ = intakeSvc // held by the (out-of-scope) HTTP submission endpoint; exercised directly by tests

	if cfg.Intake.UseQueue {
		worker := queue.NewWorker(queuePort, dispatchFromStorage(store, dispatcher), queue.DefaultWorkerConfig(), log)
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error("queue worker stopped", zap.Error(err))
			}
		}()
	}

	router := chi.NewRouter()
	sse.NewHandler(bus, log).Routes(router, []string{"*"})
	router.Handle("/metrics", http.DefaultServeMux)

	server := &http.Server{Addr: ":" + cfg.Server.WebhookPort, Handler: router}
	metricsServer := metrics.NewServer(":" + cfg.Server.MetricsPort)

	go func() {
		if err := metricsServer.Start(); err != nil {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("progress server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if err := zcfg.Level.UnmarshalText([]byte(level)); err != nil {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zcfg.Build()
}

// runMigrations applies pending db/migrations via goose, using a plain
// database/sql handle (driver "postgres" from lib/pq) since goose's
// migration runner predates pgx-native pooling.
func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "db/migrations")
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.Port, func(), error) {
	pool, err := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		return nil, nil, err
	}
	if err := pgxstore.WaitReady(ctx, pool, 10*time.Second); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pgxstore.New(pool), pool.Close, nil
}

func buildOCRStage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ocr.Stage, error) {
	awsCfg, err := awsconfig.Resolve(ctx, cfg.OCR.Region)
	if err != nil {
		return nil, err
	}
	client := awsocr.NewClient(awsCfg, cfg.OCR.Timeout, log)
	return ocr.NewStage(client, cfg.OCR.MaxPageConcurrent), nil
}

func buildLLMPort(cfg *config.Config, log *zap.Logger) llm.Port {
	if !cfg.LLM.Enabled {
		return nil
	}
	switch cfg.LLM.Provider {
	case "anthropic":
		return anthropic.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, log)
	default:
		return nil
	}
}

func buildRegistryStage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*registry.Stage, error) {
	var companyPort registry.CompanyPort
	if cfg.Registry.CompanyHouse.APIKey != "" {
		companyPort = companyhouse.NewClient(cfg.Registry.CompanyHouse.BaseURL, cfg.Registry.CompanyHouse.APIKey, cfg.Registry.CompanyHouse.Timeout, log)
	}
	if companyPort != nil && cfg.RegistryCache.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RegistryCache.Addr})
		companyPort = cache.NewPort(companyPort, rdb, cfg.RegistryCache.TTL, log)
	}

	var vatPort registry.VATPort
	if cfg.Registry.VAT.BaseURL != "" {
		var oauthCfg *clientcredentials.Config
		if cfg.Registry.VAT.UseOAuth {
			oauthCfg = &clientcredentials.Config{
				ClientID:     cfg.Registry.VAT.ClientID,
				ClientSecret: cfg.Registry.VAT.ClientSecret,
				TokenURL:     cfg.Registry.VAT.TokenURL,
			}
		}
		vatPort = vat.NewClient(cfg.Registry.VAT.BaseURL, cfg.Registry.VAT.ServerToken, oauthCfg, log)
	}

	var policyEvaluator *policy.Evaluator
	if cfg.Registry.PolicyPath != "" {
		evaluator, err := policy.Load(ctx, cfg.Registry.PolicyPath)
		if err != nil {
			return nil, fmt.Errorf("load registry outage policy: %w", err)
		}
		policyEvaluator = evaluator
	}

	return registry.NewStage(companyPort, vatPort, policyEvaluator, cfg.Registry.AllowReviewOnOutage, log), nil
}

// directDispatch adapts *pipeline.Dispatcher to intake.Dispatch, which
// hands Intake the document bytes it already has in hand rather than
// making the Dispatcher re-read them.
type directDispatch struct {
	d *pipeline.Dispatcher
}

func (dd directDispatch) Process(ctx context.Context, jobID string, raw []byte, pages [][]byte) error {
	return dd.d.Process(ctx, jobID, raw, pages)
}

// dispatchFromStorage adapts storage+Dispatcher into queue.DispatchFunc:
// the Queue Worker only carries a job id, so the document bytes are
// re-read from the job's staged local path before running the pipeline.
func dispatchFromStorage(store storage.Port, d *pipeline.Dispatcher) queue.DispatchFunc {
	return func(ctx context.Context, jobID string) error {
		record, err := store.Load(ctx, jobID)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(record.Job.Blob.LocalPath)
		if err != nil {
			return err
		}
		return d.Process(ctx, jobID, raw, nil)
	}
}
