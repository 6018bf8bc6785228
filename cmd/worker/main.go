package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"infinitetalk/internal/assets"
	"infinitetalk/internal/generate"
	"infinitetalk/internal/httpapi"
	"infinitetalk/internal/infra"
	"infinitetalk/internal/jobstore"
	"infinitetalk/internal/orchestrator"
	"infinitetalk/internal/publish"
	"infinitetalk/internal/storage"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	layout, err := storage.NewLayout(cfg.VolumePath, cfg.FallbackStoragePath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: storage layout")
	}

	var objects storage.ObjectStore
	if cfg.BucketConfigured() {
		bucket, err := storage.NewBucketStore(storage.BucketOptions{
			EndpointURL: cfg.BucketEndpointURL,
			AccessKey:   cfg.BucketAccessKeyID,
			SecretKey:   cfg.BucketSecretAccessKey,
			Bucket:      cfg.BucketName,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: bucket client")
		}
		objects = bucket
		logger.Info().Str("bucket", cfg.BucketName).Msg("worker: publishing to object storage enabled")
	} else {
		logger.Info().Msg("worker: no bucket endpoint configured, outputs stay local")
	}

	orch := orchestrator.New(
		jobstore.NewMemory(),
		assets.NewResolver(cfg.ScratchPath, nil, logger),
		generate.NewInvoker(generate.Options{
			PythonBin:  cfg.PythonBin,
			ScriptDir:  cfg.ScriptDir,
			ModelDir:   cfg.ModelDir,
			ScratchDir: cfg.ScratchPath,
			OutputDir:  layout.OutputsDir,
			Timeout:    cfg.GenerateTimeout,
			Logger:     logger,
		}),
		publish.NewPublisher(objects, logger),
		generate.NewModelCheck(cfg.ModelDir, logger),
		logger,
	)

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(orch, logger))

	go func() {
		logger.Info().Msgf("worker listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("worker stopped")
}
