package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/abhisek/eslens/internal/config"
	"github.com/abhisek/eslens/internal/homework"
	"github.com/abhisek/eslens/internal/llm"
	"github.com/abhisek/eslens/internal/session"
	"github.com/abhisek/eslens/internal/storage"
	"github.com/abhisek/eslens/internal/store"
	"github.com/abhisek/eslens/internal/translate"
	"github.com/abhisek/eslens/internal/tutor"
)

// pipeline is the wired extract, translate and tutor chain.
type pipeline struct {
	provider   llm.Provider
	translator *translate.Translator
	sessions   *session.Orchestrator
}

// buildPipeline wires the LLM provider and every stage on top of st.
func buildPipeline(ctx context.Context, st *store.Store, cfg *config.Config, log zerolog.Logger) (*pipeline, error) {
	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
	if err != nil {
		return nil, err
	}

	images, err := newImageStore(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}

	translator := translate.NewTranslator(provider, translate.DefaultConfig(), log)
	orch := session.New(session.Deps{
		Repo:       st.SessionRepo(),
		Extractor:  homework.NewExtractor(provider, homework.DefaultConfig(), log),
		Translator: translator,
		Tutor:      tutor.New(provider, tutor.DefaultConfig(), log),
		Images:     images,
		Log:        log,
	}, session.Config{
		DefaultLanguage: cfg.Session.DefaultLanguage,
		HistoryLimit:    cfg.Session.HistoryLimit,
	})

	return &pipeline{
		provider:   provider,
		translator: translator,
		sessions:   orch,
	}, nil
}

// newImageStore returns nil for the "none" driver; uploads are then not
// retained.
func newImageStore(cfg config.StorageConfig, log zerolog.Logger) (storage.ImageStore, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "minio":
		st, err := storage.NewMinIOStore(storage.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			Region:    cfg.MinIO.Region,
			UseSSL:    cfg.MinIO.UseSSL,
		}, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		st, err := storage.NewLocalStore(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}
