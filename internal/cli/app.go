package cli

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mfedotov/wortschatz/internal/model"
	"github.com/mfedotov/wortschatz/internal/router"
	"github.com/mfedotov/wortschatz/internal/storage"
	"github.com/mfedotov/wortschatz/internal/syncer"
)

// app bundles the wired core components for one command invocation.
type app struct {
	cfg    model.Config
	store  *storage.Store
	engine *syncer.Engine
	router *router.Router
	log    *zap.Logger
}

// newApp builds the component graph from config file, env, and flags.
func newApp() (*app, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Storage.Dir = dataDir
	}
	if verbose {
		cfg.Output.Verbose = true
	}

	var backend storage.Backend
	if cfg.Storage.Layered {
		backend = storage.NewLayeredBackend(cfg.Storage.Dir)
	} else {
		backend = storage.NewFileBackend(cfg.Storage.Dir)
	}

	log, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return nil, err
	}

	store := storage.NewStore(backend, storage.WithRetention(cfg.Retention.Window))
	engine := syncer.New(store, cfg.HTTP, log)

	return &app{
		cfg:    cfg,
		store:  store,
		engine: engine,
		router: router.New(store, engine, log),
		log:    log,
	}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
