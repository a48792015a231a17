package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cleared-dev/fidash/internal/agent"
	"github.com/cleared-dev/fidash/internal/chat"
	"github.com/cleared-dev/fidash/internal/config"
	"github.com/cleared-dev/fidash/internal/dashboard"
	"github.com/cleared-dev/fidash/internal/logging"
	"github.com/cleared-dev/fidash/internal/payload"
	"github.com/cleared-dev/fidash/internal/store"
	"github.com/cleared-dev/fidash/internal/toolclient"
)

// app holds everything a command needs, built from the resolved config.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	tools  *toolclient.Client
	agent  *agent.Client
}

func openApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.State.Path, logger.Named("store"))
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("opening state: %w", err)
	}

	tools := toolclient.New(cfg.Backend.BaseURL, cfg.Backend.Timeout,
		toolclient.WithLogger(logger.Named("toolclient")),
		toolclient.WithConcurrentFetch(cfg.Backend.Concurrent),
		toolclient.WithSchemas(payload.DefaultRegistry()),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		tools:  tools,
		agent:  agent.New(cfg.Agent.BaseURL, cfg.Agent.Timeout, logger.Named("agent")),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing state", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *app) dashboard() *dashboard.Service {
	return dashboard.NewService(a.tools, a.store.Prefs(), a.cfg.Backend.LoginSessionID, a.logger.Named("dashboard"))
}

func (a *app) chat() *chat.Service {
	return chat.NewService(a.agent, a.store.Prefs(), a.logger.Named("chat"))
}
