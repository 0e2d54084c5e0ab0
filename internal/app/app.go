package app

import (
	"context"
	"fmt"
	"time"

	"swapsignal/internal/config"
	"swapsignal/internal/gateway/thegraph"
	"swapsignal/internal/logger"
	"swapsignal/internal/prompt"
	chathttp "swapsignal/internal/transport/http/chat"

	"golang.org/x/sync/errgroup"
)

// App owns the long-running parts of the process: the chat HTTP server and the prompt watcher.
type App struct {
	cfg     *config.Config
	prompts *prompt.Registry
	server  *chathttp.Server
	Summary *StartupSummary
}

func newApp(cfg *config.Config, prompts *prompt.Registry, server *chathttp.Server, summary *StartupSummary) *App {
	return &App{cfg: cfg, prompts: prompts, server: server, Summary: summary}
}

// NewApp builds the application from cfg without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(cfg)
}

// Run serves until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	thegraph.WarnOnTokenProblems(a.cfg.Market.Token, time.Now())

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("chat http server error: %w", err)
		}
		return nil
	})
	if a.prompts != nil {
		group.Go(func() error {
			if err := a.prompts.Watch(ctx); err != nil {
				logger.Warnf("prompt watcher stopped: %v", err)
			}
			return nil
		})
	}
	return group.Wait()
}

// Addr returns the chat server listen address.
func (a *App) Addr() string {
	if a == nil {
		return ""
	}
	return a.server.Addr()
}
