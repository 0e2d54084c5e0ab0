//go:build wireinject

package app

import (
	"swapsignal/internal/config"

	"github.com/google/wire"
)

var providerSet = wire.NewSet(
	provideMetrics,
	providePrompts,
	provideModel,
	provideSwapClient,
	provideExtractor,
	provideRecommender,
	provideSession,
	provideServer,
	provideSummary,
	newApp,
)

func buildAppWithWire(cfg *config.Config) (*App, error) {
	wire.Build(providerSet)
	return nil, nil
}
