//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/plant-care/internal/bootstrap"
	"github.com/yanqian/plant-care/internal/domain/auth"
	"github.com/yanqian/plant-care/internal/infra/config"
	httpiface "github.com/yanqian/plant-care/internal/interface/http"
	"github.com/yanqian/plant-care/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		providePostgresPool,
		providePlantStore,
		provideMigrator,
		provideValkeyClient,
		provideImageStore,
		providePhotoAnalyzer,
		providePlantService,
		provideTimelineService,
		provideWeatherStrategies,
		provideWeatherCache,
		provideWeatherService,
		provideInsightService,
		provideZoneStore,
		provideZoneService,
		provideAuthConfig,
		auth.NewService,
		provideHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
