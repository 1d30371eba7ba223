//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/phytocast/internal/bootstrap"
	"github.com/yanqian/phytocast/internal/domain/prediction"
	"github.com/yanqian/phytocast/internal/domain/selection"
	"github.com/yanqian/phytocast/internal/infra/config"
	"github.com/yanqian/phytocast/internal/infra/openmeteo"
	"github.com/yanqian/phytocast/internal/infra/predictor"
	"github.com/yanqian/phytocast/internal/infra/session"
	httpiface "github.com/yanqian/phytocast/internal/interface/http"
	"github.com/yanqian/phytocast/pkg/logger"
	"github.com/yanqian/phytocast/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewPredictionTally,
		provideForecastClient,
		providePredictorClient,
		providePredictionConfig,
		provideSelectionConfig,
		provideSelectionStore,
		provideHistoryRepository,
		provideExportStore,
		provideSessionManager,
		provideScheduler,
		selection.NewSelector,
		prediction.NewService,
		wire.Bind(new(prediction.ForecastSource), new(*openmeteo.Client)),
		wire.Bind(new(prediction.Client), new(*predictor.Client)),
		wire.Bind(new(prediction.DateSelector), new(*selection.Selector)),
		wire.Bind(new(httpiface.SessionManager), new(*session.Manager)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
