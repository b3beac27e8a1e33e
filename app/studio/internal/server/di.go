package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/engine"
	"github.com/iWorld-y/report_radar/app/studio/internal/data"
	"github.com/iWorld-y/report_radar/app/studio/internal/service"
	"github.com/iWorld-y/report_radar/app/studio/internal/usecase"
)

// ProviderSet 是报告工作台服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewReportEngine,

	// Data providers
	data.NewData,

	// UseCase providers
	usecase.NewReportUseCase,
	wire.Bind(new(usecase.ReportEngine), new(*engine.Engine)),

	// Service providers
	service.NewReportService,
)
