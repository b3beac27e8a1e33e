package server

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/report_radar/app/studio/internal/auth"
	"github.com/iWorld-y/report_radar/app/studio/internal/conf"
	"github.com/iWorld-y/report_radar/app/studio/internal/service"
)

const (
	OperationCreateReport  = "/studio.v1.Report/CreateReport"
	OperationListReports   = "/studio.v1.Report/ListReports"
	OperationGetReport     = "/studio.v1.Report/GetReport"
	OperationSaveOutline   = "/studio.v1.Report/SaveOutline"
	OperationPolishOutline = "/studio.v1.Report/PolishOutline"
	OperationGenerate      = "/studio.v1.Report/GenerateReport"
	OperationUpdateContent = "/studio.v1.Report/UpdateContent"
	OperationUpdateInfo    = "/studio.v1.Report/UpdateInfo"
	OperationDeleteReport  = "/studio.v1.Report/DeleteReport"
	OperationChat          = "/studio.v1.Report/Chat"
)

func NewHTTPServer(c *conf.Server, a *conf.Auth, s *service.ReportService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			auth.Server(a),
		),
	}
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(d))
			} else {
				log.NewHelper(logger).Warnf("invalid http timeout %q: %v", c.Http.Timeout, err)
			}
		}
	}

	srv := http.NewServer(opts...)
	RegisterReportHTTPServer(srv, s)

	// 健康检查不经过中间件
	srv.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","message":"Report Radar API Server is running"}`))
	})

	return srv
}

// RegisterReportHTTPServer 注册报告相关路由
func RegisterReportHTTPServer(srv *http.Server, s *service.ReportService) {
	r := srv.Route("/")
	r.POST("/api/reports", handle(OperationCreateReport, nethttp.StatusCreated, s.CreateReport))
	r.GET("/api/reports", handle(OperationListReports, nethttp.StatusOK, s.ListReports))
	r.GET("/api/reports/{id}", handle(OperationGetReport, nethttp.StatusOK, s.GetReport))
	r.PUT("/api/reports/{id}/outline", handle(OperationSaveOutline, nethttp.StatusOK, s.SaveOutline))
	r.POST("/api/reports/{id}/outline/polish", handle(OperationPolishOutline, nethttp.StatusOK, s.PolishOutline))
	r.POST("/api/reports/{id}/generate", handle(OperationGenerate, nethttp.StatusOK, s.GenerateReport))
	r.PUT("/api/reports/{id}/content", handle(OperationUpdateContent, nethttp.StatusOK, s.UpdateContent))
	r.PUT("/api/reports/{id}/info", handle(OperationUpdateInfo, nethttp.StatusOK, s.UpdateInfo))
	r.DELETE("/api/reports/{id}", handle(OperationDeleteReport, nethttp.StatusOK, s.DeleteReport))
	r.POST("/api/reports/{id}/chat", handle(OperationChat, nethttp.StatusCreated, s.Chat))
}

// handle 绑定请求体与路径参数，经过中间件后调用 fn
func handle[Req, Reply any](operation string, code int, fn func(context.Context, *Req) (*Reply, error)) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in Req
		if ctx.Request().ContentLength != 0 {
			if err := ctx.Bind(&in); err != nil {
				return err
			}
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, operation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(ctx, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(code, out)
	}
}
