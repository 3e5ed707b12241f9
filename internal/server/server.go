package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/paperlane/paperlane/internal/auth/domain"
	batchdomain "github.com/paperlane/paperlane/internal/batch/domain"
	"github.com/paperlane/paperlane/internal/config"
	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
	obsmetrics "github.com/paperlane/paperlane/internal/observability/metrics"
	usagedomain "github.com/paperlane/paperlane/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(obsmetrics.GinMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	verifier  authdomain.Verifier
	ledgerSvc ledgerdomain.Service
	batchSvc  batchdomain.Service
	usageSvc  usagedomain.Service
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Verifier  authdomain.Verifier
	LedgerSvc ledgerdomain.Service
	BatchSvc  batchdomain.Service
	UsageSvc  usagedomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		verifier:  p.Verifier,
		ledgerSvc: p.LedgerSvc,
		batchSvc:  p.BatchSvc,
		usageSvc:  p.UsageSvc,
	}
}

func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")
	v1.Use(s.AuthRequired())

	v1.POST("/batch-jobs", s.CreateBatchJob)
	v1.POST("/process", s.ProcessCharge)
	v1.GET("/usage", s.GetUsageHistory)
	v1.GET("/ledger", s.GetLedger)
	v1.POST("/ledger", s.CreateLedger)
	v1.POST("/ledger/topup", s.TopUpCredits)
}
