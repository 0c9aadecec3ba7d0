package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/vendorcredit/internal/config"
	"github.com/smallbiznis/vendorcredit/internal/observability"
	obslogger "github.com/smallbiznis/vendorcredit/internal/observability/logger"
	obstracing "github.com/smallbiznis/vendorcredit/internal/observability/tracing"
	purchasedomain "github.com/smallbiznis/vendorcredit/internal/purchase/domain"
	"github.com/smallbiznis/vendorcredit/internal/ratelimit"
	repaymentdomain "github.com/smallbiznis/vendorcredit/internal/repayment/domain"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
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
	engine       *gin.Engine
	cfg          config.Config
	tierSvc      tierdomain.Service
	purchaseSvc  purchasedomain.Service
	repaymentSvc repaymentdomain.Service
	limiter      ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	TierSvc      tierdomain.Service
	PurchaseSvc  purchasedomain.Service
	RepaymentSvc repaymentdomain.Service
	Limiter      ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		tierSvc:      p.TierSvc,
		purchaseSvc:  p.PurchaseSvc,
		repaymentSvc: p.RepaymentSvc,
		limiter:      p.Limiter,
	}

	svc.registerAdminRoutes()
	svc.registerVendorRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", ActorContext())

	// -------- Repayment tiers --------
	cfg := admin.Group("/repayment-config")
	{
		cfg.GET("/status", s.GetTierSystemStatus)
		cfg.POST("/validate", s.ValidateTier)
		cfg.GET("/tiers/:kind", s.ListTiers)
		cfg.POST("/tiers/:kind", s.CreateTier)
		cfg.GET("/tiers/:kind/:id", s.GetTier)
		cfg.PUT("/tiers/:kind/:id", s.UpdateTier)
		cfg.DELETE("/tiers/:kind/:id", s.DeactivateTier)
	}

	// -------- Credit purchases --------
	admin.POST("/credit-purchases", s.ApprovePurchase)
	admin.GET("/credit-purchases/:id", s.GetPurchase)
}

func (s *Server) registerVendorRoutes() {
	credit := s.engine.Group("/api/vendors/credit", VendorRequired())

	credit.POST("/repayment/calculate", s.CalculateRepayment)
	credit.GET("/repayment/:purchaseId/projection", s.ProjectRepayment)
	credit.POST("/repayment/:purchaseId/submit", s.SubmitRateLimit(), s.SubmitRepayment)
	credit.GET("/repayments", s.ListRepayments)
	credit.GET("/repayments/:id", s.GetRepayment)
	credit.GET("/summary", s.GetCreditSummary)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
