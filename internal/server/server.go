package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/config"
	plandomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/domain"
	subdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/webhook"
)

func NewEngine(cfg config.Config, log *zap.Logger, registry *prometheus.Registry) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	planSvc         plandomain.Service
	subscriptionSvc subdomain.Service
	webhookSvc      webhook.Service
}

type Params struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	PlanSvc         plandomain.Service
	SubscriptionSvc subdomain.Service
	WebhookSvc      webhook.Service
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		planSvc:         p.PlanSvc,
		subscriptionSvc: p.SubscriptionSvc,
		webhookSvc:      p.WebhookSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	subs := s.engine.Group("/subscriptions")

	subs.POST("/checkout", s.CreateCheckout)
	subs.POST("/payment-confirmation", s.PaymentConfirmation)

	subs.GET("/plans", s.ListPlans)
	subs.GET("/plans/:id", s.GetPlanByID)

	subs.GET("/subscriptions/:id", s.GetSubscriptionByID)
	subs.GET("/user/:userId/subscriptions", s.ListUserSubscriptions)
}

func run(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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

var Module = fx.Module("http.server",
	fx.Provide(
		NewEngine,
		NewServer,
	),
	fx.Invoke(run),
)
