package server

import (
	"context"
	"net/http"
	"time"

	"github.com/debacu/evalgate/internal/accessrequest"
	accessrequestdomain "github.com/debacu/evalgate/internal/accessrequest/domain"
	"github.com/debacu/evalgate/internal/auth"
	authdomain "github.com/debacu/evalgate/internal/auth/domain"
	"github.com/debacu/evalgate/internal/clock"
	"github.com/debacu/evalgate/internal/config"
	"github.com/debacu/evalgate/internal/customer"
	customerdomain "github.com/debacu/evalgate/internal/customer/domain"
	"github.com/debacu/evalgate/internal/event"
	"github.com/debacu/evalgate/internal/observability"
	obslogger "github.com/debacu/evalgate/internal/observability/logger"
	obsmetrics "github.com/debacu/evalgate/internal/observability/metrics"
	obstracing "github.com/debacu/evalgate/internal/observability/tracing"
	"github.com/debacu/evalgate/internal/plan"
	"github.com/debacu/evalgate/internal/ratelimit"
	"github.com/debacu/evalgate/internal/session"
	"github.com/debacu/evalgate/internal/subscription"
	subscriptiondomain "github.com/debacu/evalgate/internal/subscription/domain"
	"github.com/debacu/evalgate/internal/sweeper"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	clock.Module,
	customer.Module,
	plan.Module,
	session.Module,
	event.Module,
	subscription.Module,
	accessrequest.Module,
	auth.Module,
	ratelimit.Module,
	sweeper.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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

type Server struct {
	engine           *gin.Engine
	cfg              config.Config
	db               *gorm.DB
	authsvc          authdomain.Service
	subscriptionSvc  subscriptiondomain.Service
	accessRequestSvc accessrequestdomain.Service
	customerSvc      customerdomain.Service
	sweeper          *sweeper.Sweeper
	loginLimiter     *ratelimit.LoginLimiter
	obsMetrics       *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	DB               *gorm.DB
	Authsvc          authdomain.Service
	SubscriptionSvc  subscriptiondomain.Service
	AccessRequestSvc accessrequestdomain.Service
	CustomerSvc      customerdomain.Service
	Sweeper          *sweeper.Sweeper
	LoginLimiter     *ratelimit.LoginLimiter `optional:"true"`
	ObsMetrics       *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		db:               p.DB,
		authsvc:          p.Authsvc,
		subscriptionSvc:  p.SubscriptionSvc,
		accessRequestSvc: p.AccessRequestSvc,
		customerSvc:      p.CustomerSvc,
		sweeper:          p.Sweeper,
		loginLimiter:     p.LoginLimiter,
		obsMetrics:       p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerInternalRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.SessionRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/access-requests", s.SubmitAccessRequest)

	subscriptions := api.Group("/subscription", s.SessionRequired())
	{
		subscriptions.GET("/state", s.GetSubscriptionState)
		subscriptions.POST("/change-plan", s.ChangePlan)
	}
}

func (s *Server) registerInternalRoutes() {
	internal := s.engine.Group("/internal")

	internal.POST("/sweep", s.SweepSecretRequired(), s.TriggerSweep)
}
