package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hostfolio/payouts/internal/config"
	"github.com/hostfolio/payouts/internal/engine"
	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	"github.com/hostfolio/payouts/internal/observability/logger"
	"github.com/hostfolio/payouts/internal/observability/metrics"
	notificationdomain "github.com/hostfolio/payouts/internal/notification/domain"
	scheduledomain "github.com/hostfolio/payouts/internal/schedule/domain"
	statementdomain "github.com/hostfolio/payouts/internal/statement/domain"
)

type ServerParams struct {
	fx.In

	Config        config.Config
	Log           *zap.Logger
	HTTPMetrics   *metrics.HTTPMetrics
	Engine        *engine.Engine
	Listings      listingdomain.Service
	Schedules     scheduledomain.Service
	Statements    statementdomain.Service
	Notifications notificationdomain.Service
}

type Server struct {
	cfg  config.Config
	log  *zap.Logger
	http *http.Server

	engine        *engine.Engine
	listings      listingdomain.Service
	schedules     scheduledomain.Service
	statements    statementdomain.Service
	notifications notificationdomain.Service
}

func New(p ServerParams) *Server {
	s := &Server{
		cfg:           p.Config,
		log:           p.Log.Named("server"),
		engine:        p.Engine,
		listings:      p.Listings,
		schedules:     p.Schedules,
		statements:    p.Statements,
		notifications: p.Notifications,
	}

	if p.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(p.Log))
	r.Use(metrics.GinMiddleware(p.HTTPMetrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": p.Config.AppVersion})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.GET("/listings", s.listListings)
		v1.POST("/listings", s.createListing)
		v1.GET("/listings/:id", s.getListing)
		v1.PATCH("/listings/:id", s.updateListing)
		v1.GET("/listing-groups", s.listGroups)
		v1.POST("/listing-groups", s.createGroup)

		v1.GET("/schedules", s.listSchedules)
		v1.POST("/schedules", s.createSchedule)
		v1.GET("/schedules/:tag", s.getSchedule)
		v1.PATCH("/schedules/:tag", s.updateSchedule)
		v1.DELETE("/schedules/:tag", s.deleteSchedule)
		v1.POST("/schedules/:tag/trigger", s.triggerSchedule)

		v1.GET("/statements", s.listStatements)
		v1.GET("/statements/:id", s.getStatement)
		v1.POST("/statements/:id/ready", s.readyStatement)
		v1.POST("/statements/:id/send", s.sendStatement)

		v1.GET("/notifications", s.listNotifications)
		v1.POST("/notifications/:id/read", s.readNotification)
		v1.POST("/notifications/:id/dismiss", s.dismissNotification)

		v1.GET("/engine/status", s.engineStatus)
	}

	s.http = &http.Server{Addr: p.Config.HTTPAddr, Handler: r}
	return s
}

func (s *Server) Start() error {
	s.log.Info("server.listen", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func registerHooks(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := s.Start(); err != nil {
					s.log.Error("server.failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
