// Package server exposes the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/keiridesk/keiridesk/internal/client"
	clientdomain "github.com/keiridesk/keiridesk/internal/client/domain"
	"github.com/keiridesk/keiridesk/internal/config"
	obsmiddleware "github.com/keiridesk/keiridesk/internal/observability/logger"
	obsmetrics "github.com/keiridesk/keiridesk/internal/observability/metrics"
	"github.com/keiridesk/keiridesk/internal/order"
	orderdomain "github.com/keiridesk/keiridesk/internal/order/domain"
	"github.com/keiridesk/keiridesk/internal/ratelimit"
	"github.com/keiridesk/keiridesk/internal/supplier"
	supplierdomain "github.com/keiridesk/keiridesk/internal/supplier/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	ratelimit.Module,
	client.Module,
	supplier.Module,
	order.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
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
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	clientSvc   clientdomain.Service
	supplierSvc supplierdomain.Service
	orderSvc    orderdomain.Service
	bucket      *ratelimit.TokenBucket
	metrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	ClientSvc   clientdomain.Service
	SupplierSvc supplierdomain.Service
	OrderSvc    orderdomain.Service
	Bucket      *ratelimit.TokenBucket `optional:"true"`
	Metrics     *obsmetrics.Metrics    `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		log:         p.Log.Named("http.server"),
		clientSvc:   p.ClientSvc,
		supplierSvc: p.SupplierSvc,
		orderSvc:    p.OrderSvc,
		bucket:      p.Bucket,
		metrics:     p.Metrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	limited := ratelimit.GinMiddleware(s.bucket, s.metrics)

	v1 := s.engine.Group("/v1")

	clients := v1.Group("/clients")
	{
		clients.POST("", limited, s.CreateClient)
		clients.GET("", s.ListClients)
		clients.GET("/:id", s.GetClientByID)
	}

	suppliers := v1.Group("/suppliers")
	{
		suppliers.POST("", limited, s.CreateSupplier)
		suppliers.GET("", s.ListSuppliers)
		suppliers.GET("/:id", s.GetSupplierByID)
		suppliers.PATCH("/:id", limited, s.UpdateSupplier)
	}

	orders := v1.Group("/orders")
	{
		orders.POST("", limited, s.CreateOrder)
		orders.GET("", s.ListOrders)
		orders.GET("/:id", s.GetOrderByID)

		orders.POST("/:id/items", limited, s.AddOrderItem)
		orders.GET("/:id/items", s.ListOrderItems)
		orders.POST("/:id/items/reorder", limited, s.ReorderOrderItems)

		orders.GET("/:id/totals", s.GetOrderTotals)
	}

	items := v1.Group("/items")
	{
		items.PATCH("/:id", limited, s.UpdateOrderItem)
		items.DELETE("/:id", limited, s.DeleteOrderItem)
	}
}
