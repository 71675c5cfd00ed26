package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/servicebay/internal/audit"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	"github.com/smallbiznis/servicebay/internal/config"
	"github.com/smallbiznis/servicebay/internal/customer"
	customerdomain "github.com/smallbiznis/servicebay/internal/customer/domain"
	"github.com/smallbiznis/servicebay/internal/invoice"
	invoicedomain "github.com/smallbiznis/servicebay/internal/invoice/domain"
	"github.com/smallbiznis/servicebay/internal/jobpart"
	jobpartdomain "github.com/smallbiznis/servicebay/internal/jobpart/domain"
	"github.com/smallbiznis/servicebay/internal/mechanic"
	mechanicdomain "github.com/smallbiznis/servicebay/internal/mechanic/domain"
	"github.com/smallbiznis/servicebay/internal/observability"
	obsmiddleware "github.com/smallbiznis/servicebay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/servicebay/internal/observability/metrics"
	obstracing "github.com/smallbiznis/servicebay/internal/observability/tracing"
	"github.com/smallbiznis/servicebay/internal/providers/pdf"
	"github.com/smallbiznis/servicebay/internal/providers/spreadsheet"
	"github.com/smallbiznis/servicebay/internal/ratelimit"
	"github.com/smallbiznis/servicebay/internal/servicejob"
	servicejobdomain "github.com/smallbiznis/servicebay/internal/servicejob/domain"
	"github.com/smallbiznis/servicebay/internal/sparepart"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
	"github.com/smallbiznis/servicebay/internal/vehicle"
	vehicledomain "github.com/smallbiznis/servicebay/internal/vehicle/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	customer.Module,
	vehicle.Module,
	mechanic.Module,
	sparepart.Module,
	servicejob.Module,
	jobpart.Module,
	pdf.Module,
	spreadsheet.Module,
	invoice.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
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

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	log         *zap.Logger
	shop        *config.ShopConfigHolder
	auditSvc    auditdomain.Service
	customerSvc customerdomain.Service
	vehicleSvc  vehicledomain.Service
	mechanicSvc mechanicdomain.Service
	partSvc     sparepartdomain.Service
	jobSvc      servicejobdomain.Service
	jobPartSvc  jobpartdomain.Service
	invoiceSvc  invoicedomain.Service
	limiter     *ratelimit.MutationLimiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Shop        *config.ShopConfigHolder
	AuditSvc    auditdomain.Service
	CustomerSvc customerdomain.Service
	VehicleSvc  vehicledomain.Service
	MechanicSvc mechanicdomain.Service
	PartSvc     sparepartdomain.Service
	JobSvc      servicejobdomain.Service
	JobPartSvc  jobpartdomain.Service
	InvoiceSvc  invoicedomain.Service
	Limiter     *ratelimit.MutationLimiter `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		shop:        p.Shop,
		auditSvc:    p.AuditSvc,
		customerSvc: p.CustomerSvc,
		vehicleSvc:  p.VehicleSvc,
		mechanicSvc: p.MechanicSvc,
		partSvc:     p.PartSvc,
		jobSvc:      p.JobSvc,
		jobPartSvc:  p.JobPartSvc,
		invoiceSvc:  p.InvoiceSvc,
		limiter:     p.Limiter,
		obsMetrics:  p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(OperatorContext())
	api.Use(s.MutationRateLimit())

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PUT("/customers/:id", s.UpdateCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)

	// -------- Vehicles --------
	api.GET("/vehicles", s.ListVehicles)
	api.POST("/vehicles", s.CreateVehicle)
	api.GET("/vehicles/:id", s.GetVehicleByID)
	api.PUT("/vehicles/:id", s.UpdateVehicle)
	api.DELETE("/vehicles/:id", s.DeleteVehicle)

	// -------- Mechanics --------
	api.GET("/mechanics", s.ListMechanics)
	api.POST("/mechanics", s.CreateMechanic)
	api.DELETE("/mechanics/:id", s.DeleteMechanic)

	// -------- Spare parts --------
	api.GET("/parts", s.ListParts)
	api.POST("/parts", s.CreatePart)
	api.GET("/parts/:id", s.GetPartByID)

	// -------- Service jobs --------
	api.GET("/jobs", s.ListJobs)
	api.POST("/jobs", s.CreateJob)
	api.GET("/jobs/:id", s.GetJobByID)
	api.PUT("/jobs/:id/status", s.UpdateJobStatus)
	api.POST("/jobs/:id/complete", s.CompleteJob)
	api.PUT("/jobs/:id/mechanic", s.AssignJobMechanic)
	api.GET("/jobs/:id/parts", s.ListJobParts)
	api.POST("/jobs/:id/parts", s.AttachJobPart)
	api.GET("/jobs/:id/history", s.JobHistory)
	api.DELETE("/job-parts/:jobPartId", s.DetachJobPart)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id/status", s.UpdateInvoiceStatus)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)

	// -------- Reports --------
	api.GET("/reports/invoices.xlsx", s.ExportInvoiceRegister)
	api.GET("/reports/low-stock", s.ListLowStockParts)

	api.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
