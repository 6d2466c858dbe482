package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/medbill/internal/config"
	inquirydomain "github.com/smallbiznis/medbill/internal/inquiry/domain"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/lineitem/draft"
	materialdomain "github.com/smallbiznis/medbill/internal/material/domain"
	obsmiddleware "github.com/smallbiznis/medbill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/medbill/internal/observability/metrics"
	obstracing "github.com/smallbiznis/medbill/internal/observability/tracing"
	templatedomain "github.com/smallbiznis/medbill/internal/template/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	HTTPMetrics *obsmetrics.HTTP `optional:"true"`
}

func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTP) *gin.Engine {
	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log, obsmiddleware.MiddlewareConfig{
		Debug:           cfg.Debug(),
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

func registerGin(p EngineParams) *gin.Engine {
	return NewEngine(p.Config, p.Log, p.HTTPMetrics)
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
	validate    *validator.Validate
	materialSvc materialdomain.Service
	pricer      lineitemdomain.Service
	inquirySvc  inquirydomain.Service
	templateSvc templatedomain.Service
	drafts      *draft.Store
	quotation   *config.QuotationConfigHolder
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Validate    *validator.Validate
	MaterialSvc materialdomain.Service
	Pricer      lineitemdomain.Service
	InquirySvc  inquirydomain.Service
	TemplateSvc templatedomain.Service
	Drafts      *draft.Store
	Quotation   *config.QuotationConfigHolder `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		validate:    p.Validate,
		materialSvc: p.MaterialSvc,
		pricer:      p.Pricer,
		inquirySvc:  p.InquirySvc,
		templateSvc: p.TemplateSvc,
		drafts:      p.Drafts,
		quotation:   p.Quotation,
	}
	if svc.quotation == nil {
		svc.quotation = config.NewStaticQuotationConfigHolder(config.DefaultQuotationConfig())
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

	// -------- Materials --------
	api.POST("/materials", s.CreateMaterial)
	api.GET("/materials", s.ListMaterials)
	api.GET("/materials/:id", s.GetMaterialByID)
	api.PATCH("/materials/:id", s.UpdateMaterial)

	hospital := api.Group("/hospitals/:hospital_id")
	{
		hospital.POST("/materials", s.AssignMaterial)
		hospital.GET("/materials", s.SearchMaterials)
		hospital.GET("/materials/lookup", s.LookupMaterial)
		hospital.GET("/materials/options", s.ListMaterialOptions)
	}

	// -------- Pricing --------
	api.POST("/pricing/calculate", s.CalculateLine)
	api.POST("/pricing/preview", s.PreviewDocument)

	// -------- Drafts --------
	drafts := api.Group("/drafts")
	{
		drafts.POST("", s.OpenDraft)
		drafts.GET("/:id", s.GetDraft)
		drafts.DELETE("/:id", s.CloseDraft)
		drafts.POST("/:id/rows", s.AddDraftRow)
		drafts.POST("/:id/move", s.MoveDraftRow)
		drafts.PATCH("/:id/rows/:row_id", s.EditDraftRow)
		drafts.DELETE("/:id/rows/:row_id", s.RemoveDraftRow)
		drafts.PUT("/:id/rows/:row_id/material_number", s.SetDraftMaterialNumber)
	}

	// -------- Inquiries --------
	api.POST("/inquiries", s.CreateInquiry)
	api.GET("/inquiries", s.ListInquiries)
	api.GET("/inquiries/:id", s.GetInquiryByID)
	api.PUT("/inquiries/:id", s.UpdateInquiry)
	api.DELETE("/inquiries/:id", s.DeleteInquiry)
	api.GET("/inquiries/:id/export", s.ExportInquiry)

	// -------- Templates --------
	api.POST("/templates", s.CreateTemplate)
	api.GET("/templates", s.ListTemplates)
	api.GET("/templates/:id", s.GetTemplateByID)
	api.PUT("/templates/:id", s.UpdateTemplate)
	api.DELETE("/templates/:id", s.DeleteTemplate)
	api.GET("/templates/:id/export", s.ExportTemplate)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
