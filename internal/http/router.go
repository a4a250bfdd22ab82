package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/config"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/db"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/http/handlers"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/http/middleware"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/notify"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/service"

	_ "github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/docs"
)

func Router(cfg config.Config, store *db.Store, sessions *service.SessionManager, notifier notify.Notifier, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Sessions:  sessions,
		Modes:     service.NewShiftModeController(),
		Notifier:  notifier,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/jobs", h.JobsList)
		api.GET("/shifts", h.ShiftsList)
		api.GET("/leads/:id/mode", h.LeadMode)
		api.GET("/leads/:id/effectiveness", h.LeadEffectiveness)
		api.GET("/leads/:id/retention", h.LeadRetention)
		api.GET("/promotions/candidates", h.PromotionCandidates)
		api.GET("/runs/latest", h.RunsLatest)

		api.POST("/wrapups", h.WrapUpStart)
		api.GET("/wrapups/:id", h.WrapUpGet)
		api.POST("/wrapups/:id/notes", h.WrapUpNotes)
		api.POST("/wrapups/:id/tags", h.WrapUpTag)
		api.POST("/wrapups/:id/photos", h.WrapUpPhoto)
		api.POST("/wrapups/:id/checklist", h.WrapUpChecklist)
		api.POST("/wrapups/:id/submit", h.WrapUpSubmit)
		api.POST("/wrapups/:id/cancel", h.WrapUpCancel)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/evaluate", h.Evaluate)
		admin.POST("/shifts/:id/checkout", h.ShiftCheckout)
		admin.GET("/debug/compensation", h.DebugCompensation)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
