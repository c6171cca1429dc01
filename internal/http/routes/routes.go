package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/visionprep/internal/config"
	"github.com/phambaophuc/visionprep/internal/http/handlers"
	"github.com/phambaophuc/visionprep/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	imageHandler *handlers.ImageHandler
	cfg          *config.Config
	logger       *zap.Logger
}

func NewRouter(
	imageHandler *handlers.ImageHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		imageHandler: imageHandler,
		cfg:          cfg,
		logger:       logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if r.cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS(r.cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	api := router.Group("/api")
	api.Use(middleware.BodyLimit(r.cfg.Upload.MaxRequestBytes, r.cfg.Upload.Hint))
	api.Use(middleware.RequireJSON())
	{
		api.GET("/health", r.imageHandler.HealthCheck)
		api.GET("/stats", r.imageHandler.GetStats)

		api.POST("/generate", r.imageHandler.Generate)
		api.POST("/export", r.imageHandler.Export)

		jobs := api.Group("/jobs")
		{
			jobs.POST("", r.imageHandler.SubmitJob)
			jobs.GET("/:id", r.imageHandler.GetJob)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "VisionPrep is running",
		})
	})

	return router
}
