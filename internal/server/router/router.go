package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/server/handlers"
	"github.com/mamadbah2/rtm-traders/internal/server/middleware"
)

// Options carries everything the engine needs to register its routes.
type Options struct {
	Records        *handlers.RecordsHandler
	Auth           *handlers.AuthHandler
	Verifier       middleware.TokenVerifier
	APIURL         string
	AllowedOrigins []string
	StaticDir      string
	Logger         *zap.Logger
}

// New wires the Gin engine with required routes and middlewares.
func New(opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(zapLoggerMiddleware(opts.Logger))
	r.Use(middleware.Metrics())
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/login", opts.Auth.Login)
	api.GET("/config", handlers.Config(opts.APIURL))

	protected := api.Group("", middleware.Authenticate(opts.Verifier))
	protected.GET("/verify", opts.Auth.Verify)

	recs := protected.Group("/records")
	recs.GET("", opts.Records.List)
	recs.POST("", opts.Records.Create)
	recs.GET("/summary", opts.Records.Summary)
	recs.GET("/monthly", opts.Records.Monthly)
	recs.GET("/export.xlsx", opts.Records.ExportXLSX)
	recs.POST("/sync", opts.Records.SyncSheets)
	recs.PUT("/:id", opts.Records.Update)
	recs.DELETE("/:id", opts.Records.Delete)

	r.NoRoute(notFound(opts.StaticDir))

	if opts.Logger != nil {
		opts.Logger.Info("router initialized", zap.Bool("static", opts.StaticDir != ""))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// notFound serves the optional static dashboard for non-API paths and a JSON
// 404 for everything else.
func notFound(staticDir string) gin.HandlerFunc {
	var files http.Handler
	if staticDir != "" {
		files = http.FileServer(gin.Dir(staticDir, false))
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		isRead := c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead
		if files == nil || !isRead || strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", middleware.RequestIDFrom(c)))
	}
}
