package handlers

import (
	"biometria/auth"
	"biometria/utils"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	APIKey         string
	AllowedOrigins []string
	MaxBodyBytes   int64
	Debug          bool
}

// Router builds the gin engine with every route and middleware.
func (h *Handlers) Router(opts RouterOptions) *gin.Engine {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	_ = router.SetTrustedProxies([]string{})
	if opts.Debug {
		router.Use(utils.ErrorLogMiddleware(h.Logger))
	}
	router.Use(allowListedCORS(opts.AllowedOrigins, cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", auth.HeaderName},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if !opts.Debug {
		router.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoStore}).Handler())
	if opts.MaxBodyBytes > 0 {
		router.Use(utils.BodyLimit(opts.MaxBodyBytes))
	}

	router.GET("/api/health", h.Health)
	// Everything else requires the API key
	authRouter := &auth.Router{Base: router, APIKey: opts.APIKey}
	authRouter.GET("/api/biometry/status/:id", h.Status)
	authRouter.POST("/api/biometry/register", h.Register)
	authRouter.POST("/api/biometry/validate", h.Validate)
	authRouter.DELETE("/api/biometry/:id", h.Delete)
	authRouter.POST("/api/system/backup", h.Backup)
	return router
}

// allowListedCORS adds CORS headers for listed origins only. Requests from
// other origins are still served, just without the headers, so the browser
// is the one that blocks them.
func allowListedCORS(origins []string, cfg cors.Config) gin.HandlerFunc {
	handler := cors.New(cfg)
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && !allowed[origin] && !allowed["*"] {
			c.Next()
			return
		}
		handler(c)
	}
}
