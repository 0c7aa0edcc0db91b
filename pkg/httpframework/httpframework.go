package httpframework

import (
	"os"
	"sync"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	router *gin.Engine
	once   sync.Once
)

// Init initializes the shared gin engine with the given middlewares
func Init(middlewares ...gin.HandlerFunc) {
	once.Do(func() {
		router = New(middlewares...)
	})
}

// New returns a gin engine with access logging and panic recovery. Gin runs in release
// mode for production environments.
func New(middlewares ...gin.HandlerFunc) *gin.Engine {
	env := os.Getenv("APP_ENV")
	if env == "prod" || env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	middlewares = append(middlewares, middleware.HTTPLogger(), middleware.HTTPRecovery())
	engine.Use(middlewares...)
	return engine
}

// Instance returns the engine built by Init
func Instance() *gin.Engine {
	if router == nil {
		log.Fatal().Msg("Router not initialized")
	}
	return router
}
