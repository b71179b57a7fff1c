package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/unibague-gradework/orion-program/internal/api/handler"
	"github.com/unibague-gradework/orion-program/internal/api/middleware"
	"github.com/unibague-gradework/orion-program/internal/audit"
	"github.com/unibague-gradework/orion-program/internal/core/service"
	mongoinfra "github.com/unibague-gradework/orion-program/internal/infrastructure/db/mongo"
	redisinfra "github.com/unibague-gradework/orion-program/internal/infrastructure/db/redis"
	"github.com/unibague-gradework/orion-program/internal/infrastructure/userclient"
	"github.com/unibague-gradework/orion-program/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, trail *audit.Trail, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("orion_program"))
	e.Use(middleware.Identity(trail, log))

	// --- Dependencies ---
	repo := mongoinfra.NewProgramRepository(db)
	directory := userclient.New(userclient.Config{
		BaseURL:    cfg.UserService.URL,
		Timeout:    cfg.UserService.Timeout,
		MaxRetries: cfg.UserService.MaxRetries,
	}, log)
	leaders := redisinfra.NewLeaderCache(rdb, cfg.LeaderCacheTTL, log)
	programService := service.NewProgramService(repo, directory, leaders, log)

	programHandler := handler.NewProgramHandler(programService, trail, log)
	areaHandler := handler.NewAreaHandler(programService, trail, log)

	// --- Program routes ---
	g := e.Group("/service/program")
	g.POST("", programHandler.Create)
	g.GET("", programHandler.List)
	g.GET("/statistics", programHandler.Statistics)
	g.GET("/name/:programName", programHandler.GetByName)
	g.GET("/:programId", programHandler.GetByID)
	g.PUT("/:programId", programHandler.Update)
	g.DELETE("/:programId", programHandler.Delete)

	// --- Educational area routes (always nested under the program) ---
	g.POST("/:programId/area", areaHandler.Create)
	g.GET("/:programId/area", areaHandler.List)
	g.GET("/:programId/area/:areaId", areaHandler.GetByID)
	g.PUT("/:programId/area/:areaId", areaHandler.Update)
	g.DELETE("/:programId/area/:areaId", areaHandler.Delete)
	g.GET("/:programId/area/:areaId/leader", areaHandler.GetLeader)

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
