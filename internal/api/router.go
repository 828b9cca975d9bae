package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/api/middleware"
)

type Dependencies struct {
	Profiles   handler.ProfileService
	Strategies handler.StrategyService
	Operations handler.OperationService
	Verifier   handler.SignatureChecker
	DB         handler.Pinger
	Gatherer   prometheus.Gatherer
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "FaceVerify Policy API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Signature,X-Timestamp",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var db handler.Pinger
	if r.deps != nil {
		db = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(db)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	if r.deps.Gatherer != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.app.Group("/v1")

	profileHandler := handler.NewProfileHandler(r.deps.Profiles)
	v1.Post("/profiles", profileHandler.Create)
	v1.Get("/profiles/:user_id", profileHandler.Get)
	v1.Post("/profiles/:user_id/disable", profileHandler.Disable)

	strategyHandler := handler.NewStrategyHandler(r.deps.Strategies)
	v1.Post("/strategies", strategyHandler.Create)
	v1.Get("/strategies", strategyHandler.List)
	v1.Get("/strategies/:id", strategyHandler.Get)
	v1.Delete("/strategies/:id", strategyHandler.Delete)
	v1.Post("/strategies/:id/rules", strategyHandler.AddRule)

	operationHandler := handler.NewOperationHandler(r.deps.Operations)
	v1.Post("/decisions", operationHandler.Decide)
	v1.Post("/operations", operationHandler.Begin)
	v1.Get("/operations/:operation_id", operationHandler.Get)
	v1.Get("/operations/:operation_id/records", operationHandler.Records)
	v1.Post("/operations/:operation_id/attempts", operationHandler.RecordAttempt)
	v1.Post("/operations/:operation_id/complete", operationHandler.Complete)
	v1.Post("/operations/:operation_id/fail", operationHandler.Fail)
	v1.Post("/operations/:operation_id/cancel", operationHandler.Cancel)

	callbackHandler := handler.NewCallbackHandler(r.deps.Verifier, r.deps.Operations, r.logger)
	v1.Post("/callbacks/verification", callbackHandler.Verification)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
