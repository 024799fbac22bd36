package main

import (
	"context"
	"fmt"
	"log"

	common_api "tcpos-reports/internal/common/api"
	"tcpos-reports/internal/config"
	"tcpos-reports/internal/database"
	"tcpos-reports/internal/features/anomaly"
	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/notification"
	"tcpos-reports/internal/features/preferences"
	"tcpos-reports/internal/features/report"
	"tcpos-reports/internal/features/schedule"
	"tcpos-reports/internal/features/session"
	"tcpos-reports/internal/features/system"
	"tcpos-reports/internal/features/upstream"
	"tcpos-reports/internal/logger"
	"tcpos-reports/internal/middleware"
	"tcpos-reports/pkg/utils"

	_ "tcpos-reports/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, log *zap.Logger) {
	log.Info("Registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		log.Debug("Setting up route", zap.String("route", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				log.Info("Server listening", zap.String("addr", port))
				if err := app.Listen(port); err != nil {
					log.Fatal("Server failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

// @title TCPOS Reports API
// @version 1.0
// @description Report gateway for the TCPOS point-of-sale reporting API.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	utils.SetSecret(cfg.JWTSecret)

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			// Infrastructure
			database.NewDatabase,
			logger.NewLogger,
			NewFiberServer,
			schedule.NewScheduler,
			func(mongodb *database.MongodbDB) system.Pinger { return mongodb },

			// Stores
			preferences.NewMongoStore,
			schedule.NewScheduleRepository,
			session.NewStore,
			notification.NewHub,

			// Report pipeline
			catalog.NewCatalog,
			upstream.NewClient,
			anomaly.NewAnomalyService,

			// Services
			catalog.NewCatalogService,
			preferences.NewPreferencesService,
			notification.NewNotificationService,
			report.NewReportService,
			session.NewSessionService,
			schedule.NewScheduleService,

			// Controllers
			catalog.NewCatalogController,
			preferences.NewPreferencesController,
			notification.NewNotificationController,
			report.NewReportController,
			session.NewSessionController,
			schedule.NewScheduleController,
			system.NewHealthController,
			system.NewDebugController,

			// Routes
			AsRoute(catalog.NewCatalogApi),
			AsRoute(preferences.NewPreferencesApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(report.NewReportApi),
			AsRoute(session.NewSessionApi),
			AsRoute(schedule.NewScheduleApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewDebugApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			database.EnsureIndexes,
			schedule.RegisterJobs,
			session.RegisterSweeper,
		),
	)

	app.Run()
}
