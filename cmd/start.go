package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"roster-manager/core/loader"
	"roster-manager/core/logger"
	"roster-manager/core/middleware/auth"
	"roster-manager/core/middleware/rayid"
	"roster-manager/feature/collection"
	"roster-manager/feature/install"
	"roster-manager/feature/library"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the roster manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := bootstrap()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := a.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		logg.Info("Managing library",
			zap.String("root", a.cfg.Library.Root),
			zap.String("script", a.cfg.Library.Select()))

		collections, err := collection.NewService(a.db, a.store, logg)
		if err != nil {
			logg.Fatal("Failed to initialize collections", zap.Error(err))
		}
		installer := install.NewInstaller(a.service, logg)

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		mgr := loader.NewManager()
		mgr.Register(library.NewFeature(a.service, logg))
		mgr.Register(collection.NewFeature(collections, logg))
		mgr.Register(install.NewFeature(installer, logg))

		// RayID first so every later log line carries the trace id.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := app.Listen(":" + a.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// Graceful shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
