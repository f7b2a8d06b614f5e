package install

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature wraps the installer for the application loader.
type Feature struct {
	installer *Installer
	logger    *zap.Logger
}

// NewFeature creates the install feature.
func NewFeature(installer *Installer, logger *zap.Logger) *Feature {
	return &Feature{installer: installer, logger: logger}
}

// Name returns the feature identifier.
func (f *Feature) Name() string { return "install" }

// IsEnabled reports whether the feature should load.
func (f *Feature) IsEnabled() bool { return true }

// Load registers the install routes.
func (f *Feature) Load(app fiber.Router) error {
	NewHandler(f.installer, f.logger).RegisterRoutes(app)
	return nil
}
