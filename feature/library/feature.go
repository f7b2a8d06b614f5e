package library

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature wraps the library service for the application loader.
type Feature struct {
	service *Service
	logger  *zap.Logger
}

// NewFeature creates the library feature.
func NewFeature(service *Service, logger *zap.Logger) *Feature {
	return &Feature{service: service, logger: logger}
}

// Name returns the feature identifier.
func (f *Feature) Name() string { return "library" }

// IsEnabled reports whether the feature should load. The library is the
// application's core and is always on.
func (f *Feature) IsEnabled() bool { return true }

// Load registers the library routes.
func (f *Feature) Load(app fiber.Router) error {
	NewHandler(f.service, f.logger).RegisterRoutes(app)
	return nil
}
