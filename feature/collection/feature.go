package collection

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature wraps the collection service for the application loader.
type Feature struct {
	service *Service
	logger  *zap.Logger
}

// NewFeature creates the collection feature.
func NewFeature(service *Service, logger *zap.Logger) *Feature {
	return &Feature{service: service, logger: logger}
}

// Name returns the feature identifier.
func (f *Feature) Name() string { return "collection" }

// IsEnabled reports whether the feature should load.
func (f *Feature) IsEnabled() bool { return true }

// Load registers the collection routes.
func (f *Feature) Load(app fiber.Router) error {
	NewHandler(f.service, f.logger).RegisterRoutes(app)
	return nil
}
