package install

import (
	"roster-manager/core/apperr"
	"roster-manager/core/logger"
	"roster-manager/feature/library"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the install endpoints.
type Handler struct {
	installer *Installer
	logger    *zap.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(installer *Installer, logger *zap.Logger) *Handler {
	return &Handler{installer: installer, logger: logger}
}

// RegisterRoutes registers the install routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	grp := app.Group("/install")
	grp.Post("/:kind", h.HandleInstall)
	grp.Post("/:kind/batch", h.HandleInstallBatch)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	logger.WithRayID(h.logger, c).Error(msg, zap.Error(err))
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

type installRequest struct {
	Source    string `json:"source"`
	Overwrite bool   `json:"overwrite"`
}

// HandleInstall installs one content source and returns its canonical id.
func (h *Handler) HandleInstall(c *fiber.Ctx) error {
	var req installRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Install rejected", apperr.Invalid("malformed request body", err))
	}
	id, err := h.installer.Install(c.Context(), library.Kind(c.Params("kind")), req.Source, req.Overwrite)
	if err != nil {
		return h.fail(c, "Install failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

type batchInstallRequest struct {
	Sources   []string `json:"sources"`
	Overwrite bool     `json:"overwrite"`
}

// HandleInstallBatch installs several sources, returning per-item outcomes.
func (h *Handler) HandleInstallBatch(c *fiber.Ctx) error {
	var req batchInstallRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Batch install rejected", apperr.Invalid("malformed request body", err))
	}
	res, err := h.installer.InstallBatch(c.Context(), library.Kind(c.Params("kind")), req.Sources, req.Overwrite)
	if err != nil {
		return h.fail(c, "Batch install failed", err)
	}
	return c.JSON(res)
}
