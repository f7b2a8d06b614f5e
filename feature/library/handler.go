package library

import (
	"strconv"

	"roster-manager/core/apperr"
	"roster-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the library and roster mutation endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the library and roster routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	lib := app.Group("/library")
	lib.Get("/:kind", h.HandleList)
	lib.Get("/:kind/search", h.HandleSearch)
	lib.Get("/:kind/suggest", h.HandleSuggest)
	lib.Post("/:kind/refresh", h.HandleRefresh)
	lib.Post("/:kind/reindex", h.HandleReindex)
	lib.Get("/:kind/item/:id", h.HandleGet)
	lib.Put("/:kind/item/:id/classify", h.HandleClassify)

	ros := app.Group("/roster")
	ros.Post("/:kind/enable/:key", h.HandleEnable)
	ros.Post("/:kind/disable/:key", h.HandleDisable)
	ros.Delete("/:kind/entry/:key", h.HandleRemove)
	ros.Post("/:kind/register/:id", h.HandleRegister)
	ros.Put("/order/:section", h.HandleReorder)
}

// entryKey builds the script lookup key from the path id plus the optional
// sub-definition selector, which cannot travel in the path itself.
func entryKey(c *fiber.Ctx) string {
	key := c.Params("key")
	if sub := c.Query("sub"); sub != "" {
		key += "/" + sub
	}
	return key
}

func (h *Handler) kind(c *fiber.Ctx) (Kind, error) {
	k := Kind(c.Params("kind"))
	if !ValidKind(k) {
		return "", apperr.Invalid("unknown content kind "+string(k), nil)
	}
	return k, nil
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	logger.WithRayID(h.logger, c).Error(msg, zap.Error(err))
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

// HandleList returns every item of the kind with its reconciled status.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "List rejected", err)
	}
	views, err := h.service.List(c.Context(), kind)
	if err != nil {
		return h.fail(c, "List failed", err)
	}
	return c.JSON(views)
}

// HandleSearch returns items whose name or author contains q.
func (h *Handler) HandleSearch(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Search rejected", err)
	}
	views, err := h.service.Search(c.Context(), kind, c.Query("q"))
	if err != nil {
		return h.fail(c, "Search failed", err)
	}
	return c.JSON(views)
}

// HandleSuggest returns fuzzy name matches for q.
func (h *Handler) HandleSuggest(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Suggest rejected", err)
	}
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	recs, err := h.service.Suggest(c.Context(), kind, c.Query("q"), limit)
	if err != nil {
		return h.fail(c, "Suggest failed", err)
	}
	return c.JSON(recs)
}

// HandleRefresh forces a reconciliation pass and returns the plan summary.
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Refresh rejected", err)
	}
	plan, err := h.service.Refresh(c.Context(), kind)
	if err != nil {
		return h.fail(c, "Refresh failed", err)
	}
	return c.JSON(plan.Summary)
}

// HandleReindex rebuilds the kind's index table from disk.
func (h *Handler) HandleReindex(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Reindex rejected", err)
	}
	if err := h.service.Reindex(c.Context(), kind); err != nil {
		return h.fail(c, "Reindex failed", err)
	}
	return c.JSON(fiber.Map{"status": "reindexed"})
}

// HandleGet returns a single indexed record.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Get rejected", err)
	}
	rec, err := h.service.Store().Get(c.Context(), kind, c.Params("id"))
	if err != nil {
		return h.fail(c, "Get failed", err)
	}
	return c.JSON(rec)
}

type classifyRequest struct {
	SourceGame string `json:"source_game"`
	Style      string `json:"style"`
	Tags       string `json:"tags"`
}

// HandleClassify updates an item's lazy classification fields.
func (h *Handler) HandleClassify(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Classify rejected", err)
	}
	var req classifyRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Classify rejected", apperr.Invalid("malformed request body", err))
	}
	if err := h.service.Store().SetClassification(c.Context(), kind, c.Params("id"), req.SourceGame, req.Style, req.Tags); err != nil {
		return h.fail(c, "Classify failed", err)
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

// HandleEnable uncomments a roster entry.
func (h *Handler) HandleEnable(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Enable rejected", err)
	}
	if err := h.service.EnableEntry(c.Context(), kind, entryKey(c)); err != nil {
		return h.fail(c, "Enable failed", err)
	}
	return c.JSON(fiber.Map{"status": "enabled"})
}

// HandleDisable comments out a roster entry.
func (h *Handler) HandleDisable(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Disable rejected", err)
	}
	if err := h.service.DisableEntry(c.Context(), kind, entryKey(c)); err != nil {
		return h.fail(c, "Disable failed", err)
	}
	return c.JSON(fiber.Map{"status": "disabled"})
}

// HandleRemove deletes a roster entry's line.
func (h *Handler) HandleRemove(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Remove rejected", err)
	}
	if err := h.service.RemoveEntry(c.Context(), kind, entryKey(c)); err != nil {
		return h.fail(c, "Remove failed", err)
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

// HandleRegister adds a roster entry for an unregistered item.
func (h *Handler) HandleRegister(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return h.fail(c, "Register rejected", err)
	}
	if err := h.service.RegisterEntry(c.Context(), kind, c.Params("id")); err != nil {
		return h.fail(c, "Register failed", err)
	}
	return c.JSON(fiber.Map{"status": "registered"})
}

type reorderRequest struct {
	Keys []string `json:"keys"`
}

// HandleReorder rewrites a section's entry order.
func (h *Handler) HandleReorder(c *fiber.Ctx) error {
	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Reorder rejected", apperr.Invalid("malformed request body", err))
	}
	if err := h.service.ReorderEntries(c.Context(), c.Params("section"), req.Keys); err != nil {
		return h.fail(c, "Reorder failed", err)
	}
	return c.JSON(fiber.Map{"status": "reordered"})
}
