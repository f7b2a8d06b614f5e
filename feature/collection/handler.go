package collection

import (
	"strconv"

	"roster-manager/core/apperr"
	"roster-manager/core/logger"
	"roster-manager/feature/library"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the collection endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the collection routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	col := app.Group("/collections")
	col.Get("/", h.HandleList)
	col.Post("/", h.HandleCreate)
	col.Get("/:id", h.HandleGet)
	col.Put("/:id", h.HandleUpdate)
	col.Delete("/:id", h.HandleDelete)
	col.Get("/:id/items", h.HandleResolve)
	col.Post("/:id/activate", h.HandleActivate)
	col.Post("/:id/members", h.HandleAddMember)
	col.Delete("/:id/members/:member", h.HandleRemoveMember)
	col.Put("/:id/order", h.HandleReorder)
	col.Get("/containing/:kind/:item", h.HandleContaining)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	logger.WithRayID(h.logger, c).Error(msg, zap.Error(err))
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

// HandleList returns every collection.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	cols, err := h.service.List(c.Context())
	if err != nil {
		return h.fail(c, "Collection list failed", err)
	}
	return c.JSON(cols)
}

// HandleGet returns one collection with members and rules.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	col, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Collection get failed", err)
	}
	return c.JSON(col)
}

// HandleCreate persists a new collection.
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req Collection
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Collection create rejected", apperr.Invalid("malformed request body", err))
	}
	col, err := h.service.Create(c.Context(), req)
	if err != nil {
		return h.fail(c, "Collection create failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(col)
}

// HandleUpdate renames a collection and replaces its assets and rules.
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	var req Collection
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Collection update rejected", apperr.Invalid("malformed request body", err))
	}
	col, err := h.service.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return h.fail(c, "Collection update failed", err)
	}
	return c.JSON(col)
}

// HandleDelete removes a collection. Content is never deleted with it.
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, "Collection delete failed", err)
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// HandleResolve returns the records the collection currently stands for.
func (h *Handler) HandleResolve(c *fiber.Ctx) error {
	recs, err := h.service.Resolve(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Collection resolve failed", err)
	}
	return c.JSON(recs)
}

// HandleActivate marks the collection active, deactivating any other.
func (h *Handler) HandleActivate(c *fiber.Ctx) error {
	if err := h.service.SetActive(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, "Collection activate failed", err)
	}
	return c.JSON(fiber.Map{"status": "active"})
}

type addMemberRequest struct {
	Kind   library.Kind `json:"kind"`
	ItemID string       `json:"item_id"`
	Sub    string       `json:"sub"`
}

// HandleAddMember appends an item to an explicit collection.
func (h *Handler) HandleAddMember(c *fiber.Ctx) error {
	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Member add rejected", apperr.Invalid("malformed request body", err))
	}
	if err := h.service.AddMember(c.Context(), c.Params("id"), req.Kind, req.ItemID, req.Sub); err != nil {
		return h.fail(c, "Member add failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "added"})
}

// HandleRemoveMember deletes one member slot.
func (h *Handler) HandleRemoveMember(c *fiber.Ctx) error {
	memberID, err := strconv.ParseUint(c.Params("member"), 10, 64)
	if err != nil {
		return h.fail(c, "Member remove rejected", apperr.Invalid("member id must be numeric", err))
	}
	if err := h.service.RemoveMember(c.Context(), c.Params("id"), uint(memberID)); err != nil {
		return h.fail(c, "Member remove failed", err)
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

type reorderRequest struct {
	Members []uint `json:"members"`
}

// HandleReorder rewrites an explicit collection's member order.
func (h *Handler) HandleReorder(c *fiber.Ctx) error {
	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Member reorder rejected", apperr.Invalid("malformed request body", err))
	}
	if err := h.service.ReorderMembers(c.Context(), c.Params("id"), req.Members); err != nil {
		return h.fail(c, "Member reorder failed", err)
	}
	return c.JSON(fiber.Map{"status": "reordered"})
}

// HandleContaining returns the collections an item belongs to.
func (h *Handler) HandleContaining(c *fiber.Ctx) error {
	kind := library.Kind(c.Params("kind"))
	if !library.ValidKind(kind) {
		return h.fail(c, "Containing rejected", apperr.Invalid("unknown content kind "+string(kind), nil))
	}
	cols, err := h.service.Containing(c.Context(), kind, c.Params("item"))
	if err != nil {
		return h.fail(c, "Containing failed", err)
	}
	return c.JSON(cols)
}
