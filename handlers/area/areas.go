package area

import (
	"strconv"

	"github.com/escolarhq/academico-api/services"
	"github.com/escolarhq/academico-api/utils/response"
	"github.com/escolarhq/academico-api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// AreaHandler handles knowledge area requests
type AreaHandler struct {
	validator *validation.Validator
	areas     *services.AreaService
	audit     services.AuditSink
}

// NewAreaHandler creates a new knowledge area handler
func NewAreaHandler(areas *services.AreaService, audit services.AuditSink) *AreaHandler {
	return &AreaHandler{
		validator: validation.NewValidator(),
		areas:     areas,
		audit:     audit,
	}
}

// AreaRequest represents the request body for creating or updating an area
type AreaRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=120"`
	Color     string `json:"color" validate:"omitempty,max=20"`
	SortOrder int    `json:"order" validate:"min=0"`
}

func actorID(c *fiber.Ctx) uint {
	id, _ := strconv.ParseUint(c.Get("X-Actor-ID"), 10, 32)
	return uint(id)
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, err
	}
	return uint(id), nil
}

// ListAreas handles GET /api/v1/areas
func (h *AreaHandler) ListAreas(c *fiber.Ctx) error {
	areas, err := h.areas.List(c.Context())
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, areas)
}

// CreateArea handles POST /api/v1/areas
func (h *AreaHandler) CreateArea(c *fiber.Ctx) error {
	var req AreaRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	area, err := h.areas.Create(c.Context(), services.AreaInput{
		Name:      req.Name,
		Color:     req.Color,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "area_create",
		Module:   "areas",
		Table:    "knowledge_areas",
		RecordID: area.ID,
		After:    area,
		Result:   "success",
		Message:  "Knowledge area " + area.Name + " created",
	})

	return response.Created(c, area)
}

// UpdateArea handles PUT /api/v1/areas/:id
func (h *AreaHandler) UpdateArea(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid area ID")
	}

	var req AreaRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	area, err := h.areas.Update(c.Context(), id, services.AreaInput{
		Name:      req.Name,
		Color:     req.Color,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "area_update",
		Module:   "areas",
		Table:    "knowledge_areas",
		RecordID: area.ID,
		After:    area,
		Result:   "success",
		Message:  "Knowledge area " + area.Name + " updated",
	})

	return response.Success(c, area)
}

// DeleteArea handles DELETE /api/v1/areas/:id
func (h *AreaHandler) DeleteArea(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid area ID")
	}

	if err := h.areas.Delete(c.Context(), id); err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "area_delete",
		Module:   "areas",
		Table:    "knowledge_areas",
		RecordID: id,
		Result:   "success",
		Message:  "Knowledge area deleted",
	})

	return response.SuccessWithMessage(c, "Knowledge area deleted", fiber.Map{"id": id})
}
