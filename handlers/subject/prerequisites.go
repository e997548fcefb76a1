package subject

import (
	"github.com/escolarhq/academico-api/services"
	"github.com/escolarhq/academico-api/utils/response"
	"github.com/escolarhq/academico-api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// PrerequisiteHandler handles subject prerequisite requests
type PrerequisiteHandler struct {
	validator     *validation.Validator
	prerequisites *services.PrerequisiteService
	audit         services.AuditSink
}

// NewPrerequisiteHandler creates a new prerequisite handler
func NewPrerequisiteHandler(prerequisites *services.PrerequisiteService, audit services.AuditSink) *PrerequisiteHandler {
	return &PrerequisiteHandler{
		validator:     validation.NewValidator(),
		prerequisites: prerequisites,
		audit:         audit,
	}
}

// AddPrerequisiteRequest represents the request body for adding a prerequisite
type AddPrerequisiteRequest struct {
	PrerequisiteID uint `json:"prerequisite_id" validate:"required"`
}

// ListPrerequisites handles GET /api/v1/subjects/:id/prerequisites
func (h *PrerequisiteHandler) ListPrerequisites(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	subjects, err := h.prerequisites.ListPrerequisites(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	return response.Success(c, subjects)
}

// AddPrerequisite handles POST /api/v1/subjects/:id/prerequisites
func (h *PrerequisiteHandler) AddPrerequisite(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	var req AddPrerequisiteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if err := h.prerequisites.AddPrerequisite(c.Context(), id, req.PrerequisiteID); err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "prerequisite_add",
		Module:   "subjects",
		Table:    "subject_prerequisites",
		RecordID: id,
		After:    fiber.Map{"subject_id": id, "prerequisite_id": req.PrerequisiteID},
		Result:   "success",
		Message:  "Prerequisite added",
	})

	return response.Created(c, fiber.Map{
		"subject_id":      id,
		"prerequisite_id": req.PrerequisiteID,
	})
}

// RemovePrerequisite handles DELETE /api/v1/subjects/:id/prerequisites/:prerequisite_id
func (h *PrerequisiteHandler) RemovePrerequisite(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	prerequisiteID, err := parseID(c, "prerequisite_id")
	if err != nil {
		return response.BadRequest(c, "Invalid prerequisite ID")
	}

	if err := h.prerequisites.RemovePrerequisite(c.Context(), id, prerequisiteID); err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "prerequisite_remove",
		Module:   "subjects",
		Table:    "subject_prerequisites",
		RecordID: id,
		Before:   fiber.Map{"subject_id": id, "prerequisite_id": prerequisiteID},
		Result:   "success",
		Message:  "Prerequisite removed",
	})

	return response.SuccessWithMessage(c, "Prerequisite removed", fiber.Map{
		"subject_id":      id,
		"prerequisite_id": prerequisiteID,
	})
}
