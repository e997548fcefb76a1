package subject

import (
	"strconv"

	"github.com/escolarhq/academico-api/services"
	"github.com/escolarhq/academico-api/utils/response"
	"github.com/escolarhq/academico-api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// SubjectHandler handles subject catalog requests
type SubjectHandler struct {
	validator *validation.Validator
	catalog   *services.SubjectCatalogService
	audit     services.AuditSink
}

// NewSubjectHandler creates a new subject handler
func NewSubjectHandler(catalog *services.SubjectCatalogService, audit services.AuditSink) *SubjectHandler {
	return &SubjectHandler{
		validator: validation.NewValidator(),
		catalog:   catalog,
		audit:     audit,
	}
}

// CreateSubjectRequest represents the request body for creating a subject
type CreateSubjectRequest struct {
	Code        string `json:"code" validate:"required,min=2,max=50"`
	Name        string `json:"name" validate:"required,min=2,max=255"`
	AreaID      *uint  `json:"area_id"`
	WeeklyHours int    `json:"weekly_hours" validate:"min=0,max=60"`
	Credits     int    `json:"credits" validate:"min=0,max=20"`
	IsMandatory bool   `json:"is_mandatory"`
	HasLab      bool   `json:"has_lab"`
	Active      *bool  `json:"active"`
}

// UpdateSubjectRequest represents the request body for updating a subject
type UpdateSubjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	AreaID      *uint  `json:"area_id"`
	WeeklyHours int    `json:"weekly_hours" validate:"min=0,max=60"`
	Credits     int    `json:"credits" validate:"min=0,max=20"`
	IsMandatory bool   `json:"is_mandatory"`
	HasLab      bool   `json:"has_lab"`
	Active      bool   `json:"active"`
}

// actorID extracts the acting user id injected by the upstream gateway
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

// ListSubjects handles GET /api/v1/subjects
func (h *SubjectHandler) ListSubjects(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	filters := services.SubjectFilters{
		Page:     page,
		PageSize: limit,
		Search:   c.Query("search", ""),
	}

	if raw := c.Query("area_id"); raw != "" {
		areaID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid area_id")
		}
		id := uint(areaID)
		filters.AreaID = &id
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filters.Active = &active
	}
	if raw := c.Query("is_mandatory"); raw != "" {
		mandatory := raw == "true"
		filters.IsMandatory = &mandatory
	}

	rows, total, err := h.catalog.List(c.Context(), filters)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	pagination := response.CalculatePagination(page, limit, total)
	return response.Paginated(c, rows, pagination)
}

// GetSubject handles GET /api/v1/subjects/:id
func (h *SubjectHandler) GetSubject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	subject, err := h.catalog.GetWithPrerequisites(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	return response.Success(c, subject)
}

// CreateSubject handles POST /api/v1/subjects
func (h *SubjectHandler) CreateSubject(c *fiber.Ctx) error {
	var req CreateSubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	subject, err := h.catalog.Create(c.Context(), services.CreateSubjectInput{
		Code:        req.Code,
		Name:        req.Name,
		AreaID:      req.AreaID,
		WeeklyHours: req.WeeklyHours,
		Credits:     req.Credits,
		IsMandatory: req.IsMandatory,
		HasLab:      req.HasLab,
		Active:      active,
	})
	if err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "subject_create",
		Module:   "subjects",
		Table:    "subjects",
		RecordID: subject.ID,
		After:    subject,
		Result:   "success",
		Message:  "Subject " + subject.Code + " created",
	})

	return response.Created(c, subject)
}

// UpdateSubject handles PUT /api/v1/subjects/:id
func (h *SubjectHandler) UpdateSubject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	var req UpdateSubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	before, err := h.catalog.GetByID(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	subject, err := h.catalog.Update(c.Context(), id, services.UpdateSubjectInput{
		Name:        req.Name,
		AreaID:      req.AreaID,
		WeeklyHours: req.WeeklyHours,
		Credits:     req.Credits,
		IsMandatory: req.IsMandatory,
		HasLab:      req.HasLab,
		Active:      req.Active,
	})
	if err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "subject_update",
		Module:   "subjects",
		Table:    "subjects",
		RecordID: subject.ID,
		Before:   before,
		After:    subject,
		Result:   "success",
		Message:  "Subject " + subject.Code + " updated",
	})

	return response.Success(c, subject)
}

// DeleteSubject handles DELETE /api/v1/subjects/:id (soft delete)
func (h *SubjectHandler) DeleteSubject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	before, err := h.catalog.GetByID(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	if err := h.catalog.SoftDelete(c.Context(), id); err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "subject_delete",
		Module:   "subjects",
		Table:    "subjects",
		RecordID: id,
		Before:   before,
		Result:   "success",
		Message:  "Subject " + before.Code + " soft-deleted",
	})

	return response.SuccessWithMessage(c, "Subject deleted successfully", fiber.Map{"id": id})
}
