package curriculum

import (
	"strconv"

	"github.com/escolarhq/academico-api/services"
	"github.com/escolarhq/academico-api/utils/response"
	"github.com/escolarhq/academico-api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// CurriculumHandler handles grade-subject assignment requests
type CurriculumHandler struct {
	validator  *validation.Validator
	curriculum *services.CurriculumService
	audit      services.AuditSink
}

// NewCurriculumHandler creates a new curriculum handler
func NewCurriculumHandler(curriculum *services.CurriculumService, audit services.AuditSink) *CurriculumHandler {
	return &CurriculumHandler{
		validator:  validation.NewValidator(),
		curriculum: curriculum,
		audit:      audit,
	}
}

// AssignSubjectRequest represents the request body for assigning a subject
// to a grade
type AssignSubjectRequest struct {
	SubjectID        uint     `json:"subject_id" validate:"required"`
	Order            int      `json:"order" validate:"min=0"`
	Active           *bool    `json:"active"`
	MinPassingGrade  *float64 `json:"min_passing_grade" validate:"omitempty,gte=0,lte=100"`
	WeightPercentage *float64 `json:"weight_percentage" validate:"omitempty,gte=0,lte=100"`
}

// UpdateAssignmentRequest represents the request body for patching an
// assignment
type UpdateAssignmentRequest struct {
	Order            *int     `json:"order" validate:"omitempty,min=1"`
	Active           *bool    `json:"active"`
	MinPassingGrade  *float64 `json:"min_passing_grade" validate:"omitempty,gte=0,lte=100"`
	WeightPercentage *float64 `json:"weight_percentage" validate:"omitempty,gte=0,lte=100"`
}

// ReorderRequest represents the request body for rewriting a grade's
// subject ordering
type ReorderRequest struct {
	SubjectIDs []uint `json:"subject_ids" validate:"required,min=1,dive,required"`
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

// ListByGrade handles GET /api/v1/grades/:grade_id/subjects
func (h *CurriculumHandler) ListByGrade(c *fiber.Ctx) error {
	gradeID, err := parseID(c, "grade_id")
	if err != nil {
		return response.BadRequest(c, "Invalid grade ID")
	}

	var activeFilter *bool
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		activeFilter = &active
	}

	entries, err := h.curriculum.ListByGrade(c.Context(), gradeID, activeFilter)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	return response.Success(c, entries)
}

// ListGrouped handles GET /api/v1/curriculum
func (h *CurriculumHandler) ListGrouped(c *fiber.Ctx) error {
	activeOnly := c.Query("active_only") == "true"

	grouped, err := h.curriculum.ListAllGroupedByGrade(c.Context(), activeOnly)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	return response.Success(c, grouped)
}

// AssignSubject handles POST /api/v1/grades/:grade_id/subjects
func (h *CurriculumHandler) AssignSubject(c *fiber.Ctx) error {
	gradeID, err := parseID(c, "grade_id")
	if err != nil {
		return response.BadRequest(c, "Invalid grade ID")
	}

	var req AssignSubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Short-circuit duplicates before the transactional assign, so the
	// common case returns without taking the curriculum lock.
	exists, err := h.curriculum.Exists(c.Context(), gradeID, req.SubjectID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	if exists {
		return response.Conflict(c, "Subject already assigned to this grade")
	}

	assignment, err := h.curriculum.Assign(c.Context(), services.AssignSubjectInput{
		GradeID:          gradeID,
		SubjectID:        req.SubjectID,
		Position:         req.Order,
		Active:           req.Active,
		MinPassingGrade:  req.MinPassingGrade,
		WeightPercentage: req.WeightPercentage,
	})
	if err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "curriculum_assign",
		Module:   "curriculum",
		Table:    "grade_subjects",
		RecordID: assignment.ID,
		After:    assignment,
		Result:   "success",
		Message:  "Subject assigned to grade",
	})

	return response.Created(c, assignment)
}

// UpdateAssignment handles PUT /api/v1/curriculum/assignments/:id
func (h *CurriculumHandler) UpdateAssignment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid assignment ID")
	}

	var req UpdateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	assignment, err := h.curriculum.Update(c.Context(), id, services.UpdateAssignmentInput{
		Position:         req.Order,
		Active:           req.Active,
		MinPassingGrade:  req.MinPassingGrade,
		WeightPercentage: req.WeightPercentage,
	})
	if err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "curriculum_update",
		Module:   "curriculum",
		Table:    "grade_subjects",
		RecordID: assignment.ID,
		After:    assignment,
		Result:   "success",
		Message:  "Assignment updated",
	})

	return response.Success(c, assignment)
}

// RemoveAssignment handles DELETE /api/v1/curriculum/assignments/:id
func (h *CurriculumHandler) RemoveAssignment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid assignment ID")
	}

	removed, err := h.curriculum.Remove(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "curriculum_remove",
		Module:   "curriculum",
		Table:    "grade_subjects",
		RecordID: id,
		Before:   removed,
		Result:   "success",
		Message:  "Subject removed from grade",
	})

	return response.SuccessWithMessage(c, "Assignment removed", removed)
}

// Reorder handles PUT /api/v1/grades/:grade_id/subjects/order
func (h *CurriculumHandler) Reorder(c *fiber.Ctx) error {
	gradeID, err := parseID(c, "grade_id")
	if err != nil {
		return response.BadRequest(c, "Invalid grade ID")
	}

	var req ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if err := h.curriculum.Reorder(c.Context(), gradeID, req.SubjectIDs); err != nil {
		return response.FromServiceError(c, err)
	}

	h.audit.Record(c.Context(), services.AuditEntry{
		ActorID:  actorID(c),
		Action:   "curriculum_reorder",
		Module:   "curriculum",
		Table:    "grade_subjects",
		RecordID: gradeID,
		After:    fiber.Map{"grade_id": gradeID, "subject_ids": req.SubjectIDs},
		Result:   "success",
		Message:  "Grade curriculum reordered",
	})

	return response.SuccessWithMessage(c, "Curriculum reordered", fiber.Map{
		"grade_id":    gradeID,
		"subject_ids": req.SubjectIDs,
	})
}
