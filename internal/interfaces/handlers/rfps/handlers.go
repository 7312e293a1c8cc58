package rfps

import (
	"procurement-portal/internal/application/lifecycle"
	rfpsvc "procurement-portal/internal/application/rfps"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/interfaces/handlers"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const documentsField = "documents"

type Handlers struct {
	Service        *rfpsvc.Service
	Lifecycle      *lifecycle.Manager
	MaxUploadBytes int64
}

func viewer(c *fiber.Ctx) rfpsvc.Viewer {
	return rfpsvc.Viewer{ID: handlers.Actor(c).ID, IsAdmin: handlers.IsAdmin(c)}
}

// List GET /api/v1/rfps?status=&category_id=&search=
func (h *Handlers) List(c *fiber.Ctx) error {
	categoryID, ok := handlers.QueryUUID(c, "category_id")
	if !ok {
		return nil
	}
	status := domain.RFPStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return response.Error(c, "Invalid status", fiber.StatusBadRequest, nil)
	}
	out, err := h.Service.ListRFPs(c.UserContext(), viewer(c), rfpsvc.ListFilter{
		Status:     status,
		CategoryID: categoryID,
		Search:     c.Query("search"),
	})
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "RFPs found", fiber.Map{"rfps": out}, fiber.Map{"count": len(out)})
}

// CreateRequest accepts JSON or a multipart form with files under "documents".
type CreateRequest struct {
	Title              string   `json:"title" form:"title" validate:"required,notblank"`
	Description        string   `json:"description" form:"description" validate:"required,notblank"`
	CategoryID         string   `json:"category_id" form:"category_id" validate:"required,uuid"`
	EstimatedValue     *float64 `json:"estimated_value" form:"estimated_value"`
	SubmissionDeadline string   `json:"submission_deadline" form:"submission_deadline" validate:"required"`
	Requirements       *string  `json:"requirements" form:"requirements"`
	EvaluationCriteria *string  `json:"evaluation_criteria" form:"evaluation_criteria"`
	PublishNow         bool     `json:"publish_now" form:"publish_now"`
}

// Create POST /api/v1/rfps
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	deadline, ok := handlers.ParseTime(req.SubmissionDeadline)
	if !ok {
		return response.Error(c, "Invalid submission_deadline", fiber.StatusBadRequest, nil)
	}
	uploads, ok := handlers.Uploads(c, documentsField, h.MaxUploadBytes)
	if !ok {
		return nil
	}
	res, err := h.Service.CreateRFP(c.UserContext(), handlers.Actor(c).ID, rfpsvc.CreateRFPInput{
		Title:              req.Title,
		Description:        req.Description,
		CategoryID:         uuid.MustParse(req.CategoryID),
		EstimatedValue:     req.EstimatedValue,
		SubmissionDeadline: deadline,
		Requirements:       req.Requirements,
		EvaluationCriteria: req.EvaluationCriteria,
		PublishNow:         req.PublishNow,
		Documents:          uploads,
	})
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.SuccessCreated(c, "RFP created successfully", res, nil)
}

// Get GET /api/v1/rfps/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	rfp, err := h.Service.GetRFP(c.UserContext(), viewer(c), id)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "RFP found", fiber.Map{"rfp": rfp}, nil)
}

// UpdateRequest changes only the fields present in the body.
type UpdateRequest struct {
	Title              *string  `json:"title"`
	Description        *string  `json:"description"`
	CategoryID         *string  `json:"category_id" validate:"omitempty,uuid"`
	EstimatedValue     *float64 `json:"estimated_value"`
	SubmissionDeadline *string  `json:"submission_deadline"`
	Requirements       *string  `json:"requirements"`
	EvaluationCriteria *string  `json:"evaluation_criteria"`
}

// Update PUT /api/v1/rfps/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	var req UpdateRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	in := rfpsvc.UpdateRFPInput{
		Title:              req.Title,
		Description:        req.Description,
		EstimatedValue:     req.EstimatedValue,
		Requirements:       req.Requirements,
		EvaluationCriteria: req.EvaluationCriteria,
	}
	if req.CategoryID != nil {
		cid := uuid.MustParse(*req.CategoryID)
		in.CategoryID = &cid
	}
	if req.SubmissionDeadline != nil {
		t, ok := handlers.ParseTime(*req.SubmissionDeadline)
		if !ok {
			return response.Error(c, "Invalid submission_deadline", fiber.StatusBadRequest, nil)
		}
		in.SubmissionDeadline = &t
	}
	rfp, err := h.Service.UpdateRFP(c.UserContext(), handlers.Actor(c).ID, id, in)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "RFP updated successfully", fiber.Map{"rfp": rfp}, nil)
}

// StatusRequest body for PATCH .../status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetStatus PATCH /api/v1/rfps/:id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	var req StatusRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	rfp, err := h.Lifecycle.SetRFPStatus(c.UserContext(), handlers.Actor(c).ID, id, domain.RFPStatus(req.Status))
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "RFP status updated successfully", fiber.Map{"rfp": rfp}, nil)
}

// Integrity GET /api/v1/rfps/:id/integrity: 200 when the award state is consistent, 409 otherwise.
func (h *Handlers) Integrity(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	if err := h.Lifecycle.VerifyAward(c.UserContext(), id); err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Award state is consistent", fiber.Map{"rfp_id": id, "consistent": true}, nil)
}

// AddDocuments POST /api/v1/rfps/:id/documents (multipart, field "documents")
func (h *Handlers) AddDocuments(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	uploads, ok := handlers.Uploads(c, documentsField, h.MaxUploadBytes)
	if !ok {
		return nil
	}
	if len(uploads) == 0 {
		return response.Error(c, "At least one document is required", fiber.StatusBadRequest, nil)
	}
	docs, failed, err := h.Service.AddDocuments(c.UserContext(), handlers.Actor(c).ID, id, uploads)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.SuccessCreated(c, "Documents uploaded", fiber.Map{
		"documents":        docs,
		"failed_documents": failed,
	}, nil)
}

// RemoveDocument DELETE /api/v1/rfps/:id/documents/:docId
func (h *Handlers) RemoveDocument(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	docID, ok := handlers.ParamUUID(c, "docId")
	if !ok {
		return nil
	}
	if err := h.Service.RemoveDocument(c.UserContext(), id, docID); err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Document removed", nil, nil)
}

// DownloadDocument GET /api/v1/rfps/:id/documents/:docId
func (h *Handlers) DownloadDocument(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	docID, ok := handlers.ParamUUID(c, "docId")
	if !ok {
		return nil
	}
	doc, data, err := h.Service.DownloadDocument(c.UserContext(), viewer(c), id, docID)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return handlers.SendFile(c, doc.Name, doc.FileType, data)
}

// ListCategories GET /api/v1/categories
func (h *Handlers) ListCategories(c *fiber.Ctx) error {
	out, err := h.Service.ListCategories(c.UserContext())
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Categories found", fiber.Map{"categories": out}, nil)
}

// CategoryRequest body.
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,notblank,max=100"`
	Description *string `json:"description"`
}

// CreateCategory POST /api/v1/categories
func (h *Handlers) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	cat, err := h.Service.CreateCategory(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.SuccessCreated(c, "Category created successfully", fiber.Map{"category": cat}, nil)
}
