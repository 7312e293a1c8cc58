package bids

import (
	bidsvc "procurement-portal/internal/application/bids"
	"procurement-portal/internal/application/lifecycle"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/interfaces/handlers"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const documentsField = "documents"

type Handlers struct {
	Service        *bidsvc.Service
	Lifecycle      *lifecycle.Manager
	MaxUploadBytes int64
}

func viewer(c *fiber.Ctx) bidsvc.Viewer {
	return bidsvc.Viewer{ID: handlers.Actor(c).ID, IsAdmin: handlers.IsAdmin(c)}
}

// SubmitRequest accepts JSON or a multipart form with files under "documents".
type SubmitRequest struct {
	Amount   float64 `json:"amount" form:"amount"`
	Proposal string  `json:"proposal" form:"proposal"`
}

// Submit POST /api/v1/rfps/:id/bids
// Amount and proposal rules are enforced by the lifecycle so their errors keep its ordering.
func (h *Handlers) Submit(c *fiber.Ctx) error {
	rfpID, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	var req SubmitRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	uploads, ok := handlers.Uploads(c, documentsField, h.MaxUploadBytes)
	if !ok {
		return nil
	}
	res, err := h.Lifecycle.SubmitBid(c.UserContext(), lifecycle.SubmitBidInput{
		RFPID:     rfpID,
		VendorID:  handlers.Actor(c).ID,
		Amount:    req.Amount,
		Proposal:  req.Proposal,
		Documents: uploads,
	})
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.SuccessCreated(c, "Bid submitted successfully", res, nil)
}

// List GET /api/v1/bids?status=&rfp_id=
// Vendors get their own bids; admins get all of them.
func (h *Handlers) List(c *fiber.Ctx) error {
	rfpID, ok := handlers.QueryUUID(c, "rfp_id")
	if !ok {
		return nil
	}
	status := domain.BidStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return response.Error(c, "Invalid status", fiber.StatusBadRequest, nil)
	}
	f := bidsvc.ListFilter{Status: status, RFPID: rfpID}

	var (
		out []domain.Bid
		err error
	)
	if handlers.IsAdmin(c) {
		out, err = h.Service.ListAll(c.UserContext(), f)
	} else {
		out, err = h.Service.ListForVendor(c.UserContext(), handlers.Actor(c).ID, f)
	}
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Bids found", fiber.Map{"bids": out}, fiber.Map{"count": len(out)})
}

// Get GET /api/v1/bids/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	bid, err := h.Service.GetBid(c.UserContext(), viewer(c), id)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Bid found", fiber.Map{"bid": bid}, nil)
}

// StatusRequest body for PATCH /api/v1/bids/:id/status.
type StatusRequest struct {
	Status     string  `json:"status" validate:"required"`
	AdminNotes *string `json:"admin_notes"`
}

// SetStatus PATCH /api/v1/bids/:id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	var req StatusRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	bid, err := h.Lifecycle.SetBidStatus(c.UserContext(), handlers.Actor(c).ID, id, domain.BidStatus(req.Status), req.AdminNotes)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Bid status updated successfully", fiber.Map{"bid": bid}, nil)
}

// NotesRequest body for PATCH /api/v1/bids/:id/notes. A null or blank value clears the notes.
type NotesRequest struct {
	AdminNotes *string `json:"admin_notes"`
}

// SetNotes PATCH /api/v1/bids/:id/notes
func (h *Handlers) SetNotes(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	var req NotesRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	bid, err := h.Lifecycle.SetBidNotes(c.UserContext(), handlers.Actor(c).ID, id, req.AdminNotes)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Bid notes saved", fiber.Map{"bid": bid}, nil)
}

// Withdraw POST /api/v1/bids/:id/withdraw
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	bid, err := h.Lifecycle.WithdrawBid(c.UserContext(), handlers.Actor(c).ID, id)
	if err != nil {
		return handlers.Fail(c, err)
	}
	bid.RedactForVendor()
	return response.Success(c, "Bid withdrawn", fiber.Map{"bid": bid}, nil)
}

// AwardRequest body for POST /api/v1/bids/:id/award.
type AwardRequest struct {
	ContractValue float64 `json:"contract_value"`
	StartDate     string  `json:"start_date" validate:"required"`
	EndDate       string  `json:"end_date" validate:"required"`
	Terms         *string `json:"terms"`
}

// Award POST /api/v1/bids/:id/award
func (h *Handlers) Award(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	var req AwardRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	start, ok := handlers.ParseTime(req.StartDate)
	if !ok {
		return response.Error(c, "Invalid start_date", fiber.StatusBadRequest, nil)
	}
	end, ok := handlers.ParseTime(req.EndDate)
	if !ok {
		return response.Error(c, "Invalid end_date", fiber.StatusBadRequest, nil)
	}
	contract, err := h.Lifecycle.AwardContract(c.UserContext(), handlers.Actor(c).ID, lifecycle.AwardInput{
		BidID:         id,
		ContractValue: req.ContractValue,
		StartDate:     start,
		EndDate:       end,
		Terms:         req.Terms,
	})
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.SuccessCreated(c, "Contract awarded successfully", fiber.Map{"contract": contract}, nil)
}

// DownloadDocument GET /api/v1/bids/:id/documents/:docId
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
