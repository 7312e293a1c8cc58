package contracts

import (
	contractsvc "procurement-portal/internal/application/contracts"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/interfaces/handlers"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *contractsvc.Service
}

func viewer(c *fiber.Ctx) contractsvc.Viewer {
	return contractsvc.Viewer{ID: handlers.Actor(c).ID, IsAdmin: handlers.IsAdmin(c)}
}

// List GET /api/v1/contracts?status=
func (h *Handlers) List(c *fiber.Ctx) error {
	status := domain.ContractStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return response.Error(c, "Invalid status", fiber.StatusBadRequest, nil)
	}
	out, err := h.Service.ListContracts(c.UserContext(), viewer(c), status)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Contracts found", fiber.Map{"contracts": out}, fiber.Map{"count": len(out)})
}

// Get GET /api/v1/contracts/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	contract, err := h.Service.GetContract(c.UserContext(), viewer(c), id)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Contract found", fiber.Map{"contract": contract}, nil)
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetStatus PATCH /api/v1/contracts/:id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	var req StatusRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	contract, err := h.Service.SetContractStatus(c.UserContext(), handlers.Actor(c).ID, id, domain.ContractStatus(req.Status))
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Contract status updated successfully", fiber.Map{"contract": contract}, nil)
}
