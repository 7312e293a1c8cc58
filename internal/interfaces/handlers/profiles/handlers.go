package profiles

import (
	profilesvc "procurement-portal/internal/application/profiles"
	"procurement-portal/internal/interfaces/handlers"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *profilesvc.Service
}

// Get GET /api/v1/profile
func (h *Handlers) Get(c *fiber.Ctx) error {
	p, err := h.Service.GetProfile(c.UserContext(), handlers.Actor(c).ID)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Profile found", fiber.Map{"profile": p}, nil)
}

// Update PUT /api/v1/profile: company fields only. An empty string clears a field.
func (h *Handlers) Update(c *fiber.Ctx) error {
	var req profilesvc.CompanyFields
	if !handlers.Bind(c, &req) {
		return nil
	}
	p, err := h.Service.UpdateProfile(c.UserContext(), handlers.Actor(c).ID, req)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Profile updated successfully", fiber.Map{"profile": p}, nil)
}

// ListUsers GET /api/v1/admin/users?role=
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	users, err := h.Service.ListProfiles(c.UserContext(), c.Query("role"))
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Users found", fiber.Map{"users": users}, fiber.Map{"count": len(users)})
}

// UpdateRoleRequest body.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=vendor admin"`
}

// UpdateRole PATCH /api/v1/admin/users/:id/role
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	targetID, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	var req UpdateRoleRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	p, err := h.Service.SetRole(c.UserContext(), handlers.Actor(c).ID, targetID, req.Role)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "User role updated successfully", fiber.Map{"user": p}, nil)
}
