package auth

import (
	"errors"

	authsvc "procurement-portal/internal/application/auth"
	"procurement-portal/internal/application/profiles"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/interfaces/handlers"
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Profiles   *profiles.Service
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// LoginRequest body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is a vendor sign-up.
type RegisterRequest struct {
	Email               string  `json:"email" validate:"required,email"`
	Password            string  `json:"password" validate:"required,portal_password"`
	CompanyName         *string `json:"company_name" validate:"required"`
	CompanyAddress      *string `json:"company_address"`
	CompanyPhone        *string `json:"company_phone"`
	CompanyRegistration *string `json:"company_registration"`
	ContactPerson       *string `json:"contact_person"`
}

// Register POST /api/v1/auth/register: create a vendor account and sign it in.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if !handlers.Bind(c, &req) {
		return nil
	}
	p, err := h.Profiles.Register(c.UserContext(), profiles.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		CompanyFields: profiles.CompanyFields{
			CompanyName:         req.CompanyName,
			CompanyAddress:      req.CompanyAddress,
			CompanyPhone:        req.CompanyPhone,
			CompanyRegistration: req.CompanyRegistration,
			ContactPerson:       req.ContactPerson,
		},
	})
	if err != nil {
		return handlers.Fail(c, err)
	}
	if err := h.startSession(c, p); err != nil {
		return handlers.Fail(c, err)
	}
	return response.SuccessCreated(c, "Account created successfully", fiber.Map{"user": sessionShape(p)}, nil)
}

// Login POST /api/v1/auth/login: authenticate, rotate the session id and track it under user_sessions.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}
	if req.Email == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}

	p, err := h.UserFinder.FindByEmailAndPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			log.Info().Str("email", req.Email).Msg("auth: login rejected")
		}
		return handlers.Fail(c, err)
	}
	if err := h.startSession(c, p); err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": sessionShape(p)}, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, p *domain.Profile) error {
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:      p.ID.String(),
		Email:       p.Email,
		Role:        p.Role,
		CompanyName: p.CompanyName,
	})
	if h.Rdb != nil {
		if err := h.Rdb.SAdd(c.UserContext(), profiles.UserSessionsPrefix+p.ID.String(), sessionID).Err(); err != nil {
			return err
		}
	}
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)
	return nil
}

func sessionShape(p *domain.Profile) authsvc.SessionUserShape {
	return authsvc.SessionUserShape{
		UserID:      p.ID.String(),
		Email:       p.Email,
		Role:        p.Role,
		CompanyName: p.CompanyName,
	}
}

// Me GET /api/v1/auth/me: the current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		if middleware.GetSessionID(c) != "" {
			log.Debug().Str("path", c.Path()).Msg("auth/me: session id present but no user in session data")
		}
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: drop the session from Redis and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := c.UserContext()

	if h.Rdb != nil && sessionID != "" {
		if id, ok := middleware.CurrentUser(c); ok {
			_ = h.Rdb.SRem(ctx, profiles.UserSessionsPrefix+id.ID.String(), sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}
