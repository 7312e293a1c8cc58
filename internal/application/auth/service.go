package auth

import (
	"context"
	"errors"
	"strings"

	"procurement-portal/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginInput for login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUserShape is the object stored in session and returned by /me.
type SessionUserShape struct {
	UserID      string  `json:"user_id"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	CompanyName *string `json:"company_name"`
}

// UserFinder abstracts profile lookup by email+password (for production GORM or test doubles).
type UserFinder interface {
	FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.Profile, error)
}

// GormUserFinder implements UserFinder using GORM and bcrypt.
type GormUserFinder struct{ DB *gorm.DB }

func (g *GormUserFinder) FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.Profile, error) {
	return LoginUser(g.DB.WithContext(ctx), LoginInput{Email: email, Password: password})
}

// LoginUser finds the profile by email and verifies the password.
// Unknown email and wrong password return the same error.
func LoginUser(db *gorm.DB, input LoginInput) (*domain.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var p domain.Profile
	if err := db.Where("email = ?", email).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if p.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &p, nil
}

// VerifyUser validates the session user and returns the shape for /me.
func VerifyUser(sessionUser interface{}) (*SessionUserShape, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	userID, _ := m["user_id"].(string)
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	out := &SessionUserShape{
		UserID: userID,
		Email:  str(m["email"]),
		Role:   str(m["role"]),
	}
	if s, ok := m["company_name"].(string); ok {
		out.CompanyName = &s
	}
	return out, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
