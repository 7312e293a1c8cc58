package profiles

import (
	"context"
	"errors"
	"strings"

	"procurement-portal/internal/application/emails"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/infrastructure/database"
	"procurement-portal/internal/pkg/constants"
	"procurement-portal/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail    = errors.New("Invalid email format")
	ErrInvalidPassword = errors.New("Password must be at least 8 characters and contain a letter, a number and a special character")
	ErrEmailTaken      = errors.New("Email already registered")
	ErrProfileNotFound = errors.New("Profile not found")
	ErrNoUpdateFields  = errors.New("No valid update fields provided")
)

const bcryptCost = 10

// Service manages portal accounts.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client // sessions of a user whose role changes are destroyed here
	// EmailSender sends the welcome email after registration when set.
	EmailSender emails.Sender
}

// CompanyFields are the vendor company details. Nil leaves a field untouched on update.
type CompanyFields struct {
	CompanyName         *string `json:"company_name"`
	CompanyAddress      *string `json:"company_address"`
	CompanyPhone        *string `json:"company_phone"`
	CompanyRegistration *string `json:"company_registration"`
	ContactPerson       *string `json:"contact_person"`
}

// RegisterInput is a vendor self-registration.
type RegisterInput struct {
	Email    string
	Password string
	CompanyFields
}

// Register creates a vendor profile with its company details in one insert.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrInvalidPassword
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&domain.Profile{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	p := &domain.Profile{
		Email:               email,
		PasswordHash:        string(hash),
		Role:                constants.Vendor,
		CompanyName:         trimmed(in.CompanyName),
		CompanyAddress:      trimmed(in.CompanyAddress),
		CompanyPhone:        trimmed(in.CompanyPhone),
		CompanyRegistration: trimmed(in.CompanyRegistration),
		ContactPerson:       trimmed(in.ContactPerson),
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if s.EmailSender != nil {
		company := ""
		if p.CompanyName != nil {
			company = *p.CompanyName
		}
		if err := s.EmailSender.SendWelcome(ctx, p.Email, company); err != nil {
			log.Warn().Err(err).Str("user_id", p.ID.String()).Msg("profiles: welcome email failed")
		}
	}
	return p, nil
}

// GetProfile returns a profile by id.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile writes the non-nil company fields. An empty string clears a field.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in CompanyFields) (*domain.Profile, error) {
	upd := map[string]interface{}{}
	set := func(col string, v *string) {
		if v == nil {
			return
		}
		if t := trimmed(v); t != nil {
			upd[col] = *t
		} else {
			upd[col] = nil
		}
	}
	set("company_name", in.CompanyName)
	set("company_address", in.CompanyAddress)
	set("company_phone", in.CompanyPhone)
	set("company_registration", in.CompanyRegistration)
	set("contact_person", in.ContactPerson)
	if len(upd) == 0 {
		return nil, ErrNoUpdateFields
	}

	res := s.DB.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", id).Updates(upd)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}
	return s.GetProfile(ctx, id)
}

// ListProfiles returns all profiles, optionally filtered by role, newest first.
func (s *Service) ListProfiles(ctx context.Context, role string) ([]domain.Profile, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Profile{})
	if role != "" {
		if !constants.IsValidRole(role) {
			return nil, ErrInvalidRole
		}
		q = q.Where("role = ?", role)
	}
	var out []domain.Profile
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetRole changes another user's role and signs them out everywhere.
func (s *Service) SetRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*domain.Profile, error) {
	var target domain.Profile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ValidateRoleChange(tx, actorID, targetID, role); err != nil {
			return err
		}
		if err := tx.Where("id = ?", targetID).First(&target).Error; err != nil {
			return err
		}
		if target.Role == role {
			return nil
		}
		target.Role = role
		return tx.Model(&target).Update("role", role).Error
	})
	if err != nil {
		return nil, err
	}
	DestroyUserSessions(ctx, s.Rdb, targetID.String())
	return &target, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
