package rfps

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/application/lifecycle"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const referenceAttempts = 5

// Service manages RFP authoring, browsing and RFP attachments. Status changes go through lifecycle.Manager.
type Service struct {
	DB              *gorm.DB
	Store           documents.Store
	ReferencePrefix string
	Now             func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Viewer is who is asking. Vendors never see drafts.
type Viewer struct {
	ID      uuid.UUID
	IsAdmin bool
}

// CreateRFPInput is a new RFP from the admin form.
type CreateRFPInput struct {
	Title              string
	Description        string
	CategoryID         uuid.UUID
	EstimatedValue     *float64
	SubmissionDeadline time.Time
	Requirements       *string
	EvaluationCriteria *string
	PublishNow         bool
	Documents          []documents.Upload
}

// CreateRFPResult carries the new RFP and the attachments that could not be stored.
type CreateRFPResult struct {
	RFP             *domain.RFP          `json:"rfp"`
	Documents       []domain.RFPDocument `json:"documents"`
	FailedDocuments []string             `json:"failed_documents"`
}

// CreateRFP inserts a draft, or a published RFP when PublishNow is set, with the next reference number.
func (s *Service) CreateRFP(ctx context.Context, adminID uuid.UUID, in CreateRFPInput) (*CreateRFPResult, error) {
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if title == "" || desc == "" || in.CategoryID == uuid.Nil || in.SubmissionDeadline.IsZero() {
		return nil, ErrInvalidRFP
	}
	if err := validValue(in.EstimatedValue); err != nil {
		return nil, err
	}
	now := s.now()
	if !in.SubmissionDeadline.After(now) {
		return nil, ErrDeadlineInPast
	}
	if err := s.ensureCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	rfp := &domain.RFP{
		Title:              title,
		Description:        desc,
		CategoryID:         in.CategoryID,
		EstimatedValue:     in.EstimatedValue,
		SubmissionDeadline: in.SubmissionDeadline.UTC(),
		Status:             domain.RFPDraft,
		Requirements:       trimmedOrNil(in.Requirements),
		EvaluationCriteria: trimmedOrNil(in.EvaluationCriteria),
		CreatedBy:          adminID,
	}
	if in.PublishNow {
		rfp.Status = domain.RFPPublished
		rfp.PublishedAt = &now
	}

	var err error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		rfp.ID = uuid.Nil
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ref, err := nextReference(tx, s.prefix(), now.Year())
			if err != nil {
				return err
			}
			rfp.ReferenceNumber = ref
			if err := tx.Create(rfp).Error; err != nil {
				return err
			}
			return lifecycle.RecordEvent(tx, domain.EntityRFP, rfp.ID, "CREATED", adminID, map[string]interface{}{
				"reference_number": rfp.ReferenceNumber,
				"status":           rfp.Status,
			})
		})
		if err == nil || !database.IsUniqueViolation(err) {
			break
		}
		log.Debug().Str("reference", rfp.ReferenceNumber).Int("attempt", attempt+1).Msg("rfps: reference collision, retrying")
	}
	if err != nil {
		return nil, err
	}

	docs, failed := s.storeDocuments(ctx, adminID, rfp.ID, in.Documents)
	return &CreateRFPResult{RFP: rfp, Documents: docs, FailedDocuments: failed}, nil
}

func (s *Service) prefix() string {
	if s.ReferencePrefix == "" {
		return "RFP"
	}
	return s.ReferencePrefix
}

// nextReference returns PREFIX-YYYY-NNNN one past the highest sequence issued this year.
func nextReference(tx *gorm.DB, prefix string, year int) (string, error) {
	head := fmt.Sprintf("%s-%d-", prefix, year)
	var refs []string
	if err := tx.Model(&domain.RFP{}).Where("reference_number LIKE ?", head+"%").
		Pluck("reference_number", &refs).Error; err != nil {
		return "", err
	}
	highest := 0
	for _, r := range refs {
		n, err := strconv.Atoi(strings.TrimPrefix(r, head))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%04d", head, highest+1), nil
}

// UpdateRFPInput carries the fields to change; nil leaves a field as is.
type UpdateRFPInput struct {
	Title              *string
	Description        *string
	CategoryID         *uuid.UUID
	EstimatedValue     *float64
	SubmissionDeadline *time.Time
	Requirements       *string
	EvaluationCriteria *string
}

// UpdateRFP edits an RFP that is not awarded or cancelled. The deadline is frozen once a bid exists.
func (s *Service) UpdateRFP(ctx context.Context, adminID, rfpID uuid.UUID, in UpdateRFPInput) (*domain.RFP, error) {
	if err := validValue(in.EstimatedValue); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if err := s.ensureCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Bid inserts hold FOR SHARE on the RFP, so the bid count below cannot change under us.
		var rfp domain.RFP
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", rfpID).First(&rfp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRFPNotFound
			}
			return err
		}
		if !rfp.Status.Editable() {
			return ErrRFPReadOnly
		}

		upd := map[string]interface{}{}
		if in.Title != nil {
			t := strings.TrimSpace(*in.Title)
			if t == "" {
				return ErrInvalidRFP
			}
			upd["title"] = t
		}
		if in.Description != nil {
			d := strings.TrimSpace(*in.Description)
			if d == "" {
				return ErrInvalidRFP
			}
			upd["description"] = d
		}
		if in.CategoryID != nil {
			upd["category_id"] = *in.CategoryID
		}
		if in.EstimatedValue != nil {
			upd["estimated_value"] = *in.EstimatedValue
		}
		if in.Requirements != nil {
			upd["requirements"] = trimmedOrNil(in.Requirements)
		}
		if in.EvaluationCriteria != nil {
			upd["evaluation_criteria"] = trimmedOrNil(in.EvaluationCriteria)
		}
		if in.SubmissionDeadline != nil && !in.SubmissionDeadline.Equal(rfp.SubmissionDeadline) {
			var bids int64
			if err := tx.Model(&domain.Bid{}).Where("rfp_id = ?", rfpID).Count(&bids).Error; err != nil {
				return err
			}
			if bids > 0 {
				return ErrDeadlineLocked
			}
			if !in.SubmissionDeadline.After(s.now()) {
				return ErrDeadlineInPast
			}
			upd["submission_deadline"] = in.SubmissionDeadline.UTC()
		}
		if len(upd) == 0 {
			return nil
		}
		upd["updated_at"] = s.now()
		if err := tx.Model(&domain.RFP{}).Where("id = ?", rfpID).Updates(upd).Error; err != nil {
			return err
		}
		fields := make([]string, 0, len(upd))
		for k := range upd {
			if k != "updated_at" {
				fields = append(fields, k)
			}
		}
		return lifecycle.RecordEvent(tx, domain.EntityRFP, rfpID, "UPDATED", adminID, map[string]interface{}{"fields": fields})
	})
	if err != nil {
		return nil, err
	}
	return s.GetRFP(ctx, Viewer{ID: adminID, IsAdmin: true}, rfpID)
}

// GetRFP loads an RFP with its category and documents.
func (s *Service) GetRFP(ctx context.Context, viewer Viewer, rfpID uuid.UUID) (*domain.RFP, error) {
	var rfp domain.RFP
	err := s.DB.WithContext(ctx).
		Preload("Category").
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", rfpID).First(&rfp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRFPNotFound
		}
		return nil, err
	}
	if !viewer.IsAdmin && rfp.Status == domain.RFPDraft {
		return nil, ErrRFPNotFound
	}
	return &rfp, nil
}

// ListFilter narrows ListRFPs.
type ListFilter struct {
	Status     domain.RFPStatus
	CategoryID *uuid.UUID
	Search     string
}

// ListRFPs returns RFPs newest first. Vendors only ever see published RFPs.
func (s *Service) ListRFPs(ctx context.Context, viewer Viewer, f ListFilter) ([]domain.RFP, error) {
	q := s.DB.WithContext(ctx).Model(&domain.RFP{}).Preload("Category")
	switch {
	case !viewer.IsAdmin:
		q = q.Where("status = ?", domain.RFPPublished)
	case f.Status != "":
		q = q.Where("status = ?", f.Status)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(reference_number) LIKE ?", like, like, like)
	}
	var out []domain.RFP
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func validValue(v *float64) error {
	if v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
		return ErrInvalidValue
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
