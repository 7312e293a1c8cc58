package rfps

import (
	"errors"

	"procurement-portal/internal/application/lifecycle"
)

var (
	ErrRFPNotFound      = lifecycle.ErrRFPNotFound
	ErrInvalidRFP       = errors.New("Title, description, category and submission deadline are required")
	ErrDeadlineInPast   = errors.New("Submission deadline must be in the future")
	ErrCategoryNotFound = errors.New("Category not found")
	ErrCategoryExists   = errors.New("Category already exists")
	ErrInvalidCategory  = errors.New("Category name is required")
	ErrDeadlineLocked   = errors.New("Submission deadline cannot change once bids have been received")
	ErrRFPReadOnly      = errors.New("Awarded or cancelled RFPs cannot be edited")
	ErrDocumentNotFound = errors.New("Document not found")
	ErrInvalidValue     = errors.New("Estimated value must be zero or more")
)
