package contracts

import (
	"context"
	"testing"
	"time"

	"procurement-portal/internal/application/notifications"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupContractsTest(t *testing.T) (*Service, domain.Contract) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	cat := domain.Category{Name: "Supplies"}
	require.NoError(t, db.Create(&cat).Error)
	rfp := domain.RFP{ReferenceNumber: "RFP-2025-0009", Title: "Paper", Description: "A4", CategoryID: cat.ID,
		SubmissionDeadline: time.Now(), Status: domain.RFPAwarded, CreatedBy: uuid.New()}
	require.NoError(t, db.Create(&rfp).Error)
	notes := "internal"
	bid := domain.Bid{RFPID: rfp.ID, VendorID: uuid.New(), Amount: 50, Proposal: "p", Status: domain.BidApproved,
		AdminNotes: &notes, SubmittedAt: time.Now()}
	require.NoError(t, db.Create(&bid).Error)
	c := domain.Contract{RFPID: rfp.ID, BidID: bid.ID, VendorID: bid.VendorID, ContractValue: 50,
		StartDate: time.Now(), EndDate: time.Now().AddDate(0, 6, 0), Status: domain.ContractActive}
	require.NoError(t, db.Create(&c).Error)

	return &Service{DB: db, Notifications: &notifications.Service{DB: db}}, c
}

func TestListAndGet_VendorScope(t *testing.T) {
	s, c := setupContractsTest(t)
	ctx := context.Background()

	mine, err := s.ListContracts(ctx, Viewer{ID: c.VendorID}, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Bid)
	assert.Nil(t, mine[0].Bid.AdminNotes)
	require.NotNil(t, mine[0].RFP)
	assert.Equal(t, "RFP-2025-0009", mine[0].RFP.ReferenceNumber)

	others, err := s.ListContracts(ctx, Viewer{ID: uuid.New()}, "")
	require.NoError(t, err)
	assert.Empty(t, others)

	done, err := s.ListContracts(ctx, Viewer{IsAdmin: true}, domain.ContractCompleted)
	require.NoError(t, err)
	assert.Empty(t, done)

	_, err = s.GetContract(ctx, Viewer{ID: uuid.New()}, c.ID)
	assert.ErrorIs(t, err, ErrContractNotFound)
	got, err := s.GetContract(ctx, Viewer{IsAdmin: true}, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Bid.AdminNotes)
}

func TestSetContractStatus(t *testing.T) {
	s, c := setupContractsTest(t)
	ctx := context.Background()
	adminID := uuid.New()

	_, err := s.SetContractStatus(ctx, adminID, c.ID, domain.ContractActive)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.SetContractStatus(ctx, adminID, c.ID, domain.ContractStatus("paused"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.SetContractStatus(ctx, adminID, uuid.New(), domain.ContractCompleted)
	assert.ErrorIs(t, err, ErrContractNotFound)

	got, err := s.SetContractStatus(ctx, adminID, c.ID, domain.ContractCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractCompleted, got.Status)

	_, err = s.SetContractStatus(ctx, adminID, c.ID, domain.ContractTerminated)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var notes []domain.Notification
	require.NoError(t, s.DB.Where("user_id = ?", c.VendorID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, notifications.TypeContractState, notes[0].Type)
	assert.Contains(t, notes[0].Message, "RFP-2025-0009")

	var events int64
	s.DB.Model(&domain.LifecycleEvent{}).Where("entity_id = ?", c.ID).Count(&events)
	assert.Equal(t, int64(1), events)
}
