package rfps

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var clock = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func setupRFPsTest(t *testing.T) (*Service, *documents.MemoryStore, domain.Category) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	cat := domain.Category{Name: "IT Services"}
	require.NoError(t, db.Create(&cat).Error)
	store := documents.NewMemoryStore()
	s := &Service{DB: db, Store: store, ReferencePrefix: "GPHA", Now: func() time.Time { return clock }}
	return s, store, cat
}

func newInput(cat domain.Category) CreateRFPInput {
	return CreateRFPInput{
		Title:              "Network upgrade",
		Description:        "Replace core switches",
		CategoryID:         cat.ID,
		SubmissionDeadline: clock.Add(14 * 24 * time.Hour),
	}
}

var admin = Viewer{ID: uuid.New(), IsAdmin: true}
var vendor = Viewer{ID: uuid.New()}

func TestCreateRFP_ReferenceSequence(t *testing.T) {
	s, _, cat := setupRFPsTest(t)
	ctx := context.Background()

	first, err := s.CreateRFP(ctx, admin.ID, newInput(cat))
	require.NoError(t, err)
	second, err := s.CreateRFP(ctx, admin.ID, newInput(cat))
	require.NoError(t, err)

	assert.Equal(t, "GPHA-2025-0001", first.RFP.ReferenceNumber)
	assert.Equal(t, "GPHA-2025-0002", second.RFP.ReferenceNumber)
	assert.Equal(t, domain.RFPDraft, first.RFP.Status)
	assert.Nil(t, first.RFP.PublishedAt)
}

func TestCreateRFP_PublishNowWithDocuments(t *testing.T) {
	s, store, cat := setupRFPsTest(t)
	in := newInput(cat)
	in.PublishNow = true
	in.Documents = []documents.Upload{{Name: "scope.pdf", ContentType: "application/pdf", Data: []byte("scope")}}

	res, err := s.CreateRFP(context.Background(), admin.ID, in)
	require.NoError(t, err)
	assert.Equal(t, domain.RFPPublished, res.RFP.Status)
	require.NotNil(t, res.RFP.PublishedAt)
	assert.True(t, clock.Equal(*res.RFP.PublishedAt))
	require.Len(t, res.Documents, 1)
	assert.Empty(t, res.FailedDocuments)
	assert.Equal(t, 1, store.Len())

	got, err := s.GetRFP(context.Background(), vendor, res.RFP.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "IT Services", got.Category.Name)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, admin.ID, got.Documents[0].UploadedBy)
}

func TestCreateRFP_Validation(t *testing.T) {
	s, _, cat := setupRFPsTest(t)
	ctx := context.Background()

	in := newInput(cat)
	in.Title = "  "
	_, err := s.CreateRFP(ctx, admin.ID, in)
	assert.ErrorIs(t, err, ErrInvalidRFP)

	in = newInput(cat)
	in.SubmissionDeadline = clock
	_, err = s.CreateRFP(ctx, admin.ID, in)
	assert.ErrorIs(t, err, ErrDeadlineInPast)

	in = newInput(cat)
	in.CategoryID = uuid.New()
	_, err = s.CreateRFP(ctx, admin.ID, in)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	in = newInput(cat)
	neg := -1.0
	in.EstimatedValue = &neg
	_, err = s.CreateRFP(ctx, admin.ID, in)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestEstimatedValue_ZeroAllowed(t *testing.T) {
	s, _, cat := setupRFPsTest(t)
	ctx := context.Background()

	zero := 0.0
	in := newInput(cat)
	in.EstimatedValue = &zero
	res, err := s.CreateRFP(ctx, admin.ID, in)
	require.NoError(t, err)
	require.NotNil(t, res.RFP.EstimatedValue)
	assert.Zero(t, *res.RFP.EstimatedValue)

	value := 2500.0
	got, err := s.UpdateRFP(ctx, admin.ID, res.RFP.ID, UpdateRFPInput{EstimatedValue: &value})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, *got.EstimatedValue)

	got, err = s.UpdateRFP(ctx, admin.ID, res.RFP.ID, UpdateRFPInput{EstimatedValue: &zero})
	require.NoError(t, err)
	assert.Zero(t, *got.EstimatedValue)

	nan := math.NaN()
	_, err = s.UpdateRFP(ctx, admin.ID, res.RFP.ID, UpdateRFPInput{EstimatedValue: &nan})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestUpdateRFP_LocksRowForUpdate(t *testing.T) {
	s, _, cat := setupRFPsTest(t)
	ctx := context.Background()
	res, err := s.CreateRFP(ctx, admin.ID, newInput(cat))
	require.NoError(t, err)

	var locked bool
	require.NoError(t, s.DB.Callback().Query().Before("gorm:query").Register("test:rfp_lock", func(db *gorm.DB) {
		if db.Statement.Table != "rfps" {
			return
		}
		if c, ok := db.Statement.Clauses["FOR"]; ok {
			if l, ok := c.Expression.(clause.Locking); ok && l.Strength == "UPDATE" {
				locked = true
			}
		}
	}))

	later := clock.Add(20 * 24 * time.Hour)
	_, err = s.UpdateRFP(ctx, admin.ID, res.RFP.ID, UpdateRFPInput{SubmissionDeadline: &later})
	require.NoError(t, err)
	assert.True(t, locked, "UpdateRFP must read the RFP with FOR UPDATE")
}

func TestUpdateRFP_DeadlineLockedOnceBidsExist(t *testing.T) {
	s, _, cat := setupRFPsTest(t)
	ctx := context.Background()
	in := newInput(cat)
	in.PublishNow = true
	res, err := s.CreateRFP(ctx, admin.ID, in)
	require.NoError(t, err)

	later := clock.Add(30 * 24 * time.Hour)
	title := "Network upgrade phase 2"
	got, err := s.UpdateRFP(ctx, admin.ID, res.RFP.ID, UpdateRFPInput{Title: &title, SubmissionDeadline: &later})
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.True(t, later.Equal(got.SubmissionDeadline))

	bid := domain.Bid{RFPID: res.RFP.ID, VendorID: vendor.ID, Amount: 10, Proposal: "p", Status: domain.BidPending, SubmittedAt: clock}
	require.NoError(t, s.DB.Create(&bid).Error)

	evenLater := later.Add(time.Hour)
	_, err = s.UpdateRFP(ctx, admin.ID, res.RFP.ID, UpdateRFPInput{SubmissionDeadline: &evenLater})
	assert.ErrorIs(t, err, ErrDeadlineLocked)

	// Same deadline is not a change.
	_, err = s.UpdateRFP(ctx, admin.ID, res.RFP.ID, UpdateRFPInput{Title: &title, SubmissionDeadline: &later})
	assert.NoError(t, err)
}

func TestUpdateRFP_ReadOnlyWhenTerminal(t *testing.T) {
	s, _, cat := setupRFPsTest(t)
	ctx := context.Background()
	res, err := s.CreateRFP(ctx, admin.ID, newInput(cat))
	require.NoError(t, err)
	require.NoError(t, s.DB.Model(&domain.RFP{}).Where("id = ?", res.RFP.ID).Update("status", domain.RFPCancelled).Error)

	title := "x"
	_, err = s.UpdateRFP(ctx, admin.ID, res.RFP.ID, UpdateRFPInput{Title: &title})
	assert.ErrorIs(t, err, ErrRFPReadOnly)
	_, err = s.UpdateRFP(ctx, admin.ID, uuid.New(), UpdateRFPInput{Title: &title})
	assert.ErrorIs(t, err, ErrRFPNotFound)
	_, _, err = s.AddDocuments(ctx, admin.ID, res.RFP.ID, []documents.Upload{{Name: "a.txt", Data: []byte("a")}})
	assert.ErrorIs(t, err, ErrRFPReadOnly)
}

func TestListAndGet_VisibilityBySide(t *testing.T) {
	s, _, cat := setupRFPsTest(t)
	ctx := context.Background()
	draft, err := s.CreateRFP(ctx, admin.ID, newInput(cat))
	require.NoError(t, err)
	pub := newInput(cat)
	pub.Title = "Fleet maintenance"
	pub.PublishNow = true
	published, err := s.CreateRFP(ctx, admin.ID, pub)
	require.NoError(t, err)

	_, err = s.GetRFP(ctx, vendor, draft.RFP.ID)
	assert.ErrorIs(t, err, ErrRFPNotFound)
	_, err = s.GetRFP(ctx, admin, draft.RFP.ID)
	assert.NoError(t, err)

	list, err := s.ListRFPs(ctx, vendor, ListFilter{Status: domain.RFPDraft})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, published.RFP.ID, list[0].ID)

	list, err = s.ListRFPs(ctx, admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.ListRFPs(ctx, admin, ListFilter{Search: "FLEET"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, published.RFP.ID, list[0].ID)

	list, err = s.ListRFPs(ctx, admin, ListFilter{Search: "gpha-2025-0001"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, draft.RFP.ID, list[0].ID)

	other := uuid.New()
	list, err = s.ListRFPs(ctx, admin, ListFilter{CategoryID: &other})
	require.NoError(t, err)
	assert.Empty(t, list)
}

type brokenStore struct{ *documents.MemoryStore }

func (brokenStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	return errors.New("bucket offline")
}

func TestDocuments_AddDownloadRemove(t *testing.T) {
	s, store, cat := setupRFPsTest(t)
	ctx := context.Background()
	res, err := s.CreateRFP(ctx, admin.ID, newInput(cat))
	require.NoError(t, err)
	rfpID := res.RFP.ID

	docs, failed, err := s.AddDocuments(ctx, admin.ID, rfpID, []documents.Upload{{Name: "annex.docx", Data: []byte("annex")}})
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, docs, 1)

	// Draft attachments are hidden from vendors.
	_, _, err = s.DownloadDocument(ctx, vendor, rfpID, docs[0].ID)
	assert.ErrorIs(t, err, ErrRFPNotFound)

	doc, data, err := s.DownloadDocument(ctx, admin, rfpID, docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "annex.docx", doc.Name)
	assert.Equal(t, []byte("annex"), data)

	require.NoError(t, s.RemoveDocument(ctx, rfpID, docs[0].ID))
	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, s.RemoveDocument(ctx, rfpID, docs[0].ID), ErrDocumentNotFound)

	s.Store = brokenStore{store}
	docs, failed, err = s.AddDocuments(ctx, admin.ID, rfpID, []documents.Upload{{Name: "lost.pdf", Data: []byte("x")}})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, []string{"lost.pdf"}, failed)
}

func TestCategories(t *testing.T) {
	s, _, _ := setupRFPsTest(t)
	ctx := context.Background()

	_, err := s.CreateCategory(ctx, "Construction", nil)
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, "Construction", nil)
	assert.ErrorIs(t, err, ErrCategoryExists)
	_, err = s.CreateCategory(ctx, " ", nil)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Construction", cats[0].Name)
	assert.Equal(t, "IT Services", cats[1].Name)
}
