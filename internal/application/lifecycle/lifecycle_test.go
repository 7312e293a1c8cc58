package lifecycle

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/application/notifications"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/infrastructure/database"
	"procurement-portal/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	m      *Manager
	db     *gorm.DB
	store  *documents.MemoryStore
	admin  domain.Profile
	vendor domain.Profile
	cat    domain.Category
}

func setupLifecycleTest(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database shared and serialises concurrent transactions,
	// so the store-level duplicate and award guards are exercised through hookOnce instead.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	f := &fixture{db: db, store: documents.NewMemoryStore()}
	f.admin = seedProfile(t, db, "admin@example.com", constants.Admin)
	f.vendor = seedProfile(t, db, "vendor@example.com", constants.Vendor)
	f.cat = domain.Category{Name: "Construction"}
	require.NoError(t, db.Create(&f.cat).Error)

	now := baseTime
	f.m = &Manager{
		DB:            db,
		Notifications: &notifications.Service{DB: db},
		BidStore:      f.store,
		Now:           func() time.Time { return now },
	}
	return f
}

func (f *fixture) setNow(at time.Time) {
	f.m.Now = func() time.Time { return at }
}

func seedProfile(t *testing.T, db *gorm.DB, email, role string) domain.Profile {
	t.Helper()
	p := domain.Profile{Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func (f *fixture) seedRFP(t *testing.T, status domain.RFPStatus, deadline time.Time) domain.RFP {
	t.Helper()
	r := domain.RFP{
		ReferenceNumber:    "RFP-2024-" + uuid.NewString()[:8],
		Title:              "Road resurfacing",
		Description:        "Resurface 4km of road",
		CategoryID:         f.cat.ID,
		SubmissionDeadline: deadline,
		Status:             status,
		CreatedBy:          f.admin.ID,
	}
	if status == domain.RFPPublished {
		at := baseTime.Add(-time.Hour)
		r.PublishedAt = &at
	}
	require.NoError(t, f.db.Create(&r).Error)
	return r
}

func (f *fixture) submit(t *testing.T, rfpID, vendorID uuid.UUID, amount float64) *domain.Bid {
	t.Helper()
	res, err := f.m.SubmitBid(context.Background(), SubmitBidInput{
		RFPID: rfpID, VendorID: vendorID, Amount: amount, Proposal: "We will do it well",
	})
	require.NoError(t, err)
	return res.Bid
}

func awardInput(bidID uuid.UUID) AwardInput {
	return AwardInput{
		BidID:         bidID,
		ContractValue: 1000,
		StartDate:     baseTime.AddDate(0, 1, 0),
		EndDate:       baseTime.AddDate(1, 0, 0),
	}
}

func reloadBid(t *testing.T, db *gorm.DB, id uuid.UUID) domain.Bid {
	t.Helper()
	var b domain.Bid
	require.NoError(t, db.First(&b, "id = ?", id).Error)
	return b
}

func reloadRFP(t *testing.T, db *gorm.DB, id uuid.UUID) domain.RFP {
	t.Helper()
	var r domain.RFP
	require.NoError(t, db.First(&r, "id = ?", id).Error)
	return r
}

func TestSubmitBid_Success(t *testing.T) {
	f := setupLifecycleTest(t)
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(7*24*time.Hour))

	res, err := f.m.SubmitBid(context.Background(), SubmitBidInput{
		RFPID:    rfp.ID,
		VendorID: f.vendor.ID,
		Amount:   1000,
		Proposal: "  Detailed proposal  ",
		Documents: []documents.Upload{
			{Name: "quote.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BidPending, res.Bid.Status)
	assert.Equal(t, "Detailed proposal", res.Bid.Proposal)
	assert.Empty(t, res.FailedDocuments)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, int64(4), res.Documents[0].FileSize)
	assert.Contains(t, res.Documents[0].FilePath, f.vendor.ID.String()+"/"+res.Bid.ID.String()+"/")

	data, err := f.store.Get(context.Background(), res.Documents[0].FilePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)

	var events int64
	f.db.Model(&domain.LifecycleEvent{}).Where("entity_id = ? AND event_type = ?", res.Bid.ID, "SUBMITTED").Count(&events)
	assert.Equal(t, int64(1), events)
}

func TestSubmitBid_Validation(t *testing.T) {
	f := setupLifecycleTest(t)
	open := f.seedRFP(t, domain.RFPPublished, baseTime.Add(24*time.Hour))
	draft := f.seedRFP(t, domain.RFPDraft, baseTime.Add(24*time.Hour))

	cases := []struct {
		name string
		in   SubmitBidInput
		want error
	}{
		{"missing rfp", SubmitBidInput{RFPID: uuid.New(), VendorID: f.vendor.ID, Amount: 1, Proposal: "p"}, ErrRFPNotOpen},
		{"draft rfp", SubmitBidInput{RFPID: draft.ID, VendorID: f.vendor.ID, Amount: 1, Proposal: "p"}, ErrRFPNotOpen},
		{"zero amount", SubmitBidInput{RFPID: open.ID, VendorID: f.vendor.ID, Amount: 0, Proposal: "p"}, ErrInvalidAmount},
		{"negative amount", SubmitBidInput{RFPID: open.ID, VendorID: f.vendor.ID, Amount: -5, Proposal: "p"}, ErrInvalidAmount},
		{"blank proposal", SubmitBidInput{RFPID: open.ID, VendorID: f.vendor.ID, Amount: 10, Proposal: "   "}, ErrInvalidProposal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.m.SubmitBid(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	var count int64
	f.db.Model(&domain.Bid{}).Count(&count)
	assert.Zero(t, count)
}

func TestSubmitBid_DeadlineBoundary(t *testing.T) {
	f := setupLifecycleTest(t)
	deadline := baseTime.Add(time.Hour)
	rfp := f.seedRFP(t, domain.RFPPublished, deadline)

	f.setNow(deadline.Add(time.Millisecond))
	_, err := f.m.SubmitBid(context.Background(), SubmitBidInput{RFPID: rfp.ID, VendorID: f.vendor.ID, Amount: 10, Proposal: "late"})
	assert.ErrorIs(t, err, ErrRFPNotOpen)

	f.setNow(deadline)
	_, err = f.m.SubmitBid(context.Background(), SubmitBidInput{RFPID: rfp.ID, VendorID: f.vendor.ID, Amount: 10, Proposal: "on the dot"})
	assert.ErrorIs(t, err, ErrRFPNotOpen)

	f.setNow(deadline.Add(-time.Millisecond))
	_, err = f.m.SubmitBid(context.Background(), SubmitBidInput{RFPID: rfp.ID, VendorID: f.vendor.ID, Amount: 10, Proposal: "just in time"})
	assert.NoError(t, err)
}

func TestSubmitBid_Duplicate(t *testing.T) {
	f := setupLifecycleTest(t)
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	f.submit(t, rfp.ID, f.vendor.ID, 100)

	_, err := f.m.SubmitBid(context.Background(), SubmitBidInput{RFPID: rfp.ID, VendorID: f.vendor.ID, Amount: 200, Proposal: "again"})
	assert.ErrorIs(t, err, ErrDuplicateBid)
}

func TestSubmitBid_ConcurrentDuplicate(t *testing.T) {
	f := setupLifecycleTest(t)
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))

	const n = 2
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.m.SubmitBid(context.Background(), SubmitBidInput{RFPID: rfp.ID, VendorID: f.vendor.ID, Amount: 50, Proposal: "race"})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateBid):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)

	var count int64
	f.db.Model(&domain.Bid{}).Where("rfp_id = ?", rfp.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

type failingStore struct {
	documents.Store
	failOn string
}

func (s failingStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if len(path) >= len(s.failOn) && path[len(path)-len(s.failOn):] == s.failOn {
		return errors.New("storage unavailable")
	}
	return s.Store.Put(ctx, path, data, contentType)
}

func TestSubmitBid_DocumentFailureDoesNotBlockBid(t *testing.T) {
	f := setupLifecycleTest(t)
	f.m.BidStore = failingStore{Store: f.store, failOn: "broken.pdf"}
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))

	res, err := f.m.SubmitBid(context.Background(), SubmitBidInput{
		RFPID: rfp.ID, VendorID: f.vendor.ID, Amount: 10, Proposal: "with files",
		Documents: []documents.Upload{
			{Name: "good.pdf", Data: []byte("a")},
			{Name: "broken.pdf", Data: []byte("b")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"broken.pdf"}, res.FailedDocuments)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "good.pdf", res.Documents[0].Name)
	assert.Equal(t, "application/octet-stream", res.Documents[0].FileType)

	var docs int64
	f.db.Model(&domain.BidDocument{}).Where("bid_id = ?", res.Bid.ID).Count(&docs)
	assert.Equal(t, int64(1), docs)
	assert.Equal(t, 1, f.store.Len())
}

func TestSetBidStatus(t *testing.T) {
	f := setupLifecycleTest(t)
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)
	ctx := context.Background()

	notes := "Strong technical offer"
	got, err := f.m.SetBidStatus(ctx, f.admin.ID, bid.ID, domain.BidShortlisted, &notes)
	require.NoError(t, err)
	assert.Equal(t, domain.BidShortlisted, got.Status)
	require.NotNil(t, got.AdminNotes)
	assert.Equal(t, notes, *got.AdminNotes)

	stored := reloadBid(t, f.db, bid.ID)
	assert.Equal(t, domain.BidShortlisted, stored.Status)

	_, err = f.m.SetBidStatus(ctx, f.admin.ID, bid.ID, domain.BidApproved, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.m.SetBidStatus(ctx, f.admin.ID, bid.ID, domain.BidWithdrawn, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.m.SetBidStatus(ctx, f.admin.ID, uuid.New(), domain.BidRejected, nil)
	assert.ErrorIs(t, err, ErrBidNotFound)

	// Rejection is reversible while the RFP is still open.
	_, err = f.m.SetBidStatus(ctx, f.admin.ID, bid.ID, domain.BidRejected, nil)
	require.NoError(t, err)
	_, err = f.m.SetBidStatus(ctx, f.admin.ID, bid.ID, domain.BidUnderReview, nil)
	require.NoError(t, err)

	var unread int64
	f.db.Model(&domain.Notification{}).Count(&unread)
	assert.Zero(t, unread)
}

func TestSetBidStatus_ApprovedIsLocked(t *testing.T) {
	f := setupLifecycleTest(t)
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)
	_, err := f.m.AwardContract(context.Background(), f.admin.ID, awardInput(bid.ID))
	require.NoError(t, err)

	_, err = f.m.SetBidStatus(context.Background(), f.admin.ID, bid.ID, domain.BidRejected, nil)
	assert.ErrorIs(t, err, ErrBidLocked)
}

func TestWithdrawBid(t *testing.T) {
	f := setupLifecycleTest(t)
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)
	other := seedProfile(t, f.db, "other@example.com", constants.Vendor)
	ctx := context.Background()

	_, err := f.m.WithdrawBid(ctx, other.ID, bid.ID)
	assert.ErrorIs(t, err, ErrBidNotFound)

	notes := "internal"
	_, err = f.m.SetBidStatus(ctx, f.admin.ID, bid.ID, domain.BidUnderReview, &notes)
	require.NoError(t, err)

	got, err := f.m.WithdrawBid(ctx, f.vendor.ID, bid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidWithdrawn, got.Status)
	assert.Nil(t, got.AdminNotes)

	_, err = f.m.WithdrawBid(ctx, f.vendor.ID, bid.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAwardContract_Scenario(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPDraft, baseTime.Add(7*24*time.Hour))

	published, err := f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPPublished)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	assert.WithinDuration(t, baseTime, *published.PublishedAt, time.Second)

	winner := f.submit(t, rfp.ID, f.vendor.ID, 1000)
	assert.Equal(t, domain.BidPending, winner.Status)
	loserVendor := seedProfile(t, f.db, "loser@example.com", constants.Vendor)
	loser := f.submit(t, rfp.ID, loserVendor.ID, 1200)
	quitter := seedProfile(t, f.db, "quitter@example.com", constants.Vendor)
	withdrawn := f.submit(t, rfp.ID, quitter.ID, 900)
	_, err = f.m.WithdrawBid(ctx, quitter.ID, withdrawn.ID)
	require.NoError(t, err)

	terms := "  Net 30  "
	in := awardInput(winner.ID)
	in.Terms = &terms
	contract, err := f.m.AwardContract(ctx, f.admin.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, contract.ContractValue)
	assert.Equal(t, domain.ContractActive, contract.Status)
	assert.Equal(t, f.vendor.ID, contract.VendorID)
	require.NotNil(t, contract.Terms)
	assert.Equal(t, "Net 30", *contract.Terms)

	assert.Equal(t, domain.RFPAwarded, reloadRFP(t, f.db, rfp.ID).Status)
	assert.Equal(t, domain.BidApproved, reloadBid(t, f.db, winner.ID).Status)
	assert.Equal(t, domain.BidRejected, reloadBid(t, f.db, loser.ID).Status)
	assert.Equal(t, domain.BidWithdrawn, reloadBid(t, f.db, withdrawn.ID).Status)

	var contracts int64
	f.db.Model(&domain.Contract{}).Where("rfp_id = ?", rfp.ID).Count(&contracts)
	assert.Equal(t, int64(1), contracts)

	var notes []domain.Notification
	require.NoError(t, f.db.Where("user_id = ?", f.vendor.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, "Contract Awarded", notes[0].Title)
	assert.Equal(t, notifications.TypeContractAward, notes[0].Type)
	require.NotNil(t, notes[0].Link)
	assert.Equal(t, "/bids", *notes[0].Link)

	assert.NoError(t, f.m.VerifyAward(ctx, rfp.ID))
}

func TestAwardContract_Errors(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)

	_, err := f.m.AwardContract(ctx, f.admin.ID, awardInput(uuid.New()))
	assert.ErrorIs(t, err, ErrBidNotFound)

	bad := awardInput(bid.ID)
	bad.ContractValue = 0
	_, err = f.m.AwardContract(ctx, f.admin.ID, bad)
	assert.ErrorIs(t, err, ErrInvalidContractTerms)

	bad = awardInput(bid.ID)
	bad.EndDate = bad.StartDate
	_, err = f.m.AwardContract(ctx, f.admin.ID, bad)
	assert.ErrorIs(t, err, ErrInvalidContractTerms)

	rejectedVendor := seedProfile(t, f.db, "rejected@example.com", constants.Vendor)
	rejected := f.submit(t, rfp.ID, rejectedVendor.ID, 150)
	_, err = f.m.SetBidStatus(ctx, f.admin.ID, rejected.ID, domain.BidRejected, nil)
	require.NoError(t, err)
	_, err = f.m.AwardContract(ctx, f.admin.ID, awardInput(rejected.ID))
	assert.ErrorIs(t, err, ErrBidLocked)

	// Nothing above left partial state behind.
	var contracts int64
	f.db.Model(&domain.Contract{}).Count(&contracts)
	assert.Zero(t, contracts)
	assert.Equal(t, domain.BidPending, reloadBid(t, f.db, bid.ID).Status)
	assert.Equal(t, domain.RFPPublished, reloadRFP(t, f.db, rfp.ID).Status)

	_, err = f.m.AwardContract(ctx, f.admin.ID, awardInput(bid.ID))
	require.NoError(t, err)
	_, err = f.m.AwardContract(ctx, f.admin.ID, awardInput(bid.ID))
	assert.ErrorIs(t, err, ErrRFPAlreadyAwarded)
}

func TestAwardContract_ClosedRFPAwardable_DraftNot(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)

	_, err := f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPCancelled)
	require.NoError(t, err)
	_, err = f.m.AwardContract(ctx, f.admin.ID, awardInput(bid.ID))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	closed := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	closedBid := f.submit(t, closed.ID, f.vendor.ID, 100)
	_, err = f.m.SetRFPStatus(ctx, f.admin.ID, closed.ID, domain.RFPClosed)
	require.NoError(t, err)
	_, err = f.m.AwardContract(ctx, f.admin.ID, awardInput(closedBid.ID))
	assert.NoError(t, err)
}

func TestAwardContract_ConcurrentAwardsOneWinner(t *testing.T) {
	f := setupLifecycleTest(t)
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	second := seedProfile(t, f.db, "second@example.com", constants.Vendor)
	bids := []*domain.Bid{
		f.submit(t, rfp.ID, f.vendor.ID, 100),
		f.submit(t, rfp.ID, second.ID, 110),
	}

	errs := make([]error, len(bids))
	var wg sync.WaitGroup
	for i, b := range bids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.m.AwardContract(context.Background(), f.admin.ID, awardInput(id))
		}(i, b.ID)
	}
	wg.Wait()

	var ok, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrRFPAlreadyAwarded):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, lost)

	var contracts int64
	f.db.Model(&domain.Contract{}).Where("rfp_id = ?", rfp.ID).Count(&contracts)
	assert.Equal(t, int64(1), contracts)
	assert.NoError(t, f.m.VerifyAward(context.Background(), rfp.ID))
}

func TestSetRFPStatus_Transitions(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPDraft, baseTime.Add(time.Hour))

	_, err := f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPAwarded)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPClosed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.m.SetRFPStatus(ctx, f.admin.ID, uuid.New(), domain.RFPPublished)
	assert.ErrorIs(t, err, ErrRFPNotFound)
	_, err = f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPStatus("bogus"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Nil(t, reloadRFP(t, f.db, rfp.ID).PublishedAt)

	got, err := f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPPublished)
	require.NoError(t, err)
	require.NotNil(t, got.PublishedAt)
	first := *got.PublishedAt

	f.setNow(baseTime.Add(2 * time.Hour))
	_, err = f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPClosed)
	require.NoError(t, err)
	again, err := f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPPublished)
	require.NoError(t, err)
	require.NotNil(t, again.PublishedAt)
	assert.True(t, first.Equal(*again.PublishedAt), "re-publishing must keep the first published_at")

	_, err = f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPCancelled)
	require.NoError(t, err)
	_, err = f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPPublished)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var events int64
	f.db.Model(&domain.LifecycleEvent{}).Where("entity_type = ? AND entity_id = ?", domain.EntityRFP, rfp.ID).Count(&events)
	assert.Equal(t, int64(4), events)
}

func TestSetRFPStatus_AwardedCanBeCancelled(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)
	_, err := f.m.AwardContract(ctx, f.admin.ID, awardInput(bid.ID))
	require.NoError(t, err)

	_, err = f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPPublished)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	got, err := f.m.SetRFPStatus(ctx, f.admin.ID, rfp.ID, domain.RFPCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.RFPCancelled, got.Status)
}

func TestVerifyAward_DetectsPartialAward(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)

	assert.NoError(t, f.m.VerifyAward(ctx, rfp.ID))

	// An approved bid on an RFP that never reached awarded is a partial award.
	require.NoError(t, f.db.Model(&domain.Bid{}).Where("id = ?", bid.ID).Update("status", domain.BidApproved).Error)
	err := f.m.VerifyAward(ctx, rfp.ID)
	assert.ErrorIs(t, err, ErrInvariantViolation)

	require.NoError(t, f.db.Model(&domain.RFP{}).Where("id = ?", rfp.ID).Update("status", domain.RFPAwarded).Error)
	err = f.m.VerifyAward(ctx, rfp.ID)
	assert.ErrorIs(t, err, ErrInvariantViolation)

	assert.ErrorIs(t, f.m.VerifyAward(ctx, uuid.New()), ErrRFPNotFound)
}

func TestVerifyAllAwards(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()

	good := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	bid := f.submit(t, good.ID, f.vendor.ID, 100)
	_, err := f.m.AwardContract(ctx, f.admin.ID, awardInput(bid.ID))
	require.NoError(t, err)

	broken := f.seedRFP(t, domain.RFPAwarded, baseTime.Add(time.Hour))
	f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))

	failed, err := f.m.VerifyAllAwards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{broken.ID}, failed)
}

// hookOnce runs fn inside the caller's transaction right before the first create or update
// against table. It lets a test slip a conflicting write past the application checks.
func hookOnce(t *testing.T, db *gorm.DB, kind, table string, fn func(tx *gorm.DB) error) {
	t.Helper()
	var fired bool
	cb := func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if err := fn(tx.Session(&gorm.Session{NewDB: true})); err != nil {
			_ = tx.AddError(err)
		}
	}
	var err error
	switch kind {
	case "create":
		err = db.Callback().Create().Before("gorm:create").Register("test:create_"+table, cb)
	case "update":
		err = db.Callback().Update().Before("gorm:update").Register("test:update_"+table, cb)
	default:
		t.Fatalf("unknown hook kind %q", kind)
	}
	require.NoError(t, err)
}

func TestSubmitBid_UniqueIndexCatchesDuplicate(t *testing.T) {
	f := setupLifecycleTest(t)
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))

	// The competing insert lands after the existence check has already counted zero bids.
	hookOnce(t, f.db, "create", "bids", func(tx *gorm.DB) error {
		return tx.Create(&domain.Bid{
			RFPID: rfp.ID, VendorID: f.vendor.ID, Amount: 75, Proposal: "first in",
			Status: domain.BidPending, SubmittedAt: baseTime,
		}).Error
	})

	_, err := f.m.SubmitBid(context.Background(), SubmitBidInput{RFPID: rfp.ID, VendorID: f.vendor.ID, Amount: 50, Proposal: "second"})
	assert.ErrorIs(t, err, ErrDuplicateBid)

	var bids, events int64
	f.db.Model(&domain.Bid{}).Where("rfp_id = ?", rfp.ID).Count(&bids)
	f.db.Model(&domain.LifecycleEvent{}).Where("entity_type = ?", domain.EntityBid).Count(&events)
	assert.Zero(t, bids)
	assert.Zero(t, events)
}

func TestAwardContract_UniqueContractPerRFP(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	other := seedProfile(t, f.db, "other@example.com", constants.Vendor)
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)
	rival := f.submit(t, rfp.ID, other.ID, 120)

	hookOnce(t, f.db, "create", "contracts", func(tx *gorm.DB) error {
		return tx.Create(&domain.Contract{
			RFPID: rfp.ID, BidID: rival.ID, VendorID: other.ID, ContractValue: 120,
			StartDate: baseTime, EndDate: baseTime.AddDate(1, 0, 0), Status: domain.ContractActive,
		}).Error
	})

	_, err := f.m.AwardContract(ctx, f.admin.ID, awardInput(bid.ID))
	assert.ErrorIs(t, err, ErrRFPAlreadyAwarded)

	var contracts, notes int64
	f.db.Model(&domain.Contract{}).Count(&contracts)
	f.db.Model(&domain.Notification{}).Count(&notes)
	assert.Zero(t, contracts)
	assert.Zero(t, notes)
	assert.Equal(t, domain.BidPending, reloadBid(t, f.db, bid.ID).Status)
	assert.Equal(t, domain.BidPending, reloadBid(t, f.db, rival.ID).Status)
	assert.Equal(t, domain.RFPPublished, reloadRFP(t, f.db, rfp.ID).Status)
}

func TestAwardContract_StatusChangedUnderLock(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	other := seedProfile(t, f.db, "other@example.com", constants.Vendor)
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)
	rival := f.submit(t, rfp.ID, other.ID, 120)

	// Move the RFP out of an awardable state between the lock and the status update.
	hookOnce(t, f.db, "update", "rfps", func(tx *gorm.DB) error {
		return tx.Exec("UPDATE rfps SET status = ? WHERE id = ?", domain.RFPCancelled, rfp.ID).Error
	})

	_, err := f.m.AwardContract(ctx, f.admin.ID, awardInput(bid.ID))
	assert.ErrorIs(t, err, ErrRFPAlreadyAwarded)

	var contracts int64
	f.db.Model(&domain.Contract{}).Count(&contracts)
	assert.Zero(t, contracts)
	assert.Equal(t, domain.BidPending, reloadBid(t, f.db, bid.ID).Status)
	assert.Equal(t, domain.BidPending, reloadBid(t, f.db, rival.ID).Status)
	assert.Equal(t, domain.RFPPublished, reloadRFP(t, f.db, rfp.ID).Status)
	assert.NoError(t, f.m.VerifyAward(ctx, rfp.ID))
}

func TestAmounts_RoundingToZeroRejected(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))

	for _, amount := range []float64{0.004, 0, -1, math.NaN(), math.Inf(1)} {
		_, err := f.m.SubmitBid(ctx, SubmitBidInput{RFPID: rfp.ID, VendorID: f.vendor.ID, Amount: amount, Proposal: "cheap"})
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %v", amount)
	}
	bid := f.submit(t, rfp.ID, f.vendor.ID, 0.01)

	in := awardInput(bid.ID)
	in.ContractValue = 0.001
	_, err := f.m.AwardContract(ctx, f.admin.ID, in)
	assert.ErrorIs(t, err, ErrInvalidContractTerms)
}

func TestSetBidNotes(t *testing.T) {
	f := setupLifecycleTest(t)
	ctx := context.Background()
	rfp := f.seedRFP(t, domain.RFPPublished, baseTime.Add(time.Hour))
	bid := f.submit(t, rfp.ID, f.vendor.ID, 100)
	_, err := f.m.AwardContract(ctx, f.admin.ID, awardInput(bid.ID))
	require.NoError(t, err)

	notes := "  Delivered ahead of schedule  "
	_, err = f.m.SetBidStatus(ctx, f.admin.ID, bid.ID, domain.BidShortlisted, &notes)
	assert.ErrorIs(t, err, ErrBidLocked)

	got, err := f.m.SetBidNotes(ctx, f.admin.ID, bid.ID, &notes)
	require.NoError(t, err)
	assert.Equal(t, domain.BidApproved, got.Status)
	require.NotNil(t, got.AdminNotes)
	assert.Equal(t, "Delivered ahead of schedule", *got.AdminNotes)

	stored := reloadBid(t, f.db, bid.ID)
	assert.Equal(t, domain.BidApproved, stored.Status)
	require.NotNil(t, stored.AdminNotes)
	assert.Equal(t, "Delivered ahead of schedule", *stored.AdminNotes)

	blank := "   "
	got, err = f.m.SetBidNotes(ctx, f.admin.ID, bid.ID, &blank)
	require.NoError(t, err)
	assert.Nil(t, got.AdminNotes)
	assert.Nil(t, reloadBid(t, f.db, bid.ID).AdminNotes)

	_, err = f.m.SetBidNotes(ctx, f.admin.ID, uuid.New(), &notes)
	assert.ErrorIs(t, err, ErrBidNotFound)
}
