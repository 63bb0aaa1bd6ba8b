package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/models"
)

func testSlab() *models.PercentageSlab {
	return &models.PercentageSlab{
		RolePct: map[models.Role]int64{
			models.RoleBDM: 4000,
			models.RoleSM:  4500,
		},
		UplineBonus1Pct: 500,
		UplineBonus2Pct: 500,
	}
}

func TestRecordEarnings_ThreeLevels(t *testing.T) {
	store := newFakeMemberStore()
	a := store.addMember(nil, models.RoleDirector, models.StatusActive)
	b := store.addMember(a, models.RoleVP, models.StatusActive)
	c := store.addMember(b, models.RoleBDM, models.StatusActive)

	slabs := newFakeSlabStore()
	projectID := primitive.NewObjectID()
	slabs.slabs[projectID] = testSlab()

	earnings := &fakeEarningsStore{}
	svc := NewCommissionService(store, slabs, earnings, discardAudit)

	records, err := svc.RecordEarnings(context.Background(), c.ID, projectID, 1000, nil, "", primitive.NewObjectID())
	if err != nil {
		t.Fatalf("RecordEarnings error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	byMember := make(map[primitive.ObjectID]models.EarningsRecord)
	var total int64
	for _, rec := range records {
		byMember[rec.MemberID] = rec
		total += rec.TotalAmount
		if rec.Status != models.EarningsPending {
			t.Fatalf("record for %s not pending: %s", rec.MemberID.Hex(), rec.Status)
		}
	}

	if got := byMember[c.ID].TotalAmount; got != 400 {
		t.Fatalf("direct commission: expected 400, got %d", got)
	}
	if byMember[c.ID].Kind != models.EarningsDirect {
		t.Fatalf("expected direct kind for member, got %s", byMember[c.ID].Kind)
	}
	if got := byMember[b.ID].TotalAmount; got != 50 {
		t.Fatalf("first upline bonus: expected 50, got %d", got)
	}
	if got := byMember[a.ID].TotalAmount; got != 50 {
		t.Fatalf("second upline bonus: expected 50, got %d", got)
	}
	if total != 500 {
		t.Fatalf("conservation: expected total 500, got %d", total)
	}
	if len(earnings.inserted) != 3 {
		t.Fatalf("expected 3 persisted records, got %d", len(earnings.inserted))
	}
}

func TestRecordEarnings_RootHasNoUplineRecords(t *testing.T) {
	store := newFakeMemberStore()
	root := store.addMember(nil, models.RoleDirector, models.StatusActive)

	slabs := newFakeSlabStore()
	projectID := primitive.NewObjectID()
	slabs.slabs[projectID] = testSlab()

	svc := NewCommissionService(store, slabs, &fakeEarningsStore{}, discardAudit)

	records, err := svc.RecordEarnings(context.Background(), root.ID, projectID, 1000, nil, "", primitive.NewObjectID())
	if err != nil {
		t.Fatalf("RecordEarnings error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("root member: expected 1 record, got %d", len(records))
	}
	if records[0].Kind != models.EarningsDirect {
		t.Fatalf("expected direct record, got %s", records[0].Kind)
	}
}

func TestRecordEarnings_SingleUpline(t *testing.T) {
	store := newFakeMemberStore()
	root := store.addMember(nil, models.RoleVP, models.StatusActive)
	child := store.addMember(root, models.RoleBDM, models.StatusActive)

	slabs := newFakeSlabStore()
	projectID := primitive.NewObjectID()
	slabs.slabs[projectID] = testSlab()

	svc := NewCommissionService(store, slabs, &fakeEarningsStore{}, discardAudit)

	records, err := svc.RecordEarnings(context.Background(), child.ID, projectID, 1000, nil, "", primitive.NewObjectID())
	if err != nil {
		t.Fatalf("RecordEarnings error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("one ancestor: expected 2 records, got %d", len(records))
	}
}

func TestRecordEarnings_DefaultSlabFallback(t *testing.T) {
	store := newFakeMemberStore()
	m := store.addMember(nil, models.RoleBDM, models.StatusActive)

	svc := NewCommissionService(store, newFakeSlabStore(), &fakeEarningsStore{}, discardAudit)

	records, err := svc.RecordEarnings(context.Background(), m.ID, primitive.NewObjectID(), 10000, nil, "", primitive.NewObjectID())
	if err != nil {
		t.Fatalf("RecordEarnings error: %v", err)
	}
	// Default BDM percentage is 40%, never zero.
	if records[0].TotalAmount != 4000 {
		t.Fatalf("default slab: expected 4000, got %d", records[0].TotalAmount)
	}
	if records[0].SlabPct != 4000 {
		t.Fatalf("default slab pct: expected 4000 bp, got %d", records[0].SlabPct)
	}
}

func TestRecordEarnings_RejectsNonPositiveAmount(t *testing.T) {
	store := newFakeMemberStore()
	m := store.addMember(nil, models.RoleBDM, models.StatusActive)
	svc := NewCommissionService(store, newFakeSlabStore(), &fakeEarningsStore{}, discardAudit)

	for _, amount := range []int64{0, -500} {
		if _, err := svc.RecordEarnings(context.Background(), m.ID, primitive.NewObjectID(), amount, nil, "", primitive.NewObjectID()); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestRecordEarnings_UnknownMember(t *testing.T) {
	svc := NewCommissionService(newFakeMemberStore(), newFakeSlabStore(), &fakeEarningsStore{}, discardAudit)
	if _, err := svc.RecordEarnings(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), 1000, nil, "", primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordEarnings_FailedCommitPersistsNothing(t *testing.T) {
	store := newFakeMemberStore()
	a := store.addMember(nil, models.RoleDirector, models.StatusActive)
	b := store.addMember(a, models.RoleBDM, models.StatusActive)

	earnings := &fakeEarningsStore{failNext: true}
	svc := NewCommissionService(store, newFakeSlabStore(), earnings, discardAudit)

	if _, err := svc.RecordEarnings(context.Background(), b.ID, primitive.NewObjectID(), 1000, nil, "", primitive.NewObjectID()); !errors.Is(err, ErrInconsistentWrite) {
		t.Fatalf("expected ErrInconsistentWrite, got %v", err)
	}
	if len(earnings.inserted) != 0 {
		t.Fatalf("failed commit must persist nothing, found %d records", len(earnings.inserted))
	}
}

func TestRecordEarnings_SkipsInactiveUpline(t *testing.T) {
	store := newFakeMemberStore()
	a := store.addMember(nil, models.RoleDirector, models.StatusActive)
	b := store.addMember(a, models.RoleVP, models.StatusFrozen)
	c := store.addMember(b, models.RoleBDM, models.StatusActive)

	slabs := newFakeSlabStore()
	projectID := primitive.NewObjectID()
	slabs.slabs[projectID] = testSlab()

	svc := NewCommissionService(store, slabs, &fakeEarningsStore{}, discardAudit)

	records, err := svc.RecordEarnings(context.Background(), c.ID, projectID, 1000, nil, "", primitive.NewObjectID())
	if err != nil {
		t.Fatalf("RecordEarnings error: %v", err)
	}
	// Frozen first upline is skipped; active grandsponsor still receives
	// the level-2 bonus.
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.MemberID == b.ID {
			t.Fatalf("frozen upline must not receive a bonus")
		}
	}
}
