package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/models"
)

func TestIntegrityCheck_CleanForest(t *testing.T) {
	store := newFakeMemberStore()
	rootA := store.addMember(nil, models.RoleDirector, models.StatusActive)
	b := store.addMember(rootA, models.RoleVP, models.StatusActive)
	store.addMember(b, models.RoleBDM, models.StatusActive)
	rootB := store.addMember(nil, models.RoleDirector, models.StatusActive)
	store.addMember(rootB, models.RoleSM, models.StatusActive)

	report, err := NewIntegrityService(store).Check(context.Background())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if report.MembersChecked != 5 {
		t.Fatalf("expected 5 members checked, got %d", report.MembersChecked)
	}
	if !report.Clean() {
		t.Fatalf("clean forest reported violations: %+v", report.Violations)
	}
}

func TestIntegrityCheck_TwoMemberCycleReportedOnce(t *testing.T) {
	store := newFakeMemberStore()
	x := store.addMember(nil, models.RoleVP, models.StatusActive)
	y := store.addMember(x, models.RoleSM, models.StatusActive)

	// Corrupt the pointers: X sponsors Y and Y sponsors X.
	yID := y.ID
	store.members[x.ID].SponsorID = &yID
	store.members[x.ID].Path = []primitive.ObjectID{y.ID}

	report, err := NewIntegrityService(store).Check(context.Background())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}

	var cycles []models.IntegrityViolation
	for _, v := range report.Violations {
		if v.Kind == models.ViolationCycle {
			cycles = append(cycles, v)
		}
	}
	if len(cycles) != 1 {
		t.Fatalf("expected exactly one cycle violation, got %d: %+v", len(cycles), cycles)
	}

	named := make(map[primitive.ObjectID]bool)
	for _, id := range cycles[0].Members {
		named[id] = true
	}
	if !named[x.ID] || !named[y.ID] {
		t.Fatalf("cycle violation must name both members, got %v", cycles[0].Members)
	}
}

func TestIntegrityCheck_PathMismatch(t *testing.T) {
	store := newFakeMemberStore()
	root := store.addMember(nil, models.RoleDirector, models.StatusActive)
	child := store.addMember(root, models.RoleBDM, models.StatusActive)

	// Corrupt the stored path while leaving the sponsor pointer intact.
	stray := primitive.NewObjectID()
	store.members[child.ID].Path = []primitive.ObjectID{stray}

	report, err := NewIntegrityService(store).Check(context.Background())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if len(report.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %+v", len(report.Violations), report.Violations)
	}

	v := report.Violations[0]
	if v.Kind != models.ViolationPathMismatch {
		t.Fatalf("expected path_mismatch, got %s", v.Kind)
	}
	if v.MemberID != child.ID {
		t.Fatalf("violation names wrong member: %s", v.MemberID.Hex())
	}
	if v.Expected == "" || v.Actual == "" {
		t.Fatalf("mismatch must carry both stored and recomputed paths: %+v", v)
	}
}

func TestIntegrityCheck_DanglingSponsor(t *testing.T) {
	store := newFakeMemberStore()
	root := store.addMember(nil, models.RoleDirector, models.StatusActive)
	child := store.addMember(root, models.RoleBDM, models.StatusActive)

	ghost := primitive.NewObjectID()
	store.members[child.ID].SponsorID = &ghost
	store.members[child.ID].Path = []primitive.ObjectID{ghost}

	report, err := NewIntegrityService(store).Check(context.Background())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}

	found := false
	for _, v := range report.Violations {
		if v.Kind == models.ViolationDanglingSponsor && v.MemberID == child.ID {
			found = true
			if v.Actual != ghost.Hex() {
				t.Fatalf("dangling violation should carry the missing id, got %s", v.Actual)
			}
		}
	}
	if !found {
		t.Fatalf("expected a dangling_sponsor violation, got %+v", report.Violations)
	}
}

func TestIntegrityCheck_RootWithPath(t *testing.T) {
	store := newFakeMemberStore()
	root := store.addMember(nil, models.RoleDirector, models.StatusActive)
	store.members[root.ID].Path = []primitive.ObjectID{primitive.NewObjectID()}

	report, err := NewIntegrityService(store).Check(context.Background())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if len(report.Violations) != 1 || report.Violations[0].Kind != models.ViolationPathMismatch {
		t.Fatalf("root with non-empty path must be a path_mismatch, got %+v", report.Violations)
	}
}
