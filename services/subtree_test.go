package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/models"
)

func subtreeFixture() (store *fakeMemberStore, root, left, right, grandchild *models.Member) {
	store = newFakeMemberStore()
	root = store.addMember(nil, models.RoleDirector, models.StatusActive)
	left = store.addMember(root, models.RoleVP, models.StatusActive)
	right = store.addMember(root, models.RoleSM, models.StatusActive)
	grandchild = store.addMember(left, models.RoleBDM, models.StatusActive)
	return
}

func TestSubtreeIDs_PathDuality(t *testing.T) {
	store, root, left, _, _ := subtreeFixture()
	svc := NewSubtreeService(store, nil)

	ids, err := svc.SubtreeIDs(context.Background(), Viewer{ID: root.ID}, root.ID)
	if err != nil {
		t.Fatalf("SubtreeIDs error: %v", err)
	}

	inSubtree := make(map[primitive.ObjectID]bool)
	for _, id := range ids {
		inSubtree[id] = true
	}

	// m is in subtreeIds(root) iff m.path contains root.id.
	all, _ := store.AllMembers(context.Background())
	for _, m := range all {
		if got, want := inSubtree[m.ID], m.PathContains(root.ID); got != want {
			t.Fatalf("duality broken for %s: in subtree %v, path contains root %v", m.ID.Hex(), got, want)
		}
	}

	// left's subtree holds only the grandchild.
	ids, err = svc.SubtreeIDs(context.Background(), Viewer{ID: left.ID}, left.ID)
	if err != nil {
		t.Fatalf("SubtreeIDs error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 descendant of left, got %d", len(ids))
	}
}

func TestSubtreeQueries_ForbiddenOutsideOwnSubtree(t *testing.T) {
	store, root, _, right, grandchild := subtreeFixture()
	svc := NewSubtreeService(store, nil)

	// grandchild sits under left; right's and root's subtrees are off
	// limits to it.
	viewer := Viewer{ID: grandchild.ID}
	if _, err := svc.SubtreeIDs(context.Background(), viewer, right.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("SubtreeIDs outside own subtree: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.DirectChildren(context.Background(), viewer, right.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("DirectChildren outside own subtree: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.SubtreeIDs(context.Background(), viewer, root.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("querying an ancestor's subtree: expected ErrForbidden, got %v", err)
	}

	// Admins cross any boundary.
	if _, err := svc.SubtreeIDs(context.Background(), Viewer{ID: grandchild.ID, IsAdmin: true}, right.ID); err != nil {
		t.Fatalf("admin query failed: %v", err)
	}

	// An ancestor may query members inside its own subtree.
	if _, err := svc.SubtreeIDs(context.Background(), Viewer{ID: root.ID}, grandchild.ID); err != nil {
		t.Fatalf("ancestor querying descendant failed: %v", err)
	}
}

func TestDirectChildren_StatusFiltering(t *testing.T) {
	store, root, _, right, _ := subtreeFixture()
	store.members[right.ID].Status = models.StatusFrozen
	svc := NewSubtreeService(store, nil)

	children, err := svc.DirectChildren(context.Background(), Viewer{ID: root.ID}, root.ID)
	if err != nil {
		t.Fatalf("DirectChildren error: %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("non-admin should see only active children, got %d", len(children))
	}

	children, err = svc.DirectChildren(context.Background(), Viewer{ID: root.ID, IsAdmin: true}, root.ID)
	if err != nil {
		t.Fatalf("DirectChildren error: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("admin should see frozen children too, got %d", len(children))
	}
}

func TestSubtreeWithDetails_DemoFilter(t *testing.T) {
	store, root, left, _, _ := subtreeFixture()
	store.members[left.ID].IsDemo = true
	svc := NewSubtreeService(store, nil)

	viewer := Viewer{ID: root.ID, IsAdmin: true}
	all, err := svc.SubtreeWithDetails(context.Background(), viewer, root.ID, nil)
	if err != nil {
		t.Fatalf("SubtreeWithDetails error: %v", err)
	}

	filtered, err := svc.SubtreeWithDetails(context.Background(), viewer, root.ID, ExcludeDemo)
	if err != nil {
		t.Fatalf("SubtreeWithDetails error: %v", err)
	}
	if len(filtered) != len(all)-1 {
		t.Fatalf("demo filter should drop 1 member: %d vs %d", len(filtered), len(all))
	}
	for _, m := range filtered {
		if m.IsDemo {
			t.Fatalf("demo member leaked through filter: %s", m.ID.Hex())
		}
	}
}

func TestNetworkStats_CountsWithoutCache(t *testing.T) {
	store, root, _, right, _ := subtreeFixture()
	store.members[right.ID].Status = models.StatusFrozen
	svc := NewSubtreeService(store, nil)

	stats, err := svc.NetworkStats(context.Background(), Viewer{ID: root.ID}, root.ID)
	if err != nil {
		t.Fatalf("NetworkStats error: %v", err)
	}
	if stats.TotalMembers != 3 {
		t.Fatalf("expected 3 total descendants, got %d", stats.TotalMembers)
	}
	if stats.ActiveMembers != 2 {
		t.Fatalf("expected 2 active descendants, got %d", stats.ActiveMembers)
	}
	if stats.DirectChildren != 1 {
		t.Fatalf("expected 1 active direct child, got %d", stats.DirectChildren)
	}
}

func TestSubtreeIDs_UnknownRoot(t *testing.T) {
	store, _, _, _, _ := subtreeFixture()
	svc := NewSubtreeService(store, nil)
	if _, err := svc.SubtreeIDs(context.Background(), Viewer{IsAdmin: true}, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
