package services

import (
	"testing"

	"github.com/upline-crm/upline_backend/models"
)

// privacyFixture builds root -> mid -> leaf with contact details on mid.
func privacyFixture() (store *fakeMemberStore, root, mid, leaf *models.Member) {
	store = newFakeMemberStore()
	root = store.addMember(nil, models.RoleDirector, models.StatusActive)
	mid = store.addMember(root, models.RoleVP, models.StatusActive)
	leaf = store.addMember(mid, models.RoleBDM, models.StatusActive)
	mid.Phone = "555-0100"
	mid.Email = "mid@example.com"
	mid.City = "Pune"
	return store, root, mid, leaf
}

func prefsAll(level models.VisibilityLevel, m *models.Member) *models.VisibilitySettings {
	return &models.VisibilitySettings{MemberID: m.ID, Phone: level, Email: level, City: level}
}

func TestApplyVisibility_AdminOverrideIsAbsolute(t *testing.T) {
	_, _, mid, leaf := privacyFixture()

	// Even "nobody" yields to the admin override.
	profile := ApplyVisibility(mid, prefsAll(models.VisibilityNobody, mid), leaf, true)
	if profile.Phone != mid.Phone || profile.Email != mid.Email || profile.City != mid.City {
		t.Fatalf("admin must see all fields regardless of preference: %+v", profile)
	}
}

func TestApplyVisibility_NobodyHidesFromEveryNonAdmin(t *testing.T) {
	_, root, mid, leaf := privacyFixture()
	prefs := prefsAll(models.VisibilityNobody, mid)

	for name, viewer := range map[string]*models.Member{
		"direct upline":  root,
		"subtree member": leaf,
		"stranger":       nil,
	} {
		profile := ApplyVisibility(mid, prefs, viewer, false)
		if profile.Phone != "" || profile.Email != "" || profile.City != "" {
			t.Fatalf("%s saw a nobody-level field: %+v", name, profile)
		}
	}
}

func TestApplyVisibility_DirectUplineLevel(t *testing.T) {
	store, root, mid, leaf := privacyFixture()
	prefs := prefsAll(models.VisibilityUpline, mid)

	if got := ApplyVisibility(mid, prefs, root, false); got.Phone != mid.Phone {
		t.Fatalf("direct upline should see upline-level phone, got %+v", got)
	}
	if got := ApplyVisibility(mid, prefs, leaf, false); got.Phone != "" {
		t.Fatalf("downline must not see upline-level phone, got %+v", got)
	}

	// A grand-upline is not the direct upline.
	grandRoot := store.addMember(nil, models.RoleDirector, models.StatusActive)
	if got := ApplyVisibility(mid, prefs, grandRoot, false); got.Phone != "" {
		t.Fatalf("unrelated member must not see upline-level phone, got %+v", got)
	}
}

func TestApplyVisibility_SubtreeLevel(t *testing.T) {
	store, root, mid, leaf := privacyFixture()
	prefs := prefsAll(models.VisibilitySubtree, mid)

	for name, viewer := range map[string]*models.Member{
		"direct upline":  root,
		"subtree member": leaf,
	} {
		if got := ApplyVisibility(mid, prefs, viewer, false); got.City != mid.City {
			t.Fatalf("%s should see subtree-level city, got %+v", name, got)
		}
	}

	stranger := store.addMember(nil, models.RoleSM, models.StatusActive)
	if got := ApplyVisibility(mid, prefs, stranger, false); got.City != "" {
		t.Fatalf("stranger must not see subtree-level city, got %+v", got)
	}
}

func TestApplyVisibility_DefaultsWhenUnset(t *testing.T) {
	_, root, mid, leaf := privacyFixture()

	// Nil prefs: phone and email default to admin-only, city to subtree.
	profile := ApplyVisibility(mid, nil, root, false)
	if profile.Phone != "" || profile.Email != "" {
		t.Fatalf("default contact visibility must be admin-only, got %+v", profile)
	}
	if profile.City != mid.City {
		t.Fatalf("default city visibility must reach the direct upline, got %+v", profile)
	}

	profile = ApplyVisibility(mid, nil, leaf, false)
	if profile.City != mid.City {
		t.Fatalf("default city visibility must reach the subtree, got %+v", profile)
	}
}

func TestApplyVisibility_SelfAlwaysSeesOwnFields(t *testing.T) {
	_, _, mid, _ := privacyFixture()
	profile := ApplyVisibility(mid, prefsAll(models.VisibilityNobody, mid), mid, false)
	if profile.Phone != mid.Phone || profile.Email != mid.Email || profile.City != mid.City {
		t.Fatalf("member must see their own fields: %+v", profile)
	}
}
