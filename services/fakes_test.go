package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/models"
)

// fakeMemberStore is an in-memory MemberSource/MemberScanner for tests.
type fakeMemberStore struct {
	members map[primitive.ObjectID]*models.Member
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{members: make(map[primitive.ObjectID]*models.Member)}
}

// addMember inserts a member under sponsor (nil for a root) with a derived
// path, mirroring the hierarchy store's create rule.
func (f *fakeMemberStore) addMember(sponsor *models.Member, role models.Role, status models.MemberStatus) *models.Member {
	m := &models.Member{
		ID:     primitive.NewObjectID(),
		Role:   role,
		Status: status,
		Path:   []primitive.ObjectID{},
	}
	if sponsor != nil {
		id := sponsor.ID
		m.SponsorID = &id
		m.Path = sponsor.ChildPath()
	}
	m.MemberCode = "MBR-" + m.ID.Hex()[18:]
	m.FullName = "member " + m.MemberCode
	f.members[m.ID] = m
	return m
}

func (f *fakeMemberStore) GetMember(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id.Hex(), ErrNotFound)
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMemberStore) DirectChildren(ctx context.Context, id primitive.ObjectID, includeInactive bool) ([]models.Member, error) {
	var children []models.Member
	for _, m := range f.members {
		if m.SponsorID == nil || *m.SponsorID != id {
			continue
		}
		if !includeInactive && m.Status != models.StatusActive {
			continue
		}
		children = append(children, *m)
	}
	return children, nil
}

func (f *fakeMemberStore) SubtreeMembers(ctx context.Context, rootID primitive.ObjectID) ([]models.Member, error) {
	var out []models.Member
	for _, m := range f.members {
		if m.PathContains(rootID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMemberStore) CountSubtree(ctx context.Context, rootID primitive.ObjectID, activeOnly bool) (int64, error) {
	var n int64
	for _, m := range f.members {
		if !m.PathContains(rootID) {
			continue
		}
		if activeOnly && m.Status != models.StatusActive {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeMemberStore) AllMembers(ctx context.Context) ([]models.Member, error) {
	out := make([]models.Member, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, *m)
	}
	return out, nil
}

// fakeSlabStore returns a fixed slab per project.
type fakeSlabStore struct {
	slabs map[primitive.ObjectID]*models.PercentageSlab
}

func newFakeSlabStore() *fakeSlabStore {
	return &fakeSlabStore{slabs: make(map[primitive.ObjectID]*models.PercentageSlab)}
}

func (f *fakeSlabStore) SlabForProject(ctx context.Context, projectID primitive.ObjectID) (*models.PercentageSlab, error) {
	slab, ok := f.slabs[projectID]
	if !ok {
		return nil, fmt.Errorf("slab for project %s: %w", projectID.Hex(), ErrNotFound)
	}
	return slab, nil
}

// fakeEarningsStore collects batches; failNext simulates a broken commit.
type fakeEarningsStore struct {
	inserted []models.EarningsRecord
	failNext bool
}

func (f *fakeEarningsStore) InsertBatch(ctx context.Context, records []models.EarningsRecord) ([]models.EarningsRecord, error) {
	if f.failNext {
		f.failNext = false
		return nil, ErrInconsistentWrite
	}
	out := make([]models.EarningsRecord, len(records))
	copy(out, records)
	for i := range out {
		out[i].ID = primitive.NewObjectID()
	}
	f.inserted = append(f.inserted, out...)
	return out, nil
}

func discardAudit(ctx context.Context, fact AuditFact) {}
