package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/models"
)

// MemberSource is the read side of the hierarchy store as the query,
// commission and integrity services need it. The Mongo-backed repository
// implements it; tests use in-memory fakes.
type MemberSource interface {
	GetMember(ctx context.Context, id primitive.ObjectID) (*models.Member, error)
	DirectChildren(ctx context.Context, id primitive.ObjectID, includeInactive bool) ([]models.Member, error)
	SubtreeMembers(ctx context.Context, rootID primitive.ObjectID) ([]models.Member, error)
	CountSubtree(ctx context.Context, rootID primitive.ObjectID, activeOnly bool) (int64, error)
}

// PathContains reports whether id appears in path.
func PathContains(path []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

// ValidateReparent decides whether member may move under newSponsor. The
// forest stays acyclic: a member may not sponsor itself and may not move
// under any member of its own subtree. The new sponsor must be active.
func ValidateReparent(member, newSponsor *models.Member) error {
	if member.ID == newSponsor.ID {
		return fmt.Errorf("member %s cannot sponsor itself: %w", member.ID.Hex(), ErrCycleDetected)
	}
	if newSponsor.PathContains(member.ID) {
		return fmt.Errorf("new sponsor %s is a descendant of %s: %w", newSponsor.ID.Hex(), member.ID.Hex(), ErrCycleDetected)
	}
	if newSponsor.Status != models.StatusActive {
		return fmt.Errorf("new sponsor %s is %s: %w", newSponsor.ID.Hex(), newSponsor.Status, ErrInvalidSponsor)
	}
	return nil
}

// ReparentedPath splices a descendant's path onto a reparented member's new
// path. oldDepth is the member's path length before the move; everything
// below that point (the member's own id and the intermediate ancestors) is
// preserved.
func ReparentedPath(descendantPath []primitive.ObjectID, oldDepth int, newMemberPath []primitive.ObjectID) []primitive.ObjectID {
	spliced := make([]primitive.ObjectID, 0, len(newMemberPath)+len(descendantPath)-oldDepth)
	spliced = append(spliced, newMemberPath...)
	return append(spliced, descendantPath[oldDepth:]...)
}
