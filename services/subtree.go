package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/models"
)

// Viewer is the authenticated caller of a query, supplied by the auth layer.
type Viewer struct {
	ID      primitive.ObjectID
	IsAdmin bool
}

// NetworkStats is the dashboard summary for one member's subtree.
type NetworkStats struct {
	TotalMembers   int64 `json:"totalMembers"`
	ActiveMembers  int64 `json:"activeMembers"`
	DirectChildren int64 `json:"directChildren"`
}

const statsCacheTTL = 60 * time.Second

// SubtreeService answers descendant and children queries over the
// materialized-path hierarchy. Because ancestry is materialized, subtree
// membership is a path-containment test per candidate instead of a
// recursive descent.
type SubtreeService struct {
	members MemberSource
	cache   *redis.Client // nil disables stats caching
}

func NewSubtreeService(members MemberSource, cache *redis.Client) *SubtreeService {
	return &SubtreeService{members: members, cache: cache}
}

// authorize enforces the subtree boundary: non-admin viewers may only query
// themselves or members inside their own subtree.
func (s *SubtreeService) authorize(ctx context.Context, viewer Viewer, rootID primitive.ObjectID) (*models.Member, error) {
	root, err := s.members.GetMember(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if viewer.IsAdmin || viewer.ID == rootID || root.PathContains(viewer.ID) {
		return root, nil
	}
	log.Printf("subtree query denied: viewer=%s root=%s", viewer.ID.Hex(), rootID.Hex())
	return nil, fmt.Errorf("member %s is outside viewer subtree: %w", rootID.Hex(), ErrForbidden)
}

// DirectChildren returns the members directly sponsored by id. Non-admin
// viewers see active children only.
func (s *SubtreeService) DirectChildren(ctx context.Context, viewer Viewer, id primitive.ObjectID) ([]models.Member, error) {
	if _, err := s.authorize(ctx, viewer, id); err != nil {
		return nil, err
	}
	return s.members.DirectChildren(ctx, id, viewer.IsAdmin)
}

// SubtreeIDs returns the ids of every member whose path contains rootID.
func (s *SubtreeService) SubtreeIDs(ctx context.Context, viewer Viewer, rootID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if _, err := s.authorize(ctx, viewer, rootID); err != nil {
		return nil, err
	}
	descendants, err := s.members.SubtreeMembers(ctx, rootID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(descendants))
	for _, m := range descendants {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// SubtreeWithDetails returns full member records for reporting. filter is
// caller-supplied policy (e.g. excluding demo members in production); a nil
// filter keeps everything.
func (s *SubtreeService) SubtreeWithDetails(ctx context.Context, viewer Viewer, rootID primitive.ObjectID, filter func(models.Member) bool) ([]models.Member, error) {
	if _, err := s.authorize(ctx, viewer, rootID); err != nil {
		return nil, err
	}
	descendants, err := s.members.SubtreeMembers(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return descendants, nil
	}
	kept := descendants[:0]
	for _, m := range descendants {
		if filter(m) {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// ExcludeDemo is the production reporting filter.
func ExcludeDemo(m models.Member) bool {
	return !m.IsDemo
}

// NetworkStats returns subtree counts for a member's dashboard, cached in
// Redis for a short TTL.
func (s *SubtreeService) NetworkStats(ctx context.Context, viewer Viewer, rootID primitive.ObjectID) (*NetworkStats, error) {
	if _, err := s.authorize(ctx, viewer, rootID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, statsCacheKey(rootID)).Result(); err == nil {
			var stats NetworkStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	total, err := s.members.CountSubtree(ctx, rootID, false)
	if err != nil {
		return nil, err
	}
	active, err := s.members.CountSubtree(ctx, rootID, true)
	if err != nil {
		return nil, err
	}
	children, err := s.members.DirectChildren(ctx, rootID, false)
	if err != nil {
		return nil, err
	}

	stats := &NetworkStats{
		TotalMembers:   total,
		ActiveMembers:  active,
		DirectChildren: int64(len(children)),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey(rootID), payload, statsCacheTTL).Err(); err != nil {
				log.Printf("stats cache write failed for %s: %v", rootID.Hex(), err)
			}
		}
	}
	return stats, nil
}

// InvalidateStats drops cached stats for the given members. Called after
// structural mutations, with the new member's full ancestor chain.
func (s *SubtreeService) InvalidateStats(ctx context.Context, memberIDs ...primitive.ObjectID) {
	if s.cache == nil || len(memberIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		keys = append(keys, statsCacheKey(id))
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		log.Printf("stats cache invalidation failed: %v", err)
	}
}

func statsCacheKey(id primitive.ObjectID) string {
	return "network:stats:" + id.Hex()
}
