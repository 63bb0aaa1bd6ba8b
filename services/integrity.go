package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/models"
)

// maxHierarchyDepth bounds sponsor-chain walks. No legitimate network is
// this deep; exceeding it is reported as a cycle-class violation.
const maxHierarchyDepth = 64

// MemberScanner loads the full member set for a batch scan.
type MemberScanner interface {
	AllMembers(ctx context.Context) ([]models.Member, error)
}

// IntegrityService batch-validates that the stored hierarchy is a
// well-formed forest. It runs on demand, reads a single snapshot, holds no
// locks and never mutates anything: violations are its normal output,
// repair is a separate administrative action. A structural change racing
// the scan may surface as a transient violation that disappears on re-run.
type IntegrityService struct {
	members MemberScanner
}

func NewIntegrityService(members MemberScanner) *IntegrityService {
	return &IntegrityService{members: members}
}

// Check scans every member and reports path mismatches, sponsor cycles and
// dangling sponsor references, each detected independently.
func (s *IntegrityService) Check(ctx context.Context) (*models.IntegrityReport, error) {
	members, err := s.members.AllMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load member set: %w", err)
	}

	index := make(map[primitive.ObjectID]*models.Member, len(members))
	for i := range members {
		index[members[i].ID] = &members[i]
	}

	report := &models.IntegrityReport{
		CheckedAt:      time.Now(),
		MembersChecked: len(members),
	}

	report.Violations = append(report.Violations, checkPaths(members, index)...)
	report.Violations = append(report.Violations, checkCycles(members, index)...)
	return report, nil
}

// checkPaths verifies path correctness and referential integrity. For every
// non-root member the stored path must equal the sponsor's path with the
// sponsor's id appended.
func checkPaths(members []models.Member, index map[primitive.ObjectID]*models.Member) []models.IntegrityViolation {
	var violations []models.IntegrityViolation
	for _, m := range members {
		if m.SponsorID == nil {
			if len(m.Path) != 0 {
				violations = append(violations, models.IntegrityViolation{
					MemberID: m.ID,
					Kind:     models.ViolationPathMismatch,
					Expected: "[]",
					Actual:   formatPath(m.Path),
				})
			}
			continue
		}

		sponsor, ok := index[*m.SponsorID]
		if !ok {
			violations = append(violations, models.IntegrityViolation{
				MemberID: m.ID,
				Kind:     models.ViolationDanglingSponsor,
				Expected: "existing member",
				Actual:   m.SponsorID.Hex(),
			})
			continue
		}

		expected := sponsor.ChildPath()
		if !pathsEqual(m.Path, expected) {
			violations = append(violations, models.IntegrityViolation{
				MemberID: m.ID,
				Kind:     models.ViolationPathMismatch,
				Expected: formatPath(expected),
				Actual:   formatPath(m.Path),
			})
		}
	}
	return violations
}

// checkCycles walks sponsor pointers from every member. A walk that revisits
// a member or exceeds maxHierarchyDepth is a cycle. Each distinct cycle is
// reported exactly once regardless of how many members lead into it.
func checkCycles(members []models.Member, index map[primitive.ObjectID]*models.Member) []models.IntegrityViolation {
	var violations []models.IntegrityViolation
	terminates := make(map[primitive.ObjectID]bool, len(members))
	reported := make(map[string]bool)

	for _, m := range members {
		if terminates[m.ID] {
			continue
		}

		seen := make(map[primitive.ObjectID]int)
		chain := []primitive.ObjectID{}
		current := &m
		depth := 0

		for {
			if terminates[current.ID] {
				break
			}
			if at, visited := seen[current.ID]; visited {
				cycle := chain[at:]
				key := cycleKey(cycle)
				if !reported[key] {
					reported[key] = true
					violations = append(violations, models.IntegrityViolation{
						MemberID: cycle[0],
						Kind:     models.ViolationCycle,
						Actual:   formatPath(cycle),
						Members:  append([]primitive.ObjectID(nil), cycle...),
					})
				}
				break
			}
			seen[current.ID] = len(chain)
			chain = append(chain, current.ID)

			if current.SponsorID == nil {
				for _, id := range chain {
					terminates[id] = true
				}
				break
			}
			next, ok := index[*current.SponsorID]
			if !ok {
				// Dangling sponsor, reported by checkPaths. The chain
				// still terminates.
				for _, id := range chain {
					terminates[id] = true
				}
				break
			}

			depth++
			if depth > maxHierarchyDepth {
				key := cycleKey(chain)
				if !reported[key] {
					reported[key] = true
					violations = append(violations, models.IntegrityViolation{
						MemberID: m.ID,
						Kind:     models.ViolationCycle,
						Expected: fmt.Sprintf("chain terminating within %d levels", maxHierarchyDepth),
						Actual:   "walk exceeded depth bound",
						Members:  append([]primitive.ObjectID(nil), chain...),
					})
				}
				break
			}
			current = next
		}
	}
	return violations
}

func pathsEqual(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatPath(path []primitive.ObjectID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = id.Hex()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// cycleKey canonicalizes a set of cycle members so the same cycle entered
// from different members maps to one report.
func cycleKey(cycle []primitive.ObjectID) string {
	parts := make([]string, len(cycle))
	for i, id := range cycle {
		parts[i] = id.Hex()
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
