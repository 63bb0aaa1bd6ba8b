package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ViolationKind classifies a hierarchy integrity violation.
type ViolationKind string

const (
	// ViolationPathMismatch means a member's stored path differs from the
	// path recomputed from its sponsor.
	ViolationPathMismatch ViolationKind = "path_mismatch"
	// ViolationCycle means the sponsor chain revisits a member or exceeds
	// the maximum plausible depth.
	ViolationCycle ViolationKind = "cycle"
	// ViolationDanglingSponsor means sponsorId references a member that
	// does not exist.
	ViolationDanglingSponsor ViolationKind = "dangling_sponsor"
)

// IntegrityViolation describes one detected violation with enough detail to
// drive manual repair. The checker never repairs anything itself.
type IntegrityViolation struct {
	MemberID primitive.ObjectID   `json:"memberId" bson:"memberId"`
	Kind     ViolationKind        `json:"kind" bson:"kind"`
	Expected string               `json:"expected,omitempty" bson:"expected,omitempty"`
	Actual   string               `json:"actual,omitempty" bson:"actual,omitempty"`
	Members  []primitive.ObjectID `json:"members,omitempty" bson:"members,omitempty"`
}

// IntegrityReport is the output of a full hierarchy scan.
type IntegrityReport struct {
	CheckedAt      time.Time            `json:"checkedAt" bson:"checkedAt"`
	MembersChecked int                  `json:"membersChecked" bson:"membersChecked"`
	Violations     []IntegrityViolation `json:"violations" bson:"violations"`
}

// CountByKind tallies violations per kind.
func (r *IntegrityReport) CountByKind() map[ViolationKind]int {
	counts := make(map[ViolationKind]int)
	for _, v := range r.Violations {
		counts[v.Kind]++
	}
	return counts
}

// Clean reports whether the scan found no violations.
func (r *IntegrityReport) Clean() bool {
	return len(r.Violations) == 0
}
