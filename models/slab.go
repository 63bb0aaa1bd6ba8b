package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PercentageSlab is the per-project commission configuration: a percentage
// for each role plus two upline bonus percentages applied independently of
// role. All percentages are stored in basis points (1% = 100 bp) so that
// commission amounts can be computed with exact integer arithmetic.
// Exactly one slab exists per project; projects without one fall back to
// DefaultSlab.
type PercentageSlab struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID       primitive.ObjectID `json:"projectId" bson:"projectId"`
	RolePct         map[Role]int64     `json:"rolePct" bson:"rolePct"`
	UplineBonus1Pct int64              `json:"uplineBonus1Pct" bson:"uplineBonus1Pct"`
	UplineBonus2Pct int64              `json:"uplineBonus2Pct" bson:"uplineBonus2Pct"`
	UpdatedBy       primitive.ObjectID `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// DefaultSlab returns the system-wide fallback slab used when a project has
// no configured slab. Percentages: BDM 40%, SM 45%, SSM 50%, AVP 55%,
// VP 60%, Director 65%; both upline bonuses 5%.
func DefaultSlab() *PercentageSlab {
	return &PercentageSlab{
		RolePct: map[Role]int64{
			RoleBDM:      4000,
			RoleSM:       4500,
			RoleSSM:      5000,
			RoleAVP:      5500,
			RoleVP:       6000,
			RoleDirector: 6500,
		},
		UplineBonus1Pct: 500,
		UplineBonus2Pct: 500,
	}
}

// PctForRole returns the slab percentage for a role, falling back to the
// system default when the slab has no entry for it. A configured slab that
// omits a role must never yield zero.
func (s *PercentageSlab) PctForRole(role Role) int64 {
	if pct, ok := s.RolePct[role]; ok {
		return pct
	}
	return DefaultSlab().RolePct[role]
}
