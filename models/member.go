package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the commission role of a member. Roles are ordered:
// Director > VP > AVP > SSM > SM > BDM.
type Role string

const (
	RoleDirector Role = "director"
	RoleVP       Role = "vp"
	RoleAVP      Role = "avp"
	RoleSSM      Role = "ssm"
	RoleSM       Role = "sm"
	RoleBDM      Role = "bdm"
)

var roleRank = map[Role]int{
	RoleDirector: 6,
	RoleVP:       5,
	RoleAVP:      4,
	RoleSSM:      3,
	RoleSM:       2,
	RoleBDM:      1,
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// Outranks reports whether r is strictly above other in the role order.
func (r Role) Outranks(other Role) bool {
	return roleRank[r] > roleRank[other]
}

// MemberStatus is the lifecycle status of a member.
type MemberStatus string

const (
	StatusActive  MemberStatus = "active"
	StatusFrozen  MemberStatus = "frozen"
	StatusRemoved MemberStatus = "removed"
)

// Member is a node in the referral hierarchy. Every member except a forest
// root joined under exactly one sponsor. Path holds the ids of all ancestors
// from the root down to (and excluding) this member; it is derived from the
// sponsor chain and must never diverge from it.
type Member struct {
	ID         primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	MemberCode string               `json:"memberCode" bson:"memberCode"`
	FullName   string               `json:"fullName" bson:"fullName"`
	Email      string               `json:"email" bson:"email"`
	Phone      string               `json:"phone,omitempty" bson:"phone,omitempty"`
	City       string               `json:"city,omitempty" bson:"city,omitempty"`
	Password   string               `json:"-" bson:"password"`
	SponsorID  *primitive.ObjectID  `json:"sponsorId,omitempty" bson:"sponsorId,omitempty"`
	Path       []primitive.ObjectID `json:"path" bson:"path"`
	Role       Role                 `json:"role" bson:"role"`
	Status     MemberStatus         `json:"status" bson:"status"`
	IsAdmin    bool                 `json:"isAdmin" bson:"isAdmin"`
	IsDemo     bool                 `json:"isDemo,omitempty" bson:"isDemo,omitempty"`
	CreatedAt  time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// PathContains reports whether id appears in the member's ancestry path,
// i.e. whether the member with that id is an ancestor of m.
func (m *Member) PathContains(id primitive.ObjectID) bool {
	for _, p := range m.Path {
		if p == id {
			return true
		}
	}
	return false
}

// ChildPath returns the path a direct child of m must carry:
// m's own path with m's id appended. The result is a fresh slice.
func (m *Member) ChildPath() []primitive.ObjectID {
	path := make([]primitive.ObjectID, 0, len(m.Path)+1)
	path = append(path, m.Path...)
	return append(path, m.ID)
}

// DirectUplineID returns the id of the member's sponsor (the last path
// element). ok is false for forest roots.
func (m *Member) DirectUplineID() (primitive.ObjectID, bool) {
	if len(m.Path) == 0 {
		return primitive.NilObjectID, false
	}
	return m.Path[len(m.Path)-1], true
}

// SecondUplineID returns the id of the sponsor's sponsor, when present.
func (m *Member) SecondUplineID() (primitive.ObjectID, bool) {
	if len(m.Path) < 2 {
		return primitive.NilObjectID, false
	}
	return m.Path[len(m.Path)-2], true
}

// MemberProfile is the privacy-filtered view of a member returned to other
// members. Contact fields the viewer may not see are omitted entirely so
// callers can distinguish "hidden" from "empty".
type MemberProfile struct {
	ID         primitive.ObjectID `json:"id"`
	MemberCode string             `json:"memberCode"`
	FullName   string             `json:"fullName"`
	Role       Role               `json:"role"`
	Status     MemberStatus       `json:"status"`
	Phone      string             `json:"phone,omitempty"`
	Email      string             `json:"email,omitempty"`
	City       string             `json:"city,omitempty"`
}
