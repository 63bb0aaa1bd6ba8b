package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VisibilityLevel is a member's chosen audience for one contact field.
type VisibilityLevel string

const (
	// VisibilityNobody hides the field from every non-admin viewer.
	VisibilityNobody VisibilityLevel = "nobody"
	// VisibilityAdmin shows the field to admins only.
	VisibilityAdmin VisibilityLevel = "admin"
	// VisibilityUpline shows the field to the direct upline and admins.
	VisibilityUpline VisibilityLevel = "upline"
	// VisibilitySubtree shows the field to the member's subtree, their
	// uplines, and admins.
	VisibilitySubtree VisibilityLevel = "subtree"
)

// IsValid reports whether l is a known visibility level.
func (l VisibilityLevel) IsValid() bool {
	switch l {
	case VisibilityNobody, VisibilityAdmin, VisibilityUpline, VisibilitySubtree:
		return true
	}
	return false
}

// VisibilitySettings holds a member's per-field visibility choices.
type VisibilitySettings struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID  primitive.ObjectID `json:"memberId" bson:"memberId"`
	Phone     VisibilityLevel    `json:"phone" bson:"phone"`
	Email     VisibilityLevel    `json:"email" bson:"email"`
	City      VisibilityLevel    `json:"city" bson:"city"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// DefaultVisibilitySettings returns the settings applied when a member has
// never chosen: contact details restricted to admins, city visible to the
// member's network.
func DefaultVisibilitySettings(memberID primitive.ObjectID) *VisibilitySettings {
	return &VisibilitySettings{
		MemberID: memberID,
		Phone:    VisibilityAdmin,
		Email:    VisibilityAdmin,
		City:     VisibilitySubtree,
	}
}

// Normalize fills any unset field with its default level.
func (v *VisibilitySettings) Normalize() {
	def := DefaultVisibilitySettings(v.MemberID)
	if !v.Phone.IsValid() {
		v.Phone = def.Phone
	}
	if !v.Email.IsValid() {
		v.Email = def.Email
	}
	if !v.City.IsValid() {
		v.City = def.City
	}
}
