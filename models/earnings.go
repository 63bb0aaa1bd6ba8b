package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EarningsKind distinguishes a member's own role-based commission from the
// bonus records cascaded to their uplines.
type EarningsKind string

const (
	EarningsDirect  EarningsKind = "direct"
	EarningsUpline1 EarningsKind = "upline_level_1"
	EarningsUpline2 EarningsKind = "upline_level_2"
)

// EarningsStatus is the payout lifecycle of an earnings record.
// Transitions: pending -> approved -> paid.
type EarningsStatus string

const (
	EarningsPending  EarningsStatus = "pending"
	EarningsApproved EarningsStatus = "approved"
	EarningsPaid     EarningsStatus = "paid"
)

// CanTransitionTo reports whether the status may move to next.
func (s EarningsStatus) CanTransitionTo(next EarningsStatus) bool {
	switch s {
	case EarningsPending:
		return next == EarningsApproved
	case EarningsApproved:
		return next == EarningsPaid
	default:
		return false
	}
}

// EarningsRecord is one commission grant produced by a completed
// transaction. A single transaction emits up to three records: the direct
// commission and the two upline bonuses, each with its own status
// lifecycle. Records are never deleted, only superseded. Amounts are in
// integer minor units; SlabPct is in basis points.
type EarningsRecord struct {
	ID               primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID         primitive.ObjectID  `json:"memberId" bson:"memberId"`
	ProjectID        primitive.ObjectID  `json:"projectId" bson:"projectId"`
	BookingID        *primitive.ObjectID `json:"bookingId,omitempty" bson:"bookingId,omitempty"`
	Kind             EarningsKind        `json:"kind" bson:"kind"`
	BaseAmount       int64               `json:"baseAmount" bson:"baseAmount"`
	SlabPct          int64               `json:"slabPct" bson:"slabPct"`
	CalculatedAmount int64               `json:"calculatedAmount" bson:"calculatedAmount"`
	TotalAmount      int64               `json:"totalAmount" bson:"totalAmount"`
	Status           EarningsStatus      `json:"status" bson:"status"`
	Notes            string              `json:"notes,omitempty" bson:"notes,omitempty"`
	ApproverID       primitive.ObjectID  `json:"approverId,omitempty" bson:"approverId,omitempty"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	ApprovedAt       *time.Time          `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	PaidAt           *time.Time          `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

// EarningsSummary totals a member's earnings per status.
type EarningsSummary struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Paid     int64 `json:"paid"`
	Count    int64 `json:"count"`
}
