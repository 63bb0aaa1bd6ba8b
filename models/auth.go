package models

// SignupRequest is the payload for joining the network under a sponsor.
// The sponsor is identified by their member code, not their raw id.
type SignupRequest struct {
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone,omitempty"`
	City        string `json:"city,omitempty"`
	Password    string `json:"password" validate:"required,min=8"`
	SponsorCode string `json:"sponsorCode" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// CreateRootRequest seeds a new forest root. Admin only.
type CreateRootRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// ReparentRequest moves a member (and their whole subtree) under a new
// sponsor. Admin only.
type ReparentRequest struct {
	NewSponsorID string `json:"newSponsorId" validate:"required"`
}

type UpdateMemberStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// RecordEarningsRequest records a completed transaction for commission
// calculation. BaseAmount is in integer minor units.
type RecordEarningsRequest struct {
	MemberID   string `json:"memberId" validate:"required"`
	ProjectID  string `json:"projectId" validate:"required"`
	BaseAmount int64  `json:"baseAmount" validate:"required,gt=0"`
	BookingID  string `json:"bookingId,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type UpdateEarningsStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateSlabRequest configures a project's percentage slab. Percentages are
// in basis points.
type UpdateSlabRequest struct {
	RolePct         map[string]int64 `json:"rolePct" validate:"required"`
	UplineBonus1Pct int64            `json:"uplineBonus1Pct" validate:"gte=0"`
	UplineBonus2Pct int64            `json:"uplineBonus2Pct" validate:"gte=0"`
}

type UpdateVisibilityRequest struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	City  string `json:"city,omitempty"`
}
