package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/models"
)

// SlabSource resolves the percentage slab configured for a project.
// Implementations return ErrNotFound when no slab is configured.
type SlabSource interface {
	SlabForProject(ctx context.Context, projectID primitive.ObjectID) (*models.PercentageSlab, error)
}

// EarningsWriter persists a batch of earnings records atomically. A failed
// commit must leave no records behind.
type EarningsWriter interface {
	InsertBatch(ctx context.Context, records []models.EarningsRecord) ([]models.EarningsRecord, error)
}

// CommissionService computes role-based commissions and cascading upline
// bonuses for completed transactions. All amounts are integer minor units;
// slab percentages are basis points, so every amount is
// base * pct / 10000 with no floating point involved.
type CommissionService struct {
	members  MemberSource
	slabs    SlabSource
	earnings EarningsWriter
	audit    AuditSink

	// bonusOnBase selects whether upline bonuses are computed against the
	// original base amount (true, the default policy) or against the
	// member's already-calculated commission. Kept as an explicit flag so
	// the policy is confirmed, not silently assumed.
	bonusOnBase bool
}

func NewCommissionService(members MemberSource, slabs SlabSource, earnings EarningsWriter, audit AuditSink) *CommissionService {
	if audit == nil {
		audit = LogAuditSink
	}
	return &CommissionService{
		members:     members,
		slabs:       slabs,
		earnings:    earnings,
		audit:       audit,
		bonusOnBase: true,
	}
}

// commissionAmount computes base * basis points with exact integer
// arithmetic, truncating any sub-minor-unit remainder.
func commissionAmount(base, pctBp int64) int64 {
	return base * pctBp / 10000
}

// RecordEarnings computes and persists the earnings produced by one
// completed transaction: a direct commission for the member plus up to two
// upline bonuses. All records are written as one atomic batch; a partial
// failure persists nothing and returns ErrInconsistentWrite.
func (s *CommissionService) RecordEarnings(ctx context.Context, memberID, projectID primitive.ObjectID, baseAmount int64, bookingID *primitive.ObjectID, notes string, approverID primitive.ObjectID) ([]models.EarningsRecord, error) {
	if baseAmount <= 0 {
		return nil, fmt.Errorf("base amount must be positive, got %d: %w", baseAmount, ErrInvalidAmount)
	}

	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("resolve member %s: %w", memberID.Hex(), err)
	}

	slab, err := s.slabs.SlabForProject(ctx, projectID)
	if errors.Is(err, ErrNotFound) {
		slab = models.DefaultSlab()
	} else if err != nil {
		return nil, fmt.Errorf("resolve slab for project %s: %w", projectID.Hex(), err)
	}

	directPct := slab.PctForRole(member.Role)
	direct := models.EarningsRecord{
		MemberID:         member.ID,
		ProjectID:        projectID,
		BookingID:        bookingID,
		Kind:             models.EarningsDirect,
		BaseAmount:       baseAmount,
		SlabPct:          directPct,
		CalculatedAmount: commissionAmount(baseAmount, directPct),
		Status:           models.EarningsPending,
		Notes:            notes,
		ApproverID:       approverID,
	}
	direct.TotalAmount = direct.CalculatedAmount
	batch := []models.EarningsRecord{direct}

	bonusBase := baseAmount
	if !s.bonusOnBase {
		bonusBase = direct.CalculatedAmount
	}

	if uplineID, ok := member.DirectUplineID(); ok {
		if rec := s.uplineBonus(ctx, uplineID, projectID, bookingID, bonusBase, slab.UplineBonus1Pct, models.EarningsUpline1, approverID); rec != nil {
			batch = append(batch, *rec)
		}
	}
	if uplineID, ok := member.SecondUplineID(); ok {
		if rec := s.uplineBonus(ctx, uplineID, projectID, bookingID, bonusBase, slab.UplineBonus2Pct, models.EarningsUpline2, approverID); rec != nil {
			batch = append(batch, *rec)
		}
	}

	persisted, err := s.earnings.InsertBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("persist earnings batch for member %s: %w", memberID.Hex(), err)
	}

	for _, rec := range persisted {
		s.audit(ctx, NewAuditFact("earnings.recorded", approverID, rec.MemberID, nil, rec))
	}
	return persisted, nil
}

// uplineBonus builds one bonus record for an ancestor. Missing or inactive
// uplines yield no record; that is not an error (roots simply have no bonus
// recipients).
func (s *CommissionService) uplineBonus(ctx context.Context, uplineID, projectID primitive.ObjectID, bookingID *primitive.ObjectID, base, pctBp int64, kind models.EarningsKind, approverID primitive.ObjectID) *models.EarningsRecord {
	upline, err := s.members.GetMember(ctx, uplineID)
	if err != nil || upline.Status != models.StatusActive {
		return nil
	}
	rec := &models.EarningsRecord{
		MemberID:         upline.ID,
		ProjectID:        projectID,
		BookingID:        bookingID,
		Kind:             kind,
		BaseAmount:       base,
		SlabPct:          pctBp,
		CalculatedAmount: commissionAmount(base, pctBp),
		Status:           models.EarningsPending,
		ApproverID:       approverID,
	}
	rec.TotalAmount = rec.CalculatedAmount
	return rec
}
