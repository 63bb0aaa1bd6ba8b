package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/models"
	"github.com/upline-crm/upline_backend/repositories"
	"github.com/upline-crm/upline_backend/services"
)

type EarningsController struct {
	commission *services.CommissionService
	earnings   *repositories.EarningsRepository
	audit      services.AuditSink
}

func NewEarningsController(commission *services.CommissionService, earnings *repositories.EarningsRepository, audit services.AuditSink) *EarningsController {
	if audit == nil {
		audit = services.LogAuditSink
	}
	return &EarningsController{commission: commission, earnings: earnings, audit: audit}
}

// RecordEarnings runs the commission calculation for one completed
// transaction. Admin only. The caller receives all emitted records so it
// can total amounts per status.
func (ec *EarningsController) RecordEarnings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var req models.RecordEarningsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid member ID format",
		})
	}
	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid project ID format",
		})
	}

	var bookingID *primitive.ObjectID
	if req.BookingID != "" {
		id, err := primitive.ObjectIDFromHex(req.BookingID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid booking ID format",
			})
		}
		bookingID = &id
	}

	approver, err := viewerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	records, err := ec.commission.RecordEarnings(ctx, memberID, projectID, req.BaseAmount, bookingID, req.Notes, approver.ID)
	if err != nil {
		return respondError(c, err)
	}

	var total int64
	for _, rec := range records {
		total += rec.TotalAmount
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Earnings recorded",
		Data: map[string]interface{}{
			"records":     records,
			"totalAmount": total,
		},
	})
}

// UpdateStatus advances one earnings record through pending -> approved ->
// paid. Admin only.
func (ec *EarningsController) UpdateStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	recordID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid record ID format",
		})
	}

	var req models.UpdateEarningsStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	next := models.EarningsStatus(req.Status)
	if next != models.EarningsApproved && next != models.EarningsPaid {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Status must be approved or paid",
		})
	}

	approver, err := viewerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	record, prev, err := ec.earnings.UpdateStatus(ctx, recordID, next, approver.ID)
	if err != nil {
		return respondError(c, err)
	}

	ec.audit(ctx, services.NewAuditFact("earnings.status", approver.ID, record.ID, prev, next))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Earnings status updated",
		Data:    record,
	})
}

// ListMemberEarnings returns a member's earnings with per-status totals.
// Members see their own; admins see anyone's.
func (ec *EarningsController) ListMemberEarnings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	memberID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid member ID format",
		})
	}

	viewer, err := viewerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}
	if !viewer.IsAdmin && viewer.ID != memberID {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You may only view your own earnings",
		})
	}

	records, err := ec.earnings.ListByMember(ctx, memberID)
	if err != nil {
		return respondError(c, err)
	}
	summary, err := ec.earnings.SummaryByMember(ctx, memberID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Earnings retrieved",
		Data: map[string]interface{}{
			"records": records,
			"summary": summary,
		},
	})
}
