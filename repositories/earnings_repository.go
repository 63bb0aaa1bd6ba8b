package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upline-crm/upline_backend/config"
	"github.com/upline-crm/upline_backend/models"
	"github.com/upline-crm/upline_backend/services"
)

// EarningsRepository persists earnings records. Records are append-only:
// status moves forward through pending -> approved -> paid, nothing is
// deleted.
type EarningsRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewEarningsRepository(client *mongo.Client) *EarningsRepository {
	return &EarningsRepository{
		client:     client,
		collection: config.GetCollection(client, "earnings"),
	}
}

// InsertBatch writes all records of one commission calculation atomically.
// On any failure the transaction aborts and nothing is persisted.
func (r *EarningsRepository) InsertBatch(ctx context.Context, records []models.EarningsRecord) ([]models.EarningsRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	now := time.Now()
	docs := make([]interface{}, len(records))
	for i := range records {
		records[i].ID = primitive.NewObjectID()
		records[i].CreatedAt = now
		docs[i] = records[i]
	}

	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.collection.InsertMany(sc, docs, options.InsertMany().SetOrdered(true))
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, services.ErrInconsistentWrite)
	}
	return records, nil
}

// UpdateStatus advances one record through its payout lifecycle. Invalid
// transitions (e.g. paid -> pending) are rejected.
// The returned status is the record's status before the transition.
func (r *EarningsRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, next models.EarningsStatus, approverID primitive.ObjectID) (*models.EarningsRecord, models.EarningsStatus, error) {
	var record models.EarningsRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", fmt.Errorf("earnings record %s: %w", id.Hex(), services.ErrNotFound)
	}
	if err != nil {
		return nil, "", err
	}

	prev := record.Status
	if !prev.CanTransitionTo(next) {
		return nil, "", fmt.Errorf("earnings record %s cannot move %s -> %s: %w", id.Hex(), prev, next, services.ErrForbidden)
	}

	now := time.Now()
	update := bson.M{"status": next, "approverId": approverID}
	switch next {
	case models.EarningsApproved:
		update["approvedAt"] = now
	case models.EarningsPaid:
		update["paidAt"] = now
	}

	// The prior status in the filter makes the transition a compare-and-set:
	// of two racing transitions only one matches, the other sees a conflict.
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": prev}, bson.M{"$set": update})
	if err != nil {
		return nil, "", err
	}
	if res.MatchedCount == 0 {
		return nil, "", fmt.Errorf("earnings record %s changed concurrently: %w", id.Hex(), services.ErrInconsistentWrite)
	}

	record.Status = next
	record.ApproverID = approverID
	switch next {
	case models.EarningsApproved:
		record.ApprovedAt = &now
	case models.EarningsPaid:
		record.PaidAt = &now
	}
	return &record, prev, nil
}

// ListByMember returns a member's earnings, newest first.
func (r *EarningsRepository) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.EarningsRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"memberId": memberID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.EarningsRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SummaryByMember totals a member's earnings per status with a single
// aggregation.
func (r *EarningsRepository) SummaryByMember(ctx context.Context, memberID primitive.ObjectID) (*models.EarningsSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"memberId": memberID}}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$status",
			"total":  bson.M{"$sum": "$totalAmount"},
			"count":  bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	summary := &models.EarningsSummary{}
	for cursor.Next(ctx) {
		var row struct {
			Status models.EarningsStatus `bson:"_id"`
			Total  int64                 `bson:"total"`
			Count  int64                 `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		summary.Count += row.Count
		switch row.Status {
		case models.EarningsPending:
			summary.Pending = row.Total
		case models.EarningsApproved:
			summary.Approved = row.Total
		case models.EarningsPaid:
			summary.Paid = row.Total
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}
