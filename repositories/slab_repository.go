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

// SlabRepository stores per-project percentage slabs. The projectId unique
// index guarantees at most one slab per project.
type SlabRepository struct {
	collection *mongo.Collection
}

func NewSlabRepository(client *mongo.Client) *SlabRepository {
	return &SlabRepository{collection: config.GetCollection(client, "percentageSlabs")}
}

func (r *SlabRepository) SlabForProject(ctx context.Context, projectID primitive.ObjectID) (*models.PercentageSlab, error) {
	var slab models.PercentageSlab
	err := r.collection.FindOne(ctx, bson.M{"projectId": projectID}).Decode(&slab)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("slab for project %s: %w", projectID.Hex(), services.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &slab, nil
}

// UpsertSlab replaces a project's slab, creating it when absent, and
// returns the previous slab (nil when none existed) for auditing.
func (r *SlabRepository) UpsertSlab(ctx context.Context, slab *models.PercentageSlab) (*models.PercentageSlab, error) {
	slab.UpdatedAt = time.Now()

	var before models.PercentageSlab
	err := r.collection.FindOneAndReplace(
		ctx,
		bson.M{"projectId": slab.ProjectID},
		slab,
		options.FindOneAndReplace().SetUpsert(true),
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &before, nil
}
