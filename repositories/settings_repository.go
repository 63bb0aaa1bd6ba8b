package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upline-crm/upline_backend/config"
	"github.com/upline-crm/upline_backend/models"
)

// SettingsRepository stores per-member visibility preferences.
type SettingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(client *mongo.Client) *SettingsRepository {
	return &SettingsRepository{collection: config.GetCollection(client, "visibilitySettings")}
}

// GetVisibility returns a member's visibility settings. A member who never
// chose gets the defaults; the result is always normalized.
func (r *SettingsRepository) GetVisibility(ctx context.Context, memberID primitive.ObjectID) (*models.VisibilitySettings, error) {
	var settings models.VisibilitySettings
	err := r.collection.FindOne(ctx, bson.M{"memberId": memberID}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultVisibilitySettings(memberID), nil
	}
	if err != nil {
		return nil, err
	}
	settings.Normalize()
	return &settings, nil
}

// UpdateVisibility upserts a member's visibility choices.
func (r *SettingsRepository) UpdateVisibility(ctx context.Context, settings *models.VisibilitySettings) error {
	settings.Normalize()
	settings.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"memberId": settings.MemberID},
		bson.M{"$set": bson.M{
			"phone":     settings.Phone,
			"email":     settings.Email,
			"city":      settings.City,
			"updatedAt": settings.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}
