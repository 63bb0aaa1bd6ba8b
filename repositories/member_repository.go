package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upline-crm/upline_backend/config"
	"github.com/upline-crm/upline_backend/models"
	"github.com/upline-crm/upline_backend/services"
)

// reparentBatchSize caps the number of descendant path rewrites per bulk
// write while a reparent transaction is open.
const reparentBatchSize = 500

// MemberRepository is the hierarchy store: it owns the members collection
// and keeps sponsorId pointers and materialized paths in agreement. The
// sponsor chain is the source of truth; the path array is the derived index
// maintained eagerly inside the same transaction as every structural write.
type MemberRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	settings   *mongo.Collection
}

func NewMemberRepository(client *mongo.Client) *MemberRepository {
	return &MemberRepository{
		client:     client,
		collection: config.GetCollection(client, "members"),
		settings:   config.GetCollection(client, "visibilitySettings"),
	}
}

// ReparentResult describes a completed sponsor reassignment for auditing.
type ReparentResult struct {
	MemberID           primitive.ObjectID  `json:"memberId"`
	OldSponsorID       *primitive.ObjectID `json:"oldSponsorId,omitempty"`
	NewSponsorID       primitive.ObjectID  `json:"newSponsorId"`
	DescendantsUpdated int                 `json:"descendantsUpdated"`
}

func (r *MemberRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		// Unique-index conflicts and validation failures are input errors,
		// not atomicity failures; they surface unchanged.
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		for _, sentinel := range []error{services.ErrNotFound, services.ErrInvalidSponsor, services.ErrCycleDetected} {
			if errors.Is(err, sentinel) {
				return err
			}
		}
		return fmt.Errorf("%v: %w", err, services.ErrInconsistentWrite)
	}
	return nil
}

func (r *MemberRepository) GetMember(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	var member models.Member
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("member %s: %w", id.Hex(), services.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetMemberByCode(ctx context.Context, code string) (*models.Member, error) {
	var member models.Member
	err := r.collection.FindOne(ctx, bson.M{"memberCode": code}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("member code %s: %w", code, services.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("member email: %w", services.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// CreateMember inserts a new member under an existing, active sponsor. The
// path is copied from the sponsor with the sponsor's id appended; the
// member document and its default visibility settings are written in one
// transaction.
func (r *MemberRepository) CreateMember(ctx context.Context, sponsorID primitive.ObjectID, member *models.Member) (*models.Member, error) {
	sponsor, err := r.GetMember(ctx, sponsorID)
	if errors.Is(err, services.ErrNotFound) {
		return nil, fmt.Errorf("sponsor %s does not exist: %w", sponsorID.Hex(), services.ErrInvalidSponsor)
	}
	if err != nil {
		return nil, err
	}
	if sponsor.Status != models.StatusActive {
		return nil, fmt.Errorf("sponsor %s is %s: %w", sponsorID.Hex(), sponsor.Status, services.ErrInvalidSponsor)
	}

	member.ID = primitive.NewObjectID()
	member.SponsorID = &sponsor.ID
	member.Path = sponsor.ChildPath()
	if member.Status == "" {
		member.Status = models.StatusActive
	}
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	err = r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.collection.InsertOne(sc, member); err != nil {
			return err
		}
		_, err := r.settings.InsertOne(sc, models.DefaultVisibilitySettings(member.ID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// CreateRoot inserts a new forest root with an empty path. Admin only.
func (r *MemberRepository) CreateRoot(ctx context.Context, member *models.Member) (*models.Member, error) {
	member.ID = primitive.NewObjectID()
	member.SponsorID = nil
	member.Path = []primitive.ObjectID{}
	if member.Status == "" {
		member.Status = models.StatusActive
	}
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.collection.InsertOne(sc, member); err != nil {
			return err
		}
		_, err := r.settings.InsertOne(sc, models.DefaultVisibilitySettings(member.ID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Reparent moves a member under a new sponsor and rewrites the path of
// every descendant, all inside one transaction so readers never observe a
// half-applied move. Moving a member under itself or one of its own
// descendants is rejected with ErrCycleDetected.
func (r *MemberRepository) Reparent(ctx context.Context, memberID, newSponsorID primitive.ObjectID) (*ReparentResult, error) {
	result := &ReparentResult{
		MemberID:     memberID,
		NewSponsorID: newSponsorID,
	}

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		// Read and validate inside the transaction. Validated against a
		// pre-transaction snapshot, two concurrent moves (A under B's
		// subtree, B under A's) would each pass and close a sponsor cycle.
		member, err := r.GetMember(sc, memberID)
		if err != nil {
			return err
		}
		sponsor, err := r.GetMember(sc, newSponsorID)
		if errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("new sponsor %s does not exist: %w", newSponsorID.Hex(), services.ErrInvalidSponsor)
		}
		if err != nil {
			return err
		}
		if err := services.ValidateReparent(member, sponsor); err != nil {
			return err
		}

		oldDepth := len(member.Path)
		newPath := sponsor.ChildPath()
		result.OldSponsorID = member.SponsorID
		result.DescendantsUpdated = 0

		// Touch the new sponsor so competing reparents share a written
		// document; the server then aborts one of them instead of letting
		// both commit against disjoint write sets.
		if _, err := r.collection.UpdateByID(sc, newSponsorID, bson.M{
			"$set": bson.M{"updatedAt": time.Now()},
		}); err != nil {
			return err
		}

		_, err = r.collection.UpdateByID(sc, memberID, bson.M{
			"$set": bson.M{
				"sponsorId": newSponsorID,
				"path":      newPath,
				"updatedAt": time.Now(),
			},
		})
		if err != nil {
			return err
		}

		cursor, err := r.collection.Find(sc, bson.M{"path": memberID})
		if err != nil {
			return err
		}
		defer cursor.Close(sc)

		var batch []mongo.WriteModel
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if _, err := r.collection.BulkWrite(sc, batch); err != nil {
				return err
			}
			result.DescendantsUpdated += len(batch)
			batch = batch[:0]
			return nil
		}

		for cursor.Next(sc) {
			var descendant models.Member
			if err := cursor.Decode(&descendant); err != nil {
				return err
			}
			spliced := services.ReparentedPath(descendant.Path, oldDepth, newPath)
			batch = append(batch, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": descendant.ID}).
				SetUpdate(bson.M{"$set": bson.M{"path": spliced, "updatedAt": time.Now()}}))
			if len(batch) >= reparentBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if err := cursor.Err(); err != nil {
			return err
		}
		return flush()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus changes a member's lifecycle status and returns the previous
// record for auditing.
func (r *MemberRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.MemberStatus) (*models.Member, error) {
	before, err := r.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	_, err = r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"status": status, "updatedAt": time.Now()},
	})
	if err != nil {
		return nil, err
	}
	return before, nil
}

// DirectChildren returns the members sponsored directly by id. Unless
// includeInactive is set (admin callers), only active members are returned.
func (r *MemberRepository) DirectChildren(ctx context.Context, id primitive.ObjectID, includeInactive bool) ([]models.Member, error) {
	filter := bson.M{"sponsorId": id}
	if !includeInactive {
		filter["status"] = models.StatusActive
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var children []models.Member
	if err := cursor.All(ctx, &children); err != nil {
		return nil, err
	}
	return children, nil
}

// SubtreeMembers returns every member whose materialized path contains
// rootID. The multikey index on path makes this a single indexed query
// rather than a recursive descent.
func (r *MemberRepository) SubtreeMembers(ctx context.Context, rootID primitive.ObjectID) ([]models.Member, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"path": rootID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []models.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MemberRepository) CountSubtree(ctx context.Context, rootID primitive.ObjectID, activeOnly bool) (int64, error) {
	filter := bson.M{"path": rootID}
	if activeOnly {
		filter["status"] = models.StatusActive
	}
	return r.collection.CountDocuments(ctx, filter)
}

// AllMembers streams the full member set for the integrity checker.
func (r *MemberRepository) AllMembers(ctx context.Context) ([]models.Member, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []models.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}
