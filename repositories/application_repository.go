package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/scholarfund_backend/config"
	"github.com/HSouheill/scholarfund_backend/models"
)

// ApplicationRepository stores applications in MongoDB
type ApplicationRepository struct {
	collection *mongo.Collection
}

// NewApplicationRepository creates a repository over the applications collection
func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{
		collection: db.Collection(config.ApplicationsCollection),
	}
}

// Create inserts a new application and sets its ID
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	res, err := r.collection.InsertOne(ctx, app)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		app.ID = id
	}
	return nil
}

func (r *ApplicationRepository) findOne(ctx context.Context, filter bson.M) (*models.Application, error) {
	var app models.Application
	err := r.collection.FindOne(ctx, filter).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

// FindByID returns the application with the given id
func (r *ApplicationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByWalletAndPool returns the application of a wallet to a pool
func (r *ApplicationRepository) FindByWalletAndPool(ctx context.Context, wallet, poolAddress string) (*models.Application, error) {
	return r.findOne(ctx, bson.M{"walletAddress": wallet, "poolAddress": poolAddress})
}

// FindByVerificationToken returns the application holding an unused token
func (r *ApplicationRepository) FindByVerificationToken(ctx context.Context, token string) (*models.Application, error) {
	return r.findOne(ctx, bson.M{"verificationToken": token})
}

// List returns one page of applications matching filter and the total count
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int64, error) {
	query := applicationQuery(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetSkip(filter.Skip()).SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	apps := []models.Application{}
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// ConfirmEmail marks the email verified, consumes the token and moves the
// status from `from` to `to`. It fails with ErrStatusConflict when the
// application changed since it was read.
func (r *ApplicationRepository) ConfirmEmail(ctx context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error) {
	filter := bson.M{"_id": id, "status": from, "emailVerified": false}
	update := bson.M{
		"$set": bson.M{
			"emailVerified": true,
			"verifiedAt":    at,
			"status":        to,
			"updatedAt":     at,
		},
		"$unset": bson.M{"verificationToken": ""},
	}
	return r.compareAndSet(ctx, filter, update)
}

// Review records an admin decision, moving the status from `from` to `to`
func (r *ApplicationRepository) Review(ctx context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, reviewer, notes string, at time.Time) (*models.Application, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{
		"$set": bson.M{
			"status":      to,
			"reviewedBy":  reviewer,
			"reviewNotes": notes,
			"reviewedAt":  at,
			"updatedAt":   at,
		},
	}
	return r.compareAndSet(ctx, filter, update)
}

// MarkPaid moves an approved application to paid
func (r *ApplicationRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, txHash, amount string, at time.Time) (*models.Application, error) {
	filter := bson.M{"_id": id, "status": models.StatusApproved}
	set := bson.M{
		"status":    models.StatusPaid,
		"paidAt":    at,
		"updatedAt": at,
	}
	if txHash != "" {
		set["transactionHash"] = txHash
	}
	if amount != "" {
		set["amount"] = amount
	}
	return r.compareAndSet(ctx, filter, bson.M{"$set": set})
}

func (r *ApplicationRepository) compareAndSet(ctx context.Context, filter, update bson.M) (*models.Application, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var app models.Application
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStatusConflict
		}
		return nil, err
	}
	return &app, nil
}

// CountByStatus counts applications per status, optionally for one pool
func (r *ApplicationRepository) CountByStatus(ctx context.Context, poolAddress string) (map[models.ApplicationStatus]int64, error) {
	match := bson.M{}
	if poolAddress != "" {
		match["poolAddress"] = poolAddress
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.ApplicationStatus `bson:"_id"`
		Count  int64                    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[models.ApplicationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// applicationQuery translates a listing filter into a Mongo query
func applicationQuery(filter models.ApplicationFilter) bson.M {
	query := bson.M{}
	if filter.WalletAddress != "" {
		query["walletAddress"] = filter.WalletAddress
	}
	if filter.PoolAddress != "" {
		query["poolAddress"] = filter.PoolAddress
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}
