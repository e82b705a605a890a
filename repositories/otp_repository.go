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

// OTPRepository stores email OTPs. Expired documents are removed by the TTL
// index on expiresAt, but Mongo sweeps only once a minute so reads still
// check the expiry.
type OTPRepository struct {
	collection *mongo.Collection
}

func NewOTPRepository(db *mongo.Database) *OTPRepository {
	return &OTPRepository{
		collection: db.Collection(config.OTPsCollection),
	}
}

func (r *OTPRepository) Create(ctx context.Context, otp *models.OTP) error {
	res, err := r.collection.InsertOne(ctx, otp)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		otp.ID = id
	}
	return nil
}

// DeleteFor removes every OTP of an (email, wallet) pair
func (r *OTPRepository) DeleteFor(ctx context.Context, email, wallet string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"email": email, "walletAddress": wallet})
	return err
}

func (r *OTPRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindLatest returns the newest OTP of an (email, wallet) pair
func (r *OTPRepository) FindLatest(ctx context.Context, email, wallet string) (*models.OTP, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var otp models.OTP
	err := r.collection.FindOne(ctx, bson.M{"email": email, "walletAddress": wallet}, opts).Decode(&otp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &otp, nil
}

// ReserveAttempt counts one attempt before the code is compared. The filter
// only matches while the OTP is unused and under limit attempts, so concurrent
// guesses can never spend more than limit. ErrStatusConflict means nothing is
// left to spend.
func (r *OTPRepository) ReserveAttempt(ctx context.Context, id primitive.ObjectID, limit int) (*models.OTP, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{
		"_id":      id,
		"verified": false,
		"attempts": bson.M{"$lt": limit},
	}

	var otp models.OTP
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"attempts": 1}}, opts).Decode(&otp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStatusConflict
		}
		return nil, err
	}
	return &otp, nil
}

// MarkVerified flags the OTP as used. Two concurrent correct codes race on
// the verified flag and only one wins.
func (r *OTPRepository) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "verified": false},
		bson.M{"$set": bson.M{"verified": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// HasVerified reports whether a verified, unexpired OTP exists for the pair
func (r *OTPRepository) HasVerified(ctx context.Context, email, wallet string, now time.Time) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"email":         email,
		"walletAddress": wallet,
		"verified":      true,
		"expiresAt":     bson.M{"$gt": now},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
