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

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(config.UsersCollection),
	}
}

// Create inserts an onboarded user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	res, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (r *UserRepository) FindByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"walletAddress": wallet}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, wallet string, profile models.Profile) (*models.User, error) {
	return r.set(ctx, wallet, bson.M{"profile": profile})
}

func (r *UserRepository) UpdatePreferences(ctx context.Context, wallet string, prefs models.NotificationPreferences) (*models.User, error) {
	return r.set(ctx, wallet, bson.M{"notificationPreferences": prefs})
}

func (r *UserRepository) UpdateStudentData(ctx context.Context, wallet string, data *models.StudentData) (*models.User, error) {
	return r.set(ctx, wallet, bson.M{"studentData": data})
}

func (r *UserRepository) UpdateProviderData(ctx context.Context, wallet string, data *models.ProviderData) (*models.User, error) {
	return r.set(ctx, wallet, bson.M{"providerData": data})
}

// SetVerifiedEmail stores an email whose ownership was proven by OTP
func (r *UserRepository) SetVerifiedEmail(ctx context.Context, wallet, email string) (*models.User, error) {
	return r.set(ctx, wallet, bson.M{"email": email, "emailVerified": true})
}

func (r *UserRepository) TouchLogin(ctx context.Context, wallet string, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"walletAddress": wallet},
		bson.M{"$set": bson.M{"lastLoginAt": at}},
	)
	return err
}

func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}

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

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) set(ctx context.Context, wallet string, fields bson.M) (*models.User, error) {
	fields["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"walletAddress": wallet}, bson.M{"$set": fields}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
