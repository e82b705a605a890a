package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/HSouheill/scholarfund_backend/models"
)

func TestApplicationQuery(t *testing.T) {
	assert.Empty(t, applicationQuery(models.ApplicationFilter{}))

	query := applicationQuery(models.ApplicationFilter{
		WalletAddress: "0xabc",
		PoolAddress:   "0xdef",
		Status:        models.StatusVerified,
	})
	assert.Equal(t, bson.M{
		"walletAddress": "0xabc",
		"poolAddress":   "0xdef",
		"status":        models.StatusVerified,
	}, query)
}

func TestApplicationRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create sets the id", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		app := &models.Application{WalletAddress: "0xabc", PoolAddress: "0xdef", Status: models.StatusPending}
		require.NoError(mt, repo.Create(ctx, app))
		assert.False(mt, app.ID.IsZero())
	})

	mt.Run("duplicate pair", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := repo.Create(ctx, &models.Application{WalletAddress: "0xabc", PoolAddress: "0xdef"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "scholarfund.applications", mtest.FirstBatch))

		_, err := repo.FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("review wins", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "status", Value: "approved"},
			{Key: "reviewedBy", Value: "0xadmin"},
		}}))

		app, err := repo.Review(ctx, id, models.StatusVerified, models.StatusApproved, "0xadmin", "", time.Now())
		require.NoError(mt, err)
		assert.Equal(mt, models.StatusApproved, app.Status)
		assert.Equal(mt, "0xadmin", app.ReviewedBy)
	})

	mt.Run("review loses the race", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.Review(ctx, primitive.NewObjectID(), models.StatusVerified, models.StatusApproved, "0xadmin", "", time.Now())
		assert.ErrorIs(mt, err, ErrStatusConflict)
	})

	mt.Run("count by status", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "scholarfund.applications", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "pending"}, {Key: "count", Value: int64(2)}},
			bson.D{{Key: "_id", Value: "paid"}, {Key: "count", Value: int64(1)}},
		))

		counts, err := repo.CountByStatus(ctx, "")
		require.NoError(mt, err)
		assert.Equal(mt, map[models.ApplicationStatus]int64{
			models.StatusPending: 2,
			models.StatusPaid:    1,
		}, counts)
	})
}

func TestOTPRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("reserve attempt returns the new count", func(mt *mtest.T) {
		repo := NewOTPRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "attempts", Value: int32(2)},
		}}))

		otp, err := repo.ReserveAttempt(ctx, primitive.NewObjectID(), models.MaxOTPAttempts)
		require.NoError(mt, err)
		assert.Equal(mt, 2, otp.Attempts)
		assert.Equal(mt, 1, otp.RemainingAttempts())
	})

	mt.Run("reserve attempt when spent", func(mt *mtest.T) {
		repo := NewOTPRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.ReserveAttempt(ctx, primitive.NewObjectID(), models.MaxOTPAttempts)
		assert.ErrorIs(mt, err, ErrStatusConflict)
	})

	mt.Run("mark verified twice", func(mt *mtest.T) {
		repo := NewOTPRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		id := primitive.NewObjectID()
		require.NoError(mt, repo.MarkVerified(ctx, id))
		assert.ErrorIs(mt, repo.MarkVerified(ctx, id), ErrStatusConflict)
	})
}
