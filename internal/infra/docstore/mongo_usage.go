package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/edusolve/internal/domain/usage"
)

type usageDoc struct {
	UserID   string    `bson:"user_id"`
	Usage    int64     `bson:"usage"`
	Tokens   int64     `bson:"tokens"`
	LastUsed time.Time `bson:"last_used"`
}

// MongoUsageRepository keeps per-user counters in the users collection.
type MongoUsageRepository struct {
	coll *mongo.Collection
}

// NewMongoUsageRepository binds the repository to db.
func NewMongoUsageRepository(db *mongo.Database) *MongoUsageRepository {
	return &MongoUsageRepository{coll: db.Collection(UsersCollection)}
}

// Increment upserts the user's document with an atomic $inc.
func (r *MongoUsageRepository) Increment(ctx context.Context, userID string, tokens int, at time.Time) error {
	update := bson.M{
		"$inc": bson.M{"usage": 1, "tokens": tokens},
		"$set": bson.M{"last_used": at},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoUsageRepository) Get(ctx context.Context, userID string) (usage.Record, bool, error) {
	var doc usageDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}, options.FindOne().SetProjection(bson.M{"_id": 0})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return usage.Record{}, false, nil
	}
	if err != nil {
		return usage.Record{}, false, err
	}
	return usage.Record{UserID: doc.UserID, Usage: doc.Usage, Tokens: doc.Tokens, LastUsed: doc.LastUsed.UTC()}, true, nil
}

var _ usage.Repository = (*MongoUsageRepository)(nil)
