package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/edusolve/internal/domain/assistant"
)

type turnDoc struct {
	User      string    `bson:"user"`
	AI        string    `bson:"ai"`
	Timestamp time.Time `bson:"timestamp"`
}

type sessionDoc struct {
	SessionID   string    `bson:"session_id"`
	UserID      string    `bson:"user_id"`
	History     []turnDoc `bson:"history"`
	CreatedAt   time.Time `bson:"created_at"`
	LastUpdated time.Time `bson:"last_updated"`
}

// MongoSessionRepository stores chat transcripts, one document per session.
type MongoSessionRepository struct {
	coll *mongo.Collection
}

// NewMongoSessionRepository binds the repository to db.
func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{coll: db.Collection(SessionsCollection)}
}

// EnsureIndexes creates the lookup indexes.
func (r *MongoSessionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "last_updated", Value: -1}}},
	})
	return err
}

func (r *MongoSessionRepository) Create(ctx context.Context, session assistant.Session) error {
	_, err := r.coll.InsertOne(ctx, toSessionDoc(session))
	return err
}

// Append pushes the turn and reports whether a session matched.
func (r *MongoSessionRepository) Append(ctx context.Context, sessionID, owner string, turn assistant.Turn) (bool, error) {
	update := bson.M{
		"$push": bson.M{"history": toTurnDoc(turn)},
		"$set":  bson.M{"last_updated": turn.Timestamp},
	}
	res, err := r.coll.UpdateOne(ctx, sessionFilter(sessionID, owner), update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoSessionRepository) History(ctx context.Context, sessionID, owner string) ([]assistant.Turn, bool, error) {
	var doc sessionDoc
	opts := options.FindOne().SetProjection(bson.M{"_id": 0, "history": 1})
	err := r.coll.FindOne(ctx, sessionFilter(sessionID, owner), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	turns := make([]assistant.Turn, 0, len(doc.History))
	for _, t := range doc.History {
		turns = append(turns, assistant.Turn{User: t.User, AI: t.AI, Timestamp: t.Timestamp.UTC()})
	}
	return turns, true, nil
}

func (r *MongoSessionRepository) List(ctx context.Context, userID string) ([]assistant.SessionSummary, error) {
	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "session_id": 1, "created_at": 1, "last_updated": 1}).
		SetSort(bson.D{{Key: "last_updated", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []sessionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]assistant.SessionSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, assistant.SessionSummary{SessionID: d.SessionID, CreatedAt: d.CreatedAt.UTC(), LastUpdated: d.LastUpdated.UTC()})
	}
	return out, nil
}

func sessionFilter(sessionID, owner string) bson.M {
	filter := bson.M{"session_id": sessionID}
	if owner != "" {
		filter["user_id"] = owner
	}
	return filter
}

func toTurnDoc(t assistant.Turn) turnDoc {
	return turnDoc{User: t.User, AI: t.AI, Timestamp: t.Timestamp}
}

func toSessionDoc(s assistant.Session) sessionDoc {
	history := make([]turnDoc, 0, len(s.History))
	for _, t := range s.History {
		history = append(history, toTurnDoc(t))
	}
	return sessionDoc{
		SessionID:   s.ID,
		UserID:      s.UserID,
		History:     history,
		CreatedAt:   s.CreatedAt,
		LastUpdated: s.LastUpdated,
	}
}

var _ assistant.SessionRepository = (*MongoSessionRepository)(nil)
