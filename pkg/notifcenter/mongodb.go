package notifcenter

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStorage is a Storage implementation backed by a MongoDB collection.
// It exists for deployments that keep notification history alongside other
// document data instead of in Postgres.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage creates a MongoDB-backed notification storage using the
// "notifications" collection of the given database.
func NewMongoStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{coll: db.Collection("notifications")}
}

// EnsureIndexes creates the indexes the storage queries rely on. Call once
// at startup.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}}},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

type mongoNotification struct {
	ID        string         `bson:"id"`
	UserID    string         `bson:"user_id"`
	Type      Type           `bson:"type"`
	Priority  Priority       `bson:"priority"`
	Title     string         `bson:"title"`
	Message   string         `bson:"message"`
	Data      map[string]any `bson:"data,omitempty"`
	Read      bool           `bson:"read"`
	ReadAt    *time.Time     `bson:"read_at,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
	ExpiresAt *time.Time     `bson:"expires_at,omitempty"`
}

func toMongo(n Notification) mongoNotification {
	return mongoNotification(n)
}

func fromMongo(m mongoNotification) Notification {
	return Notification(m)
}

// notExpiredFilter matches documents without expiry or expiring after now.
func notExpiredFilter() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$exists": false}},
		bson.M{"expires_at": nil},
		bson.M{"expires_at": bson.M{"$gt": time.Now()}},
	}}
}

func (s *MongoStorage) Create(ctx context.Context, n Notification) error {
	_, err := s.coll.InsertOne(ctx, toMongo(n))
	return err
}

func (s *MongoStorage) Get(ctx context.Context, userID, id string) (*Notification, error) {
	var m mongoNotification
	err := s.coll.FindOne(ctx, bson.M{"id": id, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	n := fromMongo(m)
	return &n, nil
}

func (s *MongoStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	filter := bson.M{"user_id": userID}
	for k, v := range notExpiredFilter() {
		filter[k] = v
	}
	if opts.OnlyUnread {
		filter["read"] = false
	}
	if opts.Type != "" {
		filter["type"] = opts.Type
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []Notification{}
	for cursor.Next(ctx) {
		var m mongoNotification
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		notifications = append(notifications, fromMongo(m))
	}
	return notifications, cursor.Err()
}

func (s *MongoStorage) MarkRead(ctx context.Context, userID, id string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"id": id, "user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish already-read (idempotent success) from missing.
		count, err := s.coll.CountDocuments(ctx, bson.M{"id": id, "user_id": userID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotificationNotFound
		}
	}
	return nil
}

func (s *MongoStorage) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MongoStorage) Delete(ctx context.Context, userID, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *MongoStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	filter := bson.M{"user_id": userID, "read": false}
	for k, v := range notExpiredFilter() {
		filter[k] = v
	}
	count, err := s.coll.CountDocuments(ctx, filter)
	return int(count), err
}

func (s *MongoStorage) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{
		"read":       true,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

var _ Storage = (*MongoStorage)(nil)
