package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/ultimatepos/activitylog/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var sortKeys = map[string]string{
	SortTimestamp:   "timestamp",
	SortActorID:     "actorId",
	SortLogCategory: "logCategory",
	SortAction:      "action",
	SortStatus:      "status",
}

// MongoActivityLogRepo stores one document per record, keyed by the record id.
type MongoActivityLogRepo struct {
	coll *mongo.Collection
}

func NewMongoActivityLogRepo(coll *mongo.Collection) *MongoActivityLogRepo {
	return &MongoActivityLogRepo{coll: coll}
}

// EnsureIndexes creates one compound (field, _id) index per filterable field.
func (r *MongoActivityLogRepo) EnsureIndexes(ctx context.Context) error {
	var idx []mongo.IndexModel
	for _, key := range sortKeys {
		idx = append(idx, mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}, {Key: "_id", Value: 1}}})
	}
	_, err := r.coll.Indexes().CreateMany(ctx, idx)
	return err
}

func (r *MongoActivityLogRepo) Insert(ctx context.Context, l *models.ActivityLog) error {
	_, err := r.coll.InsertOne(ctx, l)
	return err
}

func (r *MongoActivityLogRepo) GetByID(ctx context.Context, id string) (*models.ActivityLog, error) {
	var l models.ActivityLog
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l.Timestamp = l.Timestamp.UTC()
	return &l, nil
}

func (r *MongoActivityLogRepo) List(ctx context.Context, f ActivityLogFilter, s ActivityLogSort, after *Cursor, limit int) ([]models.ActivityLog, error) {
	key, ok := sortKeys[s.Field]
	if !ok {
		return nil, fmt.Errorf("unknown sort field %q", s.Field)
	}
	dir := 1
	if s.Desc {
		dir = -1
	}

	filter := buildActivityLogFilter(f)
	if after != nil {
		filter = bson.M{"$and": bson.A{filter, keysetFilter(key, s.Desc, after)}}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: key, Value: dir}, {Key: "_id", Value: dir}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var logs []models.ActivityLog
	for cur.Next(ctx) {
		var l models.ActivityLog
		if err := cur.Decode(&l); err != nil {
			return nil, err
		}
		l.Timestamp = l.Timestamp.UTC()
		logs = append(logs, l)
	}
	return logs, cur.Err()
}

func (r *MongoActivityLogRepo) Count(ctx context.Context, f ActivityLogFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, buildActivityLogFilter(f))
}

func buildActivityLogFilter(f ActivityLogFilter) bson.M {
	filter := bson.M{}
	if f.DateFrom != nil || f.DateTo != nil {
		rng := bson.M{}
		if f.DateFrom != nil {
			rng["$gte"] = *f.DateFrom
		}
		if f.DateTo != nil {
			rng["$lte"] = *f.DateTo
		}
		filter["timestamp"] = rng
	}
	if f.ActorID != "" {
		filter["actorId"] = f.ActorID
	}
	if f.LogCategory != "" {
		filter["logCategory"] = f.LogCategory
	}
	if f.Action != "" {
		filter["action"] = f.Action
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

// keysetFilter matches the documents after c under (key, _id) order.
func keysetFilter(key string, desc bool, c *Cursor) bson.M {
	cmp := "$gt"
	if desc {
		cmp = "$lt"
	}
	return bson.M{"$or": bson.A{
		bson.M{key: bson.M{cmp: c.SortValue()}},
		bson.M{key: c.SortValue(), "_id": bson.M{cmp: c.ID}},
	}}
}
