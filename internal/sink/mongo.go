package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BartekS5/snapetl/pkg/models"
	"github.com/BartekS5/snapetl/pkg/utils"
)

// MongoSink mirrors built tables into MongoDB, one collection per table,
// upserting each row by its natural key. A later run's row for the same key
// replaces the earlier one, so the collection holds the current state of
// each dimension.
type MongoSink struct {
	log      *slog.Logger
	client   *mongo.Client
	database string
}

func NewMongoSink(log *slog.Logger, client *mongo.Client, database string) *MongoSink {
	return &MongoSink{log: log, client: client, database: database}
}

func (m *MongoSink) Write(ctx context.Context, table *models.Table, runTimestamp string) error {
	writes := make([]mongo.WriteModel, 0, table.Len())
	for _, row := range table.Rows {
		doc, err := toDocument(table, row, runTimestamp)
		if err != nil {
			return fmt.Errorf("table %s: %w", table.Name, err)
		}
		filter := bson.M{"_id": doc["_id"]}
		writes = append(writes, mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(doc).SetUpsert(true))
	}
	if len(writes) == 0 {
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	coll := m.client.Database(m.database).Collection(table.Name)
	res, err := coll.BulkWrite(writeCtx, writes)
	if err != nil {
		return fmt.Errorf("failed to write %s to MongoDB: %w", table.Name, err)
	}
	m.log.Info("mongo bulk write",
		"collection", table.Name, "matched", res.MatchedCount, "modified", res.ModifiedCount, "upserted", res.UpsertedCount)
	return nil
}

func toDocument(table *models.Table, row models.Row, runTimestamp string) (bson.M, error) {
	key := row[table.Key]
	if key == nil {
		return nil, fmt.Errorf("row missing natural key %s", table.Key)
	}
	doc := bson.M{"_id": utils.KeyString(key), "_run": runTimestamp}
	for _, c := range table.Columns {
		doc[c] = bsonValue(row[c])
	}
	return doc, nil
}

// bsonValue converts json.Number values decoded from snapshots into native
// numbers.
func bsonValue(v interface{}) interface{} {
	switch valueKind(v) {
	case kindInt:
		if i, err := utils.ConvertToInt64(v); err == nil {
			return i
		}
	case kindDouble:
		if f, err := utils.ConvertToFloat64(v); err == nil {
			return f
		}
	}
	return v
}
