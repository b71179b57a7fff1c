package audit

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

const collectionAuditEvents = "audit_events"

// MongoSink writes audit entries to the audit_events collection.
type MongoSink struct {
	col *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{col: db.Collection(collectionAuditEvents)}
}

func (s *MongoSink) Insert(ctx context.Context, e Entry) error {
	_, err := s.col.InsertOne(ctx, e)
	return err
}
