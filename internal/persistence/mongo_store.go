package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoStore struct {
	db *mongo.Database
}

type MongoStoreDependencies struct {
	Database *mongo.Database
}

func NewMongoStore(deps MongoStoreDependencies) DocumentStore {
	return &mongoStore{
		db: deps.Database,
	}
}

func (s *mongoStore) FindByID(ctx context.Context, collection, id string, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find document: %w", err)
	}

	return nil
}

func (s *mongoStore) Create(ctx context.Context, collection string, doc any) error {
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

func (s *mongoStore) UpdateByID(ctx context.Context, collection, id string, ops ...FieldOp) error {
	update, err := buildUpdate(ops)
	if err != nil {
		return err
	}

	result, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore) DeleteByID(ctx context.Context, collection, id string) error {
	result, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// buildUpdate groups field ops by operator into a single mongo update
// document, keeping the whole batch one atomic write.
func buildUpdate(ops []FieldOp) (bson.M, error) {
	if len(ops) == 0 {
		return nil, errors.New("update requires at least one field op")
	}

	operators := map[OpKind]string{
		OpSet:      "$set",
		OpUnset:    "$unset",
		OpAddToSet: "$addToSet",
		OpPull:     "$pull",
		OpInc:      "$inc",
	}

	update := bson.M{}
	for _, op := range ops {
		operator, ok := operators[op.Kind]
		if !ok {
			return nil, fmt.Errorf("unknown field op kind %q", op.Kind)
		}

		fields, ok := update[operator].(bson.M)
		if !ok {
			fields = bson.M{}
			update[operator] = fields
		}

		value := op.Value
		if op.Kind == OpUnset {
			value = ""
		}

		fields[op.Path.String()] = value
	}

	return update, nil
}
