package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"msgboard/internal/model"
)

const messageCollection = "Message"

type messageDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Msg         string        `bson:"msg"`
	MsgFrom     string        `bson:"msgFrom"`
	MsgDateTime time.Time     `bson:"msgDateTime"`
}

func (d messageDocument) toModel() model.Message {
	return model.Message{
		ID:          d.ID.Hex(),
		Msg:         d.Msg,
		MsgFrom:     d.MsgFrom,
		MsgDateTime: d.MsgDateTime,
	}
}

type MongoMessageRepository struct {
	coll *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{coll: db.Collection(messageCollection)}
}

func (r *MongoMessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "msgDateTime", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create message index failed: %w", err)
	}
	return nil
}

func (r *MongoMessageRepository) Create(ctx context.Context, message *model.Message) error {
	doc := messageDocument{
		ID:          bson.NewObjectID(),
		Msg:         message.Msg,
		MsgFrom:     message.MsgFrom,
		MsgDateTime: message.MsgDateTime,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message failed: %w", err)
	}
	message.ID = doc.ID.Hex()
	return nil
}

func (r *MongoMessageRepository) ListAll(ctx context.Context) ([]model.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "msgDateTime", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages failed: %w", err)
	}

	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages failed: %w", err)
	}
	return lo.Map(docs, func(doc messageDocument, _ int) model.Message {
		return doc.toModel()
	}), nil
}
