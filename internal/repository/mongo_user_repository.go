package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"msgboard/internal/model"
)

const userCollection = "User"

type userDocument struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Username   string        `bson:"username"`
	Password   string        `bson:"password"`
	DateJoined time.Time     `bson:"dateJoined"`
}

func (d userDocument) toModel() model.User {
	return model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.Password,
		DateJoined:   d.DateJoined,
	}
}

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

// EnsureIndexes creates the unique username index that backs duplicate detection.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user index failed: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *model.User) error {
	doc := userDocument{
		ID:         bson.NewObjectID(),
		Username:   user.Username,
		Password:   user.PasswordHash,
		DateJoined: user.DateJoined,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert user failed: %w", err)
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, byUsername(username)).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "find user")
	}
	user := doc.toModel()
	return &user, nil
}

func (r *MongoUserRepository) DeleteByUsername(ctx context.Context, username string) (*model.User, error) {
	var doc userDocument
	if err := r.coll.FindOneAndDelete(ctx, byUsername(username)).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "delete user")
	}
	user := doc.toModel()
	return &user, nil
}

func (r *MongoUserRepository) Update(ctx context.Context, username string, changes UserChanges) (*model.User, error) {
	if changes.empty() {
		return r.GetByUsername(ctx, username)
	}

	set := bson.D{}
	if changes.PasswordHash != nil {
		set = append(set, bson.E{Key: "password", Value: *changes.PasswordHash})
	}

	var doc userDocument
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, byUsername(username), bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "update user")
	}
	user := doc.toModel()
	return &user, nil
}

func byUsername(username string) bson.D {
	return bson.D{{Key: "username", Value: username}}
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
