// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoUser is the stored shape of a user document.
type mongoUser struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	FirstName    string        `bson:"firstName"`
	LastName     string        `bson:"lastName"`
	Password     string        `bson:"password"`
	Measurements *Measurements `bson:"measurements,omitempty"`
	BodyType     *string       `bson:"bodyType,omitempty"`
	Outfit       *string       `bson:"outfit,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (document *mongoUser) toUser() *User {
	return &User{
		ID:           document.ID.Hex(),
		Username:     document.Username,
		Email:        document.Email,
		FirstName:    document.FirstName,
		LastName:     document.LastName,
		PasswordHash: document.Password,
		Measurements: document.Measurements,
		BodyType:     document.BodyType,
		Outfit:       document.Outfit,
		CreatedAt:    document.CreatedAt,
		UpdatedAt:    document.UpdatedAt,
	}
}

// # User Directory

// MongoUserDirectory implements [UserDirectory] on a MongoDB collection.
//
// IDs are ObjectID hex strings. Call [MongoUserDirectory.EnsureIndexes] once
// at startup so the unique indexes exist before the first insert.
type MongoUserDirectory struct {
	collection *mongo.Collection
}

// NewMongoUserDirectory binds the directory to a collection.
func NewMongoUserDirectory(collection *mongo.Collection) *MongoUserDirectory {
	return &MongoUserDirectory{collection: collection}
}

// EnsureIndexes creates the unique username and email indexes if missing.
func (directory *MongoUserDirectory) EnsureIndexes(ctx context.Context) error {
	_, err := directory.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: FieldUsername, Value: 1}}, Options: options.Index().SetUnique(true).SetName("uq_username")},
		{Keys: bson.D{{Key: FieldEmail, Value: 1}}, Options: options.Index().SetUnique(true).SetName("uq_email")},
	})
	if err != nil {
		return fmt.Errorf("mongo_user_directory_ensure_indexes_failed: %w", err)
	}
	return nil
}

// FindByID looks a user up by ObjectID hex; malformed IDs match nothing.
func (directory *MongoUserDirectory) FindByID(ctx context.Context, id string) (*User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return directory.findOne(ctx, bson.D{{Key: "_id", Value: objectID}}, "mongo_user_directory_find_by_id_failed")
}

// FindByUsername looks a user up by exact username.
func (directory *MongoUserDirectory) FindByUsername(ctx context.Context, username string) (*User, error) {
	return directory.findOne(ctx, bson.D{{Key: FieldUsername, Value: username}}, "mongo_user_directory_find_by_username_failed")
}

// ExistsByUsernameOrEmail counts at most one matching document.
func (directory *MongoUserDirectory) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: FieldUsername, Value: username}},
		bson.D{{Key: FieldEmail, Value: email}},
	}}}

	count, err := directory.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo_user_directory_exists_failed: %w", err)
	}
	return count > 0, nil
}

// Create inserts the document and assigns the generated ObjectID.
func (directory *MongoUserDirectory) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	document := mongoUser{
		ID:        bson.NewObjectID(),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Password:  user.PasswordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := directory.collection.InsertOne(ctx, document); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("mongo_user_directory_create_failed: %w", err)
	}

	user.ID = document.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// UpdateBodyProfile sets present fields and unsets absent ones.
func (directory *MongoUserDirectory) UpdateBodyProfile(ctx context.Context, id string, profile BodyProfile) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	update := bodyProfileUpdate(profile, time.Now().UTC())

	result, err := directory.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: objectID}}, update)
	if err != nil {
		return fmt.Errorf("mongo_user_directory_update_profile_failed: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// bodyProfileUpdate builds the full-replace update: present fields go to
// $set, absent ones to $unset so no stale value survives.
func bodyProfileUpdate(profile BodyProfile, now time.Time) bson.D {
	set := bson.D{{Key: "updatedAt", Value: now}}
	unset := bson.D{}

	assign := func(key string, present bool, value any) {
		if present {
			set = append(set, bson.E{Key: key, Value: value})
		} else {
			unset = append(unset, bson.E{Key: key, Value: ""})
		}
	}
	assign("measurements", profile.Measurements != nil, profile.Measurements)
	assign("bodyType", profile.BodyType != nil, profile.BodyType)
	assign("outfit", profile.Outfit != nil, profile.Outfit)

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}

func (directory *MongoUserDirectory) findOne(ctx context.Context, filter bson.D, operation string) (*User, error) {
	var document mongoUser
	if err := directory.collection.FindOne(ctx, filter).Decode(&document); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return document.toUser(), nil
}
