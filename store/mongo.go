package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raushankrgupta/fitly/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const UsersCollection = "users"

// secretFields are never loaded outside of credential checks
var secretFields = bson.M{
	models.FieldPassword:             0,
	models.FieldResetPasswordToken:   0,
	models.FieldResetPasswordExpires: 0,
}

// MongoStore keeps users in a MongoDB collection
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(UsersCollection)}
}

// EnsureIndexes creates the unique email index and the sparse unique
// google_id index. It is safe to call on every start.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: models.FieldEmail, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: models.FieldGoogleID, Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: models.FieldResetPasswordToken, Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{
				models.FieldResetPasswordToken: bson.M{"$exists": true},
			}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{models.FieldEmail: email}).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var user models.User
	opts := options.FindOne().SetProjection(secretFields)
	if err := s.coll.FindOne(ctx, bson.M{"_id": objID}, opts).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *MongoStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		return translate(err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, id string, changes *Changes) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": objID}, changes)
}

func (s *MongoStore) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, changes *Changes) (*models.User, error) {
	changes.Unset(models.FieldResetPasswordToken).Unset(models.FieldResetPasswordExpires)
	filter := bson.M{
		models.FieldResetPasswordToken:   tokenHash,
		models.FieldResetPasswordExpires: bson.M{"$gt": now},
	}
	return s.findOneAndUpdate(ctx, filter, changes)
}

func (s *MongoStore) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetProjection(secretFields)

	cursor, err := s.coll.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, total, nil
}

func (s *MongoStore) findOneAndUpdate(ctx context.Context, filter bson.M, changes *Changes) (*models.User, error) {
	update, err := updateDocument(changes)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(secretFields)

	var user models.User
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func updateDocument(changes *Changes) (bson.M, error) {
	if changes.PasswordDirty() {
		return nil, ErrUnhashedPassword
	}

	set := bson.M{models.FieldUpdatedAt: time.Now()}
	for field, value := range changes.Fields() {
		set[field] = value
	}
	update := bson.M{"$set": set}

	if incs := changes.Increments(); len(incs) > 0 {
		inc := bson.M{}
		for field, n := range incs {
			inc[field] = n
		}
		update["$inc"] = inc
	}

	if unsets := changes.Unsets(); len(unsets) > 0 {
		unset := bson.M{}
		for _, field := range unsets {
			unset[field] = ""
		}
		update["$unset"] = unset
	}
	return update, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return fmt.Errorf("database error: %w", err)
	}
}
