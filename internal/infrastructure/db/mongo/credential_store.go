package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ceasar/auth-service/internal/core/domain"
)

const usersCollection = "users"

// CredentialStore implements ports.CredentialStore on a MongoDB collection.
// Username uniqueness is enforced by a unique index (see EnsureIndexes).
type CredentialStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewCredentialStore(client *mongo.Client, db *mongo.Database) *CredentialStore {
	return &CredentialStore{client: client, coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID           string   `bson:"_id"`
	Username     string   `bson:"username"`
	PasswordHash string   `bson:"password_hash"`
	Permissions  []string `bson:"permissions"`
	CreatedAt    int64    `bson:"created_at"`
}

func (r *CredentialStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Permissions:  user.Permissions,
		CreatedAt:    user.CreatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, insertError(err)
	}
	return toDomain(doc), nil
}

func (r *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *CredentialStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *CredentialStore) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		return nil, findError(err)
	}
	return toDomain(mu), nil
}

func insertError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrUserExists
	}
	return fmt.Errorf("insert user: %w: %v", domain.ErrStoreUnavailable, err)
}

func findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrUserNotFound
	}
	return fmt.Errorf("find user: %w: %v", domain.ErrStoreUnavailable, err)
}

// EnsureIndexes creates the unique username index that makes concurrent
// registrations of one username collide.
func (r *CredentialStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_username"),
	})
	return err
}

func (r *CredentialStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *CredentialStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func toDomain(mu mongoUser) *domain.User {
	perms := mu.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &domain.User{
		ID:           mu.ID,
		Username:     mu.Username,
		PasswordHash: mu.PasswordHash,
		Permissions:  perms,
		CreatedAt:    unixToTime(mu.CreatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
