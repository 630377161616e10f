package document

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

type userRepository struct {
	client *mongo.Client
	users  *mongo.Collection
}

func NewUserRepository(cfg conf.Persistence) (user.Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = "contactbook"
	}

	users := client.Database(name).Collection(cfg.Collection)

	// usernames are unique; concurrent registrations race on this index
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	repo := new(userRepository)
	repo.client = client
	repo.users = users

	return repo, nil
}

func (repo *userRepository) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (repo *userRepository) Insert(ctx context.Context, u *user.User) error {
	doc := newDocument(u)
	doc.ID = primitive.NewObjectID()

	if _, err := repo.users.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}

	u.ID = doc.ID.Hex()
	return nil
}

func (repo *userRepository) FindOne(ctx context.Context, filter user.Filter) (*user.User, error) {
	query, ok := toQuery(filter)
	if !ok {
		return nil, user.ErrUserNotFound
	}

	var doc *userDocument
	if err := repo.users.FindOne(ctx, query).Decode(&doc); err != nil {
		return nil, translate(err)
	}

	return doc.reconstitute(), nil
}

func (repo *userRepository) Find(ctx context.Context, filter user.Filter) ([]*user.User, error) {
	query, ok := toQuery(filter)
	if !ok {
		return []*user.User{}, nil
	}

	cursor, err := repo.users.Find(ctx, query)
	if err != nil {
		return nil, translate(err)
	}

	var docs []*userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	users := make([]*user.User, len(docs))
	for i, doc := range docs {
		users[i] = doc.reconstitute()
	}

	return users, nil
}

func (repo *userRepository) FindOneAndUpdate(ctx context.Context, id string, update user.Update) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, user.ErrUserNotFound
	}

	set := bson.M{
		"updatedAt": update.Time,
	}

	for field, value := range update.Set {
		set[string(field)] = value
	}

	if update.Favorite != nil {
		set["favorite"] = *update.Favorite
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc *userDocument
	err = repo.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}

	return doc.reconstitute(), nil
}

func (repo *userRepository) FindOneAndDelete(ctx context.Context, id string) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, user.ErrUserNotFound
	}

	var doc *userDocument
	if err := repo.users.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}

	return doc.reconstitute(), nil
}

func (repo *userRepository) DeleteMany(ctx context.Context, filter user.Filter) (int64, error) {
	query, ok := toQuery(filter)
	if !ok {
		return 0, nil
	}

	result, err := repo.users.DeleteMany(ctx, query)
	if err != nil {
		return 0, translate(err)
	}

	return result.DeletedCount, nil
}

func (repo *userRepository) Ping(ctx context.Context) error {
	if err := repo.client.Ping(ctx, readpref.Primary()); err != nil {
		return user.StorageError(err)
	}

	return nil
}

func (repo *userRepository) Close() error {
	return repo.client.Disconnect(context.Background())
}

// toQuery translates a filter into a query document. The second result is
// false when the filter cannot match anything, e.g. a malformed id.
func toQuery(filter user.Filter) (bson.M, bool) {
	query := bson.M{}

	if filter.ID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.ID)
		if err != nil {
			return nil, false
		}

		query["_id"] = oid
	}

	if filter.Username != "" {
		query["username"] = filter.Username
	}

	if filter.Name != "" {
		query["name"] = containsPattern(filter.Name)
	}

	if filter.Address != "" {
		query["address"] = containsPattern(filter.Address)
	}

	if filter.Favorite != nil {
		if *filter.Favorite {
			query["favorite"] = true
		} else {
			query["favorite"] = bson.M{"$ne": true}
		}
	}

	return query, true
}

// containsPattern matches s literally, case-insensitively, anywhere in the field.
func containsPattern(s string) primitive.Regex {
	return primitive.Regex{
		Pattern: regexp.QuoteMeta(s),
		Options: "i",
	}
}

func translate(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return user.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return user.ErrUserExists
	default:
		return user.StorageError(err)
	}
}
