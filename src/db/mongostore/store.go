package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-tracker-server/src/db"
	"expense-tracker-server/src/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	_ db.TransactionStore = (*Store)(nil)
	_ db.UserStore        = (*Store)(nil)
)

// Store wraps the MongoDB collections backing transactions and users.
type Store struct {
	client       *mongo.Client
	transactions *mongo.Collection
	users        *mongo.Collection
}

type transactionDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Text      string             `bson:"text"`
	Category  string             `bson:"category,omitempty"`
	Amount    float64            `bson:"amount"`
	Date      string             `bson:"date,omitempty"`
	Type      string             `bson:"type"`
	CreatedAt time.Time          `bson:"createdAt"`
	Version   int64              `bson:"version"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash []byte             `bson:"password"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

// New connects, pings and makes sure the indexes the queries rely on exist.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(dbName)
	s := &Store{
		client:       client,
		transactions: database.Collection("transactions"),
		users:        database.Collection("users"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.Info().Str("database", dbName).Msg("Successfully connected to MongoDB")
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction index: %w", err)
	}
	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user index: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (d transactionDocument) model() models.Transaction {
	return models.Transaction{
		ID:        d.ID.Hex(),
		OwnerID:   d.UserID,
		Text:      d.Text,
		Category:  d.Category,
		Amount:    d.Amount,
		Date:      d.Date,
		Type:      d.Type,
		CreatedAt: d.CreatedAt,
		Version:   d.Version,
	}
}

func (d userDocument) model() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

// objectID maps malformed ids to ErrNotFound: no record can have them.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, db.ErrNotFound
	}
	return oid, nil
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := s.transactions.Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	defer cursor.Close(ctx)

	transactions := make([]models.Transaction, 0)
	for cursor.Next(ctx) {
		var doc transactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		transactions = append(transactions, doc.model())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc transactionDocument
	err = s.transactions.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	tx := doc.model()
	return &tx, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	doc := transactionDocument{
		ID:        primitive.NewObjectID(),
		UserID:    tx.OwnerID,
		Text:      tx.Text,
		Category:  tx.Category,
		Amount:    tx.Amount,
		Date:      tx.Date,
		Type:      tx.Type,
		CreatedAt: tx.CreatedAt,
		Version:   1,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.transactions.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	created := doc.model()
	return &created, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *models.Transaction, expectedVersion int64) (*models.Transaction, error) {
	oid, err := objectID(tx.ID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid, "userId": tx.OwnerID}
	if expectedVersion != 0 {
		filter["version"] = expectedVersion
	}
	set := bson.M{
		"text":   tx.Text,
		"amount": tx.Amount,
		"type":   tx.Type,
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	unset := bson.M{}
	for field, value := range map[string]string{"category": tx.Category, "date": tx.Date} {
		if value == "" {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc transactionDocument
	err = s.transactions.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		updated := doc.model()
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	if _, getErr := s.GetTransaction(ctx, tx.ID); getErr != nil {
		return nil, getErr
	}
	if expectedVersion != 0 {
		return nil, db.ErrVersionMismatch
	}
	return nil, db.ErrNotFound
}

func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.transactions.DeleteOne(ctx, bson.M{"_id": oid, "userId": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Name:         user.Name,
		Email:        strings.ToLower(user.Email),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, db.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	created := doc.model()
	return &created, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	oid, err := objectID(user.ID)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"name":     user.Name,
		"email":    strings.ToLower(user.Email),
		"password": user.PasswordHash,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, db.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, db.ErrDuplicate
	case err != nil:
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	updated := doc.model()
	return &updated, nil
}

// DeleteUser removes the user's transactions first so a failure never
// leaves records without an account to reach them.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if _, err := s.transactions.DeleteMany(ctx, bson.M{"userId": id}); err != nil {
		return fmt.Errorf("failed to delete transactions for user %s: %w", id, err)
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user := doc.model()
	return &user, nil
}
