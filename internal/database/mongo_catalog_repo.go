package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moviecode-bot/internal/catalog"
	"moviecode-bot/internal/database/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const catalogCollectionName = "catalog"

// MongoCatalogRepository implements catalog.Store for MongoDB.
type MongoCatalogRepository struct {
	collection *mongo.Collection
}

// NewMongoCatalogRepository creates a new MongoDB catalog repository.
func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	return &MongoCatalogRepository{
		collection: db.Collection(catalogCollectionName),
	}
}

// Put upserts a catalog entry. An existing entry keeps its view count:
// title and url are overwritten, views is only initialized on insert.
func (r *MongoCatalogRepository) Put(ctx context.Context, code, title, rawURL string) error {
	if err := catalog.ValidateTitle(title); err != nil {
		return err
	}
	if err := catalog.ValidateURL(rawURL); err != nil {
		return err
	}

	now := time.Now()
	filter := bson.M{"_id": code}
	update := bson.M{
		"$set": bson.M{
			"title":      title,
			"url":        rawURL,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"views":      int64(0),
			"created_at": now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert catalog entry %q: %w", code, err)
	}
	return nil
}

// Get returns the entry for code, or catalog.ErrNotFound.
func (r *MongoCatalogRepository) Get(ctx context.Context, code string) (*catalog.Entry, error) {
	var doc models.CatalogEntry
	err := r.collection.FindOne(ctx, bson.M{"_id": code}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find catalog entry %q: %w", code, err)
	}
	return entryFromDoc(doc), nil
}

// IncrementViews atomically bumps the view counter and returns the updated
// entry. A missing code is a silent no-op: concurrent deletion must not
// surface as a fault here.
func (r *MongoCatalogRepository) IncrementViews(ctx context.Context, code string) (*catalog.Entry, error) {
	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)

	var doc models.CatalogEntry
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": code},
		bson.M{"$inc": bson.M{"views": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to increment views for %q: %w", code, err)
	}
	return entryFromDoc(doc), nil
}

// List returns up to limit entries ordered by code ascending.
func (r *MongoCatalogRepository) List(ctx context.Context, limit int) ([]catalog.Entry, error) {
	sort := bson.D{{Key: "_id", Value: 1}}
	return r.find(ctx, sort, limit)
}

// Top returns up to limit entries ordered by views descending, ties broken
// by code ascending so the ordering is deterministic.
func (r *MongoCatalogRepository) Top(ctx context.Context, limit int) ([]catalog.Entry, error) {
	sort := bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}
	return r.find(ctx, sort, limit)
}

func (r *MongoCatalogRepository) find(ctx context.Context, sort bson.D, limit int) ([]catalog.Entry, error) {
	findOptions := options.Find()
	findOptions.SetSort(sort)
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find catalog entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.CatalogEntry
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode catalog entries: %w", err)
	}

	entries := make([]catalog.Entry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, *entryFromDoc(doc))
	}
	return entries, nil
}

func entryFromDoc(doc models.CatalogEntry) *catalog.Entry {
	return &catalog.Entry{
		Code:  doc.Code,
		Title: doc.Title,
		URL:   doc.URL,
		Views: doc.Views,
	}
}
