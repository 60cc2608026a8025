package models

import "time"

// CatalogEntry is the persisted form of a catalog record.
// The code doubles as the document ID.
type CatalogEntry struct {
	Code      string    `bson:"_id"`
	Title     string    `bson:"title"`
	URL       string    `bson:"url"`
	Views     int64     `bson:"views"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
