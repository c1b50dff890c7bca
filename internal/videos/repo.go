package videos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// collectionKey is the fixed key the whole video collection is stored under.
// There is no per-record addressing at the storage layer: every mutation
// reads the full collection, mutates it in memory, and rewrites the document.
const collectionKey = "videos"

// Document is one serialized collection in the documents table.
type Document struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Body      []byte    `gorm:"column:body;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Document) TableName() string {
	return "documents"
}

// Repository persists the video collection as a single JSON document.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the documents table when absent.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Document{})
}

// LoadAll returns the full collection, newest first. A missing document is
// an empty collection, not an error.
func (r *Repository) LoadAll(ctx context.Context) ([]Record, error) {
	var doc Document
	err := r.db.WithContext(ctx).First(&doc, "key = ?", collectionKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading video collection: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(doc.Body, &records); err != nil {
		return nil, fmt.Errorf("decoding video collection: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	for i := range records {
		records[i].normalize()
	}
	return records, nil
}

// SaveAll rewrites the collection document in full.
func (r *Repository) SaveAll(ctx context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	for i := range records {
		records[i].normalize()
	}

	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding video collection: %w", err)
	}

	doc := Document{
		Key:       collectionKey,
		Body:      body,
		UpdatedAt: time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).
		Create(&doc).Error
	if err != nil {
		return fmt.Errorf("saving video collection: %w", err)
	}
	return nil
}
