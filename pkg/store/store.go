// Package store persists compiled decision graphs.
//
// This package defines the Store interface for graph persistence, with
// implementations for different backends:
//   - memory: In-memory storage for development/testing
//   - mongo: MongoDB-backed storage for production API deployments
//
// # Architecture
//
// Each compiled graph is stored as a [Record] keyed by a generated ID,
// together with the query it was compiled from and an optional session
// scope. The Store interface supports:
//   - Get/Put/Delete operations
//   - Listing recent records for a session
//
// # Usage
//
// Create a store:
//
//	// Development
//	st := store.NewMemoryStore()
//
//	// Production
//	st, err := store.NewMongoStore(ctx, store.MongoConfig{
//	    URI:      "mongodb://localhost:27017",
//	    Database: "traceviz",
//	})
//
// Persist a compiled graph:
//
//	rec := store.NewRecord(query, sessionID, g)
//	if err := st.Put(ctx, rec); err != nil {
//	    return err
//	}
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/greenroom-ai/traceviz/pkg/graph"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
)

// Record is one persisted compilation result.
type Record struct {
	ID        string      `json:"id" bson:"_id"`
	Query     string      `json:"query" bson:"query"`
	SessionID string      `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Graph     graph.Graph `json:"graph" bson:"graph"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}

// Store is the interface for graph persistence backends.
type Store interface {
	// Get retrieves a record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, id string) (*Record, error)

	// Put stores a record, overwriting any existing record with the same ID.
	Put(ctx context.Context, rec *Record) error

	// List returns up to limit records for a session, newest first.
	// An empty sessionID lists across all sessions.
	List(ctx context.Context, sessionID string, limit int) ([]*Record, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// NewRecord creates a record for a compiled graph with a generated ID.
func NewRecord(query, sessionID string, g graph.Graph) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Query:     query,
		SessionID: sessionID,
		Graph:     g,
		CreatedAt: time.Now().UTC(),
	}
}
