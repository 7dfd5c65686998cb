package domain

import (
	"context"
	"io"
)

// BlobRef is the refcount record for a stored binary asset. The record
// exists only while at least one entity owns the blob, so a persisted
// RefCount is always >= 1.
type BlobRef struct {
	ID       string `bson:"_id" json:"_id"`
	RefCount int    `bson:"refcount" json:"refcount"`
}

// ByteStore is the raw-bytes collaborator backing the blob manager.
type ByteStore interface {
	Write(ctx context.Context, id string, r io.Reader) error
	Read(ctx context.Context, id string) (io.ReadCloser, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// BlobManager stores shared binary assets with manual reference
// counting. Entities carry a blob id but never track how many owners
// exist; ownership counting is centralized here so a shared image is
// not deleted while any owner still points at it.
type BlobManager interface {
	// Upload stores bytes under id. Creating a blob implies one owner;
	// additional owners are registered explicitly via AdjustRefCount.
	// Uploading over an existing id replaces the bytes without touching
	// the count.
	Upload(ctx context.Context, id string, r io.Reader) error

	// Download returns a reader over the stored bytes, or
	// ErrBlobNotFound if the id is unknown.
	Download(ctx context.Context, id string) (io.ReadCloser, error)

	// AdjustRefCount changes the owner count by delta. A release that
	// would drop the count below one deletes both the bytes and the
	// record. Adjusting an unknown id is a no-op, so releases are safe
	// to retry.
	AdjustRefCount(ctx context.Context, id string, delta int) error

	// Stat reports whether bytes exist for id and the current owner
	// count. A fully released blob reports a count of zero.
	Stat(ctx context.Context, id string) (BlobStat, error)
}

// BlobStat describes a blob's storage and ownership state.
type BlobStat struct {
	ID       string `json:"id"`
	RefCount int    `json:"refcount"`
	Exists   bool   `json:"exists"`
}
