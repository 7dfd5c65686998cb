package managers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/questdeck/questdeck/internal/domain"
	"github.com/questdeck/questdeck/internal/persistence"

	"github.com/rs/zerolog/log"
)

const blobCollection = "blobs"

type blobManager struct {
	documents persistence.DocumentStore
	bytes     domain.ByteStore
}

type BlobManagerDependencies struct {
	DocumentStore persistence.DocumentStore
	ByteStore     domain.ByteStore
}

func NewBlobManager(deps BlobManagerDependencies) domain.BlobManager {
	return &blobManager{
		documents: deps.DocumentStore,
		bytes:     deps.ByteStore,
	}
}

func (m *blobManager) Upload(ctx context.Context, id string, r io.Reader) error {
	if err := m.bytes.Write(ctx, id, r); err != nil {
		return fmt.Errorf("failed to store blob bytes: %w", err)
	}

	var ref domain.BlobRef
	err := m.documents.FindByID(ctx, blobCollection, id, &ref)
	if err == nil {
		// Re-uploading under an existing id replaces the bytes; the
		// owner count is adjusted explicitly by callers, never here.
		return nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("failed to look up blob ref: %w", err)
	}

	if err := m.documents.Create(ctx, blobCollection, domain.BlobRef{ID: id, RefCount: 1}); err != nil {
		return fmt.Errorf("failed to create blob ref: %w", err)
	}

	return nil
}

func (m *blobManager) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	rc, err := m.bytes.Read(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBlobNotFound) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob bytes: %w", err)
	}

	return rc, nil
}

func (m *blobManager) Stat(ctx context.Context, id string) (domain.BlobStat, error) {
	stat := domain.BlobStat{ID: id}

	var ref domain.BlobRef
	err := m.documents.FindByID(ctx, blobCollection, id, &ref)
	if err == nil {
		stat.RefCount = ref.RefCount
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return domain.BlobStat{}, fmt.Errorf("failed to look up blob ref: %w", err)
	}

	exists, err := m.bytes.Exists(ctx, id)
	if err != nil {
		return domain.BlobStat{}, fmt.Errorf("failed to check blob bytes: %w", err)
	}
	stat.Exists = exists

	return stat, nil
}

func (m *blobManager) AdjustRefCount(ctx context.Context, id string, delta int) error {
	if delta == 0 {
		return nil
	}

	var ref domain.BlobRef
	err := m.documents.FindByID(ctx, blobCollection, id, &ref)
	if errors.Is(err, persistence.ErrNotFound) {
		// Already released by the last owner; safe to retry.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up blob ref: %w", err)
	}

	// A release that would bring the count below one removes the blob
	// entirely. Bytes go first so a failure leaves the ref in place and
	// the release retryable.
	if delta < 0 && (ref.RefCount < 2 || ref.RefCount+delta < 1) {
		if err := m.bytes.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete blob bytes: %w", err)
		}

		err := m.documents.DeleteByID(ctx, blobCollection, id)
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("failed to delete blob ref: %w", err)
		}

		log.Debug().Str("blob_id", id).Msg("Released last blob owner, blob deleted")
		return nil
	}

	err = m.documents.UpdateByID(ctx, blobCollection, id,
		persistence.Inc(persistence.FieldPath{"refcount"}, delta))
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("failed to adjust blob refcount: %w", err)
	}

	return nil
}
