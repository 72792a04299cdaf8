package storage

import (
	"context"
	"io"
)

// AvatarStore persists uploaded avatar images. Records reference images by
// filename only; the store decides where the bytes actually live.
type AvatarStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64) error
	Remove(ctx context.Context, name string) error
}
