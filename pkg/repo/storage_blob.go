package repo

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// drivers selectable by bucket url
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

type (
	// BlobStorage keeps snapshots in a gocloud bucket (gs://, s3://, azblob://, mem://)
	BlobStorage struct {
		bucket      *blob.Bucket
		contentType string
	}
	BlobStorageOption func(*BlobStorage)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewBlobStorage opens the bucket behind bucketURL
func NewBlobStorage(ctx context.Context, bucketURL string, opts ...BlobStorageOption) (*BlobStorage, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", bucketURL)
	}
	return NewBlobStorageFromBucket(bucket, opts...), nil
}

// NewBlobStorageFromBucket wraps an opened bucket, the storage owns it from now on
func NewBlobStorageFromBucket(bucket *blob.Bucket, opts ...BlobStorageOption) *BlobStorage {
	inst := &BlobStorage{
		bucket:      bucket,
		contentType: "application/octet-stream",
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// BlobStorageWithPrefix stores every key below prefix
func BlobStorageWithPrefix(v string) BlobStorageOption {
	return func(o *BlobStorage) {
		if v = strings.Trim(v, "/"); v != "" {
			o.bucket = blob.PrefixedBucket(o.bucket, v+"/")
		}
	}
}

func BlobStorageWithContentType(v string) BlobStorageOption {
	return func(o *BlobStorage) {
		o.contentType = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (b *BlobStorage) Write(ctx context.Context, key string, data []byte) error {
	return b.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: b.contentType})
}

func (b *BlobStorage) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, fmt.Errorf("%s: %w", key, os.ErrNotExist)
	}
	return data, err
}

func (b *BlobStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "failed to list snapshots")
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
	slices.Sort(keys)
	slices.Reverse(keys)
	return keys, nil
}

func (b *BlobStorage) Delete(ctx context.Context, key string) error {
	if err := b.bucket.Delete(ctx, key); gcerrors.Code(err) != gcerrors.NotFound {
		return err
	}
	return nil
}

func (b *BlobStorage) Close() error {
	return b.bucket.Close()
}
