package repo

import (
	"bytes"
	"context"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Storage persists content export snapshots by key. Implementations are used
// concurrently by the history and must be safe for it.
type Storage interface {
	// Write creates or replaces the snapshot stored under key
	Write(ctx context.Context, key string, data []byte) error
	// Read returns os.ErrNotExist for unknown keys
	Read(ctx context.Context, key string) ([]byte, error)
	// List keys starting with prefix, newest first
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete succeeds for unknown keys
	Delete(ctx context.Context, key string) error
	Close() error
}

// zstdMagic frame header, snapshots without it are plain json
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	snapshotEncoder   *zstd.Encoder
	snapshotDecoder   *zstd.Decoder
	snapshotCodecOnce sync.Once
	errSnapshotCodec  error
)

func snapshotCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	snapshotCodecOnce.Do(func() {
		if snapshotEncoder, errSnapshotCodec = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); errSnapshotCodec != nil {
			return
		}
		snapshotDecoder, errSnapshotCodec = zstd.NewReader(nil)
	})
	return snapshotEncoder, snapshotDecoder, errSnapshotCodec
}

// compressSnapshot exports are large and repetitive, they are kept zstd compressed
func compressSnapshot(data []byte) ([]byte, error) {
	enc, _, err := snapshotCodec()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create snapshot encoder")
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

// decompressSnapshot passes plain snapshots through
func decompressSnapshot(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	_, dec, err := snapshotCodec()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create snapshot decoder")
	}
	plain, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress snapshot")
	}
	return plain, nil
}
