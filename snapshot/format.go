package snapshot

import "errors"

const (
	// MagicNumber identifies snapshot files (ASCII: "QDG0").
	MagicNumber = 0x51444730
	// Version is the current snapshot format version (v1.0.0).
	Version = 0x00010000
)

// Compression identifies the codec applied to the record section.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrUnknownCompression = errors.New("unknown compression")
	ErrCodecMismatch      = errors.New("item codec mismatch")
	ErrTruncated          = errors.New("truncated snapshot")
	ErrRecordTooLarge     = errors.New("record exceeds format limits")
)
