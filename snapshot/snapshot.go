package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/quadgo"
	"github.com/hupe1980/quadgo/codec"
	"github.com/hupe1980/quadgo/geo"
)

// ItemCodec converts application items to and from bytes.
//
// Name is recorded in the snapshot header; Read refuses a snapshot whose
// recorded name differs from the codec it was given.
type ItemCodec interface {
	Name() string
	Marshal(item quadgo.Item) ([]byte, error)
	Unmarshal(data []byte) (quadgo.Item, error)
}

// JSONCodec is an ItemCodec for pointer types whose pointee round-trips
// through JSON.
type JSONCodec[T any, PT interface {
	*T
	quadgo.Item
}] struct {
	c codec.Codec
}

// NewJSONCodec creates a JSON item codec for *T.
func NewJSONCodec[T any, PT interface {
	*T
	quadgo.Item
}]() *JSONCodec[T, PT] {
	return &JSONCodec[T, PT]{c: codec.JSON{}}
}

func (jc *JSONCodec[T, PT]) Name() string { return jc.c.Name() }

func (jc *JSONCodec[T, PT]) Marshal(item quadgo.Item) ([]byte, error) {
	return jc.c.Marshal(item)
}

func (jc *JSONCodec[T, PT]) Unmarshal(data []byte) (quadgo.Item, error) {
	v := PT(new(T))
	if err := jc.c.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Options contains configuration options for writing snapshots.
type Options struct {
	// Compression applied to the record section.
	Compression Compression
}

// DefaultOptions holds the default snapshot options.
var DefaultOptions = Options{
	Compression: CompressionZstd,
}

// WithCompression sets the compression codec for the record section.
func WithCompression(c Compression) func(o *Options) {
	return func(o *Options) {
		o.Compression = c
	}
}

// ReadOptions contains configuration options for restoring snapshots.
type ReadOptions struct {
	// IndexOptions are applied to the restored index, on top of the
	// boundary, capacity and minimum node size recorded in the snapshot.
	IndexOptions []quadgo.Option
}

// WithIndexOptions passes index options (logger, metrics) to the restored
// index.
func WithIndexOptions(optFns ...quadgo.Option) func(o *ReadOptions) {
	return func(o *ReadOptions) {
		o.IndexOptions = append(o.IndexOptions, optFns...)
	}
}

// Write serializes the index to w.
//
// Layout: header, length-prefixed compressed record section, trailing CRC32
// over everything before it.
func Write(ctx context.Context, w io.Writer, idx *quadgo.Index, ic ItemCodec, optFns ...func(o *Options)) error {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	cw := NewChecksumWriter(w)

	bounds := idx.Bounds()
	if err := writeHeader(cw, header{
		compression: opts.Compression,
		codecName:   ic.Name(),
		bounds:      bounds,
		capacity:    uint32(idx.Capacity()),
		minSize:     idx.MinNodeSize(),
		count:       uint32(idx.Len()),
	}); err != nil {
		return err
	}

	body, err := encodeRecords(ctx, idx, ic, opts.Compression)
	if err != nil {
		return err
	}

	if err := binary.Write(cw, binary.LittleEndian, uint64(len(body))); err != nil {
		return err
	}
	if _, err := cw.Write(body); err != nil {
		return err
	}

	// Trailer is written raw so the checksum covers everything before it.
	return binary.Write(w, binary.LittleEndian, cw.Sum())
}

// Read restores an index from a snapshot produced by Write.
func Read(ctx context.Context, r io.Reader, ic ItemCodec, optFns ...func(o *ReadOptions)) (*quadgo.Index, error) {
	var opts ReadOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, ErrTruncated
	}

	cr := NewChecksumReader(bytes.NewReader(data[:len(data)-4]))
	expected := binary.LittleEndian.Uint32(data[len(data)-4:])

	hdr, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if hdr.codecName != ic.Name() {
		return nil, fmt.Errorf("%w: snapshot written with %q, reading with %q", ErrCodecMismatch, hdr.codecName, ic.Name())
	}

	var bodyLen uint64
	if err := binary.Read(cr, binary.LittleEndian, &bodyLen); err != nil {
		return nil, ErrTruncated
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(cr, body); err != nil {
		return nil, ErrTruncated
	}

	if err := cr.Verify(expected); err != nil {
		return nil, err
	}

	idxOpts := append([]quadgo.Option{
		quadgo.WithCapacity(int(hdr.capacity)),
		quadgo.WithMinNodeSize(hdr.minSize),
	}, opts.IndexOptions...)

	idx := quadgo.New(hdr.bounds, idxOpts...)

	if err := decodeRecords(ctx, idx, ic, hdr, body); err != nil {
		return nil, err
	}

	return idx, nil
}

type header struct {
	compression Compression
	codecName   string
	bounds      geo.Rect
	capacity    uint32
	minSize     float64
	count       uint32
}

func writeHeader(w io.Writer, hdr header) error {
	for _, v := range []any{
		uint32(MagicNumber),
		uint32(Version),
		uint8(hdr.compression),
	} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := writeString(w, hdr.codecName); err != nil {
		return err
	}
	for _, v := range []any{
		hdr.bounds.Min.X, hdr.bounds.Min.Y,
		hdr.bounds.Max.X, hdr.bounds.Max.Y,
		hdr.capacity, hdr.minSize, hdr.count,
	} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r io.Reader) (header, error) {
	var hdr header

	var magic, version uint32
	var compression uint8
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return hdr, ErrTruncated
	}
	if magic != MagicNumber {
		return hdr, ErrInvalidMagic
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return hdr, ErrTruncated
	}
	if version != Version {
		return hdr, fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, version)
	}
	if err := binary.Read(r, binary.LittleEndian, &compression); err != nil {
		return hdr, ErrTruncated
	}
	hdr.compression = Compression(compression)
	if hdr.compression > CompressionZstd {
		return hdr, fmt.Errorf("%w: %d", ErrUnknownCompression, compression)
	}

	name, err := readString(r)
	if err != nil {
		return hdr, err
	}
	hdr.codecName = name

	var minX, minY, maxX, maxY float64
	for _, p := range []any{&minX, &minY, &maxX, &maxY, &hdr.capacity, &hdr.minSize, &hdr.count} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return hdr, ErrTruncated
		}
	}
	hdr.bounds, err = geo.RectFromPoints(geo.Pt(minX, minY), geo.Pt(maxX, maxY))
	if err != nil {
		return hdr, err
	}

	return hdr, nil
}

// encodeRecords serializes all tracked items into a compressed byte slice.
func encodeRecords(ctx context.Context, idx *quadgo.Index, ic ItemCodec, compression Compression) ([]byte, error) {
	var buf bytes.Buffer

	var w io.Writer
	var finish func() error

	switch compression {
	case CompressionNone:
		w = &buf
		finish = func() error { return nil }
	case CompressionLZ4:
		lw := lz4.NewWriter(&buf)
		w = lw
		finish = lw.Close
	case CompressionZstd:
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		w = zw
		finish = zw.Close
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, compression)
	}

	for item := range idx.Items() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pos, _ := idx.Recorded(item)
		payload, err := ic.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("marshal item: %w", err)
		}

		if err := writeRecord(w, pos, idx.TagsOf(item), payload); err != nil {
			return nil, err
		}
	}

	if err := finish(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeRecords rebuilds the items of a snapshot into idx.
func decodeRecords(ctx context.Context, idx *quadgo.Index, ic ItemCodec, hdr header, body []byte) error {
	var r io.Reader

	switch hdr.compression {
	case CompressionNone:
		r = bytes.NewReader(body)
	case CompressionLZ4:
		r = lz4.NewReader(bytes.NewReader(body))
	case CompressionZstd:
		zr, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCompression, hdr.compression)
	}

	for i := uint32(0); i < hdr.count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pos, tags, payload, err := readRecord(r)
		if err != nil {
			return err
		}

		item, err := ic.Unmarshal(payload)
		if err != nil {
			return fmt.Errorf("unmarshal item: %w", err)
		}
		if item.Position() != pos {
			return fmt.Errorf("item position %v does not match recorded position %v", item.Position(), pos)
		}
		if !idx.AddTagged(item, tags...) {
			return fmt.Errorf("item at %v does not fit the recorded boundary", pos)
		}
	}

	return nil
}

func writeRecord(w io.Writer, pos geo.Point, tags []string, payload []byte) error {
	if len(tags) > math.MaxUint16 {
		return fmt.Errorf("%w: %d tags", ErrRecordTooLarge, len(tags))
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: payload of %d bytes", ErrRecordTooLarge, len(payload))
	}

	if err := binary.Write(w, binary.LittleEndian, pos.X); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, pos.Y); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(tags))); err != nil {
		return err
	}
	for _, tag := range tags {
		if err := writeString(w, tag); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readRecord(r io.Reader) (geo.Point, []string, []byte, error) {
	var pos geo.Point
	if err := binary.Read(r, binary.LittleEndian, &pos.X); err != nil {
		return pos, nil, nil, ErrTruncated
	}
	if err := binary.Read(r, binary.LittleEndian, &pos.Y); err != nil {
		return pos, nil, nil, ErrTruncated
	}
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) {
		return pos, nil, nil, fmt.Errorf("invalid position in record")
	}

	var tagCount uint16
	if err := binary.Read(r, binary.LittleEndian, &tagCount); err != nil {
		return pos, nil, nil, ErrTruncated
	}
	var tags []string
	for i := uint16(0); i < tagCount; i++ {
		tag, err := readString(r)
		if err != nil {
			return pos, nil, nil, err
		}
		tags = append(tags, tag)
	}

	var payloadLen uint32
	if err := binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
		return pos, nil, nil, ErrTruncated
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return pos, nil, nil, ErrTruncated
	}

	return pos, tags, payload, nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: string of %d bytes", ErrRecordTooLarge, len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", ErrTruncated
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", ErrTruncated
	}
	return string(b), nil
}
