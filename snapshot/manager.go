package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/quadgo"
	"github.com/hupe1980/quadgo/blobstore"
	"github.com/hupe1980/quadgo/internal/resource"
)

const (
	// PointerName is the blob holding the name of the newest snapshot.
	PointerName = "LATEST"

	snapshotPrefix = "snapshot-"
	snapshotSuffix = ".qdg"

	// ioChunkSize is the granularity of IO throttling during uploads.
	ioChunkSize = 256 * 1024
)

// ErrNoSnapshot is returned by Load when the store holds no snapshot yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// ManagerOptions contains configuration options for Manager.
type ManagerOptions struct {
	// Compression applied to written snapshots.
	Compression Compression

	// MaxBackgroundWorkers limits concurrent Save/Prune operations.
	// If 0, defaults to 1.
	MaxBackgroundWorkers int64

	// IOLimitBytesPerSec throttles snapshot uploads. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Manager persists versioned snapshots to a blob store.
//
// Each Save writes an immutable snapshot-NNNNNNNN.qdg blob and then
// advances the LATEST pointer, so a reader either sees the previous
// snapshot or the new one, never a partial write. With a plain S3 store
// concurrent writers can race on the pointer; wrap the store in
// s3.DDBPointerStore when more than one process saves to the same prefix.
type Manager struct {
	store blobstore.Store
	ic    ItemCodec
	ctrl  *resource.Controller
	opts  ManagerOptions
}

// NewManager creates a snapshot manager over the given store.
func NewManager(store blobstore.Store, ic ItemCodec, optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{
		Compression: DefaultOptions.Compression,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Manager{
		store: store,
		ic:    ic,
		ctrl: resource.NewController(resource.Config{
			MaxBackgroundWorkers: opts.MaxBackgroundWorkers,
			IOLimitBytesPerSec:   opts.IOLimitBytesPerSec,
		}),
		opts: opts,
	}
}

// Save writes a new snapshot of the index and advances the LATEST pointer.
// It returns the name of the written snapshot blob.
func (m *Manager) Save(ctx context.Context, idx *quadgo.Index) (string, error) {
	if err := m.ctrl.AcquireBackground(ctx); err != nil {
		return "", err
	}
	defer m.ctrl.ReleaseBackground()

	version, err := m.nextVersion(ctx)
	if err != nil {
		return "", err
	}
	name := snapshotName(version)

	var buf bytes.Buffer
	if err := Write(ctx, &buf, idx, m.ic, WithCompression(m.opts.Compression)); err != nil {
		return "", err
	}

	w, err := m.store.Create(ctx, name)
	if err != nil {
		return "", err
	}

	if err := m.upload(ctx, w, buf.Bytes()); err != nil {
		// Closing would commit the partial blob; drop it instead.
		_ = w.Abort()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	if err := m.store.Put(ctx, PointerName, []byte(name)); err != nil {
		return "", err
	}

	return name, nil
}

// Load restores the index the LATEST pointer refers to.
func (m *Manager) Load(ctx context.Context, optFns ...func(o *ReadOptions)) (*quadgo.Index, error) {
	data, err := m.readBlob(ctx, PointerName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return m.LoadSnapshot(ctx, strings.TrimSpace(string(data)), optFns...)
}

// LoadSnapshot restores a specific snapshot by blob name.
func (m *Manager) LoadSnapshot(ctx context.Context, name string, optFns ...func(o *ReadOptions)) (*quadgo.Index, error) {
	data, err := m.readBlob(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return Read(ctx, bytes.NewReader(data), m.ic, optFns...)
}

// List returns the names of all snapshots, oldest first.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	names, err := m.store.List(ctx, snapshotPrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Prune deletes all but the newest keep snapshots. The snapshot the LATEST
// pointer refers to is never deleted.
func (m *Manager) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	if err := m.ctrl.AcquireBackground(ctx); err != nil {
		return 0, err
	}
	defer m.ctrl.ReleaseBackground()

	names, err := m.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(names) <= keep {
		return 0, nil
	}

	var current string
	if data, err := m.readBlob(ctx, PointerName); err == nil {
		current = strings.TrimSpace(string(data))
	}

	deleted := 0
	for _, name := range names[:len(names)-keep] {
		if name == current {
			continue
		}
		if err := m.store.Delete(ctx, name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// upload writes data in chunks, honoring the IO rate limit.
func (m *Manager) upload(ctx context.Context, w blobstore.WritableBlob, data []byte) error {
	chunk := ioChunkSize
	if limit := int(m.opts.IOLimitBytesPerSec); limit > 0 && limit < chunk {
		chunk = limit
	}
	for len(data) > 0 {
		n := len(data)
		if n > chunk {
			n = chunk
		}
		if err := m.ctrl.AcquireIO(ctx, n); err != nil {
			return err
		}
		if _, err := w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (m *Manager) readBlob(ctx context.Context, name string) ([]byte, error) {
	b, err := m.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()
	return blobstore.ReadAll(ctx, b)
}

// nextVersion derives the next snapshot version from the existing blobs.
func (m *Manager) nextVersion(ctx context.Context) (uint64, error) {
	names, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	var highest uint64
	for _, name := range names {
		v, ok := parseSnapshotName(name)
		if ok && v > highest {
			highest = v
		}
	}
	return highest + 1, nil
}

func snapshotName(version uint64) string {
	return fmt.Sprintf("%s%08d%s", snapshotPrefix, version, snapshotSuffix)
}

func parseSnapshotName(name string) (uint64, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return 0, false
	}
	var v uint64
	if _, err := fmt.Sscanf(name, snapshotPrefix+"%d"+snapshotSuffix, &v); err != nil {
		return 0, false
	}
	return v, true
}
