// Package local implements the embedded index backend: a single SQLite
// file holds the records (with backend-assigned auto-increment ids) and
// an in-process annoy graph over the raw vectors answers
// nearest-neighbor queries with the angular (cosine) metric. The graph
// is rebuilt from the table when stale, so the file is always the
// source of truth.
package local

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
	_ "modernc.org/sqlite"

	"facematch/internal/domain"
)

const numTrees = 10

type Config struct {
	Path       string
	Collection string
	Dimension  int
}

type identity struct {
	name         string
	registration string
}

// Backend is the embedded index adapter. All operations are serialized
// internally, which keeps the annoy rebuild safe against concurrent
// inserts.
type Backend struct {
	mu  sync.Mutex
	cfg Config
	db  *sql.DB

	idx   interfaces.AnnoyIndex[float32, uint32]
	ids   map[uint32]identity
	stale bool
}

func New(cfg Config) (*Backend, error) {
	if cfg.Dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	if cfg.Path == "" {
		return nil, errors.New("local index path not configured")
	}
	return &Backend{cfg: cfg, stale: true}, nil
}

// EnsureCollection opens (creating as needed) the database file and the
// record table. Safe to call repeatedly.
func (b *Backend) EnsureCollection() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		if dir := filepath.Dir(b.cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create index directory: %w", err)
			}
		}
		db, err := sql.Open("sqlite", b.cfg.Path)
		if err != nil {
			return fmt.Errorf("open local index %s: %w", b.cfg.Path, err)
		}
		b.db = db
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		registration_number TEXT NOT NULL,
		embedding BLOB NOT NULL
	)`, b.cfg.Collection)
	if _, err := b.db.Exec(ddl); err != nil {
		return fmt.Errorf("create collection %s: %w", b.cfg.Collection, err)
	}
	b.stale = true
	return nil
}

func (b *Backend) Insert(rec domain.FaceRecord) error {
	if len(rec.Vector) != b.cfg.Dimension {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", b.cfg.Dimension, len(rec.Vector))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return errors.New("collection not initialized")
	}
	q := fmt.Sprintf(`INSERT INTO %q (name, registration_number, embedding) VALUES (?, ?, ?)`, b.cfg.Collection)
	if _, err := b.db.Exec(q, rec.Name, rec.RegistrationNumber, encodeVector(rec.Vector)); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	b.stale = true
	return nil
}

func (b *Backend) Search(vector []float32, limit int) ([]domain.RawHit, error) {
	if len(vector) != b.cfg.Dimension {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", b.cfg.Dimension, len(vector))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil, errors.New("collection not initialized")
	}
	if b.stale {
		if err := b.rebuild(); err != nil {
			return nil, err
		}
	}
	if b.idx == nil || len(b.ids) == 0 {
		return nil, nil
	}
	if limit > len(b.ids) {
		limit = len(b.ids)
	}

	searchCtx := b.idx.CreateContext()
	ids, distances := b.idx.GetNnsByVector(vector, limit, -1, searchCtx)

	hits := make([]domain.RawHit, 0, len(ids))
	for i, id := range ids {
		ent, ok := b.ids[id]
		if !ok {
			continue
		}
		// Angular distance is in [0,2]; native score is similarity in
		// [0,1] with 1.0 meaning identical.
		var score float64
		if i < len(distances) {
			score = 1.0 - float64(distances[i])/2.0
		}
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		hits = append(hits, domain.RawHit{
			Source:             domain.SourceLocal,
			Name:               ent.name,
			RegistrationNumber: ent.registration,
			Score:              score,
		})
	}
	return hits, nil
}

// rebuild reloads every stored vector into a fresh annoy graph. Called
// with the mutex held.
func (b *Backend) rebuild() error {
	q := fmt.Sprintf(`SELECT id, name, registration_number, embedding FROM %q ORDER BY id`, b.cfg.Collection)
	rows, err := b.db.Query(q)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	idx := builder.Index[float32, uint32]().
		AngularDistance(b.cfg.Dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()
	ids := make(map[uint32]identity)

	for rows.Next() {
		var id int64
		var ent identity
		var blob []byte
		if err := rows.Scan(&id, &ent.name, &ent.registration, &blob); err != nil {
			return fmt.Errorf("scan record: %w", err)
		}
		vec, err := decodeVector(blob, b.cfg.Dimension)
		if err != nil {
			return fmt.Errorf("record %d: %w", id, err)
		}
		idx.AddItem(uint32(id), vec)
		ids[uint32(id)] = ent
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(ids) > 0 {
		idx.Build(numTrees, -1)
	}
	b.idx = idx
	b.ids = ids
	b.stale = false
	return nil
}

func (b *Backend) Count() (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return 0, errors.New("collection not initialized")
	}
	var n int64
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %q`, b.cfg.Collection)
	if err := b.db.QueryRow(q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (b *Backend) Exists() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return false, nil
	}
	var name string
	err := b.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, b.cfg.Collection).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Drop deletes the collection table. The graph is discarded and the
// next EnsureCollection starts empty.
func (b *Backend) Drop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	q := fmt.Sprintf(`DROP TABLE IF EXISTS %q`, b.cfg.Collection)
	if _, err := b.db.Exec(q); err != nil {
		return fmt.Errorf("drop collection %s: %w", b.cfg.Collection, err)
	}
	b.idx = nil
	b.ids = nil
	b.stale = true
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// encodeVector packs float32s little-endian for BLOB storage.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte, dim int) ([]float32, error) {
	if len(buf) != 4*dim {
		return nil, fmt.Errorf("embedding blob has %d bytes, want %d", len(buf), 4*dim)
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}
