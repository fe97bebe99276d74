package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/casefile/dbopen"
	"github.com/hazyhaar/casefile/idgen"
)

// AttachmentSchema for the content-addressed attachment tables. One row
// per unique file (by SHA-256), one row per event reference.
const AttachmentSchema = `
CREATE TABLE IF NOT EXISTS attachment_files (
	hash TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	size INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS attachment_refs (
	id TEXT PRIMARY KEY,
	hash TEXT NOT NULL REFERENCES attachment_files(hash),
	event_id TEXT NOT NULL,
	original_path TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attachment_refs_event ON attachment_refs(event_id);
CREATE INDEX IF NOT EXISTS idx_attachment_refs_hash ON attachment_refs(hash);
`

// Attachments is a content-addressed file store. Bytes are hashed with
// SHA-256 and written once under the hash; every further Add of the same
// content only records a reference row.
type Attachments struct {
	db    *sql.DB
	dir   string
	newID idgen.Generator
}

// NewAttachments wraps an open database and a destination directory, which
// is created on first use.
func NewAttachments(db *sql.DB, dir string) *Attachments {
	return &Attachments{db: db, dir: dir, newID: idgen.Prefixed("att_", idgen.Default)}
}

// Init creates the attachment tables if they don't exist.
func (s *Attachments) Init() error {
	_, err := s.db.Exec(AttachmentSchema)
	return err
}

// Dir returns the destination directory.
func (s *Attachments) Dir() string { return s.dir }

// StoredAttachment describes the outcome of an Add.
type StoredAttachment struct {
	// RefID identifies this reference, usable as a link ID.
	RefID string
	// Hash is the hex SHA-256 of the content.
	Hash string
	// Path is where the deduplicated file lives.
	Path string
	// Duplicate reports whether the content was already stored.
	Duplicate bool
}

// Add stores content under its hash and records a reference from eventID.
// The original path is kept on the reference for provenance; the stored
// filename is "<hash><ext>". The hash lookup and both inserts run in one
// transaction so a reference can never point at a missing file row.
func (s *Attachments) Add(ctx context.Context, eventID, originalPath string, content []byte) (StoredAttachment, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	freshPath := filepath.Join(s.dir, hash+strings.ToLower(filepath.Ext(originalPath)))

	out := StoredAttachment{RefID: s.newID(), Hash: hash}
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		out.Path = freshPath
		out.Duplicate = false

		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT path FROM attachment_files WHERE hash = ?`, hash).Scan(&existing)
		switch {
		case err == nil:
			out.Path = existing
			out.Duplicate = true
		case errors.Is(err, sql.ErrNoRows):
			if err := os.MkdirAll(s.dir, 0o755); err != nil {
				return fmt.Errorf("store: attachment dir: %w", err)
			}
			if err := os.WriteFile(out.Path, content, 0o644); err != nil {
				return fmt.Errorf("store: write attachment: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO attachment_files (hash, path, size, created_at) VALUES (?, ?, ?, ?)`,
				hash, out.Path, len(content), time.Now().UnixMilli()); err != nil {
				return fmt.Errorf("store: record attachment file: %w", err)
			}
		default:
			return fmt.Errorf("store: lookup attachment %s: %w", hash, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attachment_refs (id, hash, event_id, original_path, created_at) VALUES (?, ?, ?, ?, ?)`,
			out.RefID, hash, eventID, originalPath, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("store: record attachment ref: %w", err)
		}
		return nil
	})
	return out, err
}

// Refs returns the stored paths referenced by an event.
func (s *Attachments) Refs(ctx context.Context, eventID string) ([]StoredAttachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.hash, f.path
		FROM attachment_refs r JOIN attachment_files f ON f.hash = r.hash
		WHERE r.event_id = ? ORDER BY r.created_at, r.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("store: attachment refs: %w", err)
	}
	defer rows.Close()

	var out []StoredAttachment
	for rows.Next() {
		var a StoredAttachment
		if err := rows.Scan(&a.RefID, &a.Hash, &a.Path); err != nil {
			return nil, fmt.Errorf("store: scan ref: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AttachmentStats aggregates the attachment store.
type AttachmentStats struct {
	UniqueFiles int     `json:"unique_files"`
	TotalRefs   int     `json:"total_refs"`
	TotalBytes  int64   `json:"total_bytes"`
	DedupRatio  float64 `json:"dedup_ratio"` // refs per unique file; 1 means no dedup won
}

// Stats reports unique files, total references, stored bytes, and the
// dedup ratio.
func (s *Attachments) Stats(ctx context.Context) (AttachmentStats, error) {
	var stats AttachmentStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM attachment_files),
			(SELECT COUNT(*) FROM attachment_refs),
			(SELECT COALESCE(SUM(size), 0) FROM attachment_files)`).
		Scan(&stats.UniqueFiles, &stats.TotalRefs, &stats.TotalBytes)
	if err != nil {
		return stats, fmt.Errorf("store: attachment stats: %w", err)
	}
	if stats.UniqueFiles > 0 {
		stats.DedupRatio = float64(stats.TotalRefs) / float64(stats.UniqueFiles)
	}
	return stats, nil
}
