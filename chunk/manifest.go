package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileMeta describes one written chunk file within a manifest.
type FileMeta struct {
	Index     int    `json:"index"`
	FileName  string `json:"file_name"`
	SizeBytes int    `json:"size_bytes"`
	SHA256    string `json:"sha256"`
}

// Manifest records a chunked text on disk: every chunk file plus the hash of
// the rejoined source, so a consumer can verify the set without the original.
type Manifest struct {
	SourceSHA256 string     `json:"source_sha256"`
	MaxSize      int        `json:"max_size"`
	TotalChunks  int        `json:"total_chunks"`
	Files        []FileMeta `json:"files"`
}

// Write stores chunks in dir as zero-padded sequential text files plus a
// manifest.json. The directory is created if needed.
func Write(dir string, chunks []Chunk, maxSize int) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	m := &Manifest{
		MaxSize:     maxSize,
		TotalChunks: len(chunks),
		Files:       make([]FileMeta, 0, len(chunks)),
	}

	for _, c := range chunks {
		name := fmt.Sprintf("chunk_%05d.txt", c.Index)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(c.Text), 0o644); err != nil {
			return nil, fmt.Errorf("write chunk %d: %w", c.Index, err)
		}
		sum := sha256.Sum256([]byte(c.Text))
		m.Files = append(m.Files, FileMeta{
			Index:     c.Index,
			FileName:  name,
			SizeBytes: len(c.Text),
			SHA256:    hex.EncodeToString(sum[:]),
		})
	}

	joined := sha256.Sum256([]byte(Join(chunks)))
	m.SourceSHA256 = hex.EncodeToString(joined[:])

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}

// LoadManifest reads and parses manifest.json from a chunk directory.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("read manifest.json: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest.json: %w", err)
	}
	return &m, nil
}

// Read loads every chunk listed in the directory's manifest, verifying each
// file's hash, and returns them in index order.
func Read(dir string) ([]Chunk, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(m.Files))
	for _, fm := range m.Files {
		if strings.Contains(fm.FileName, "..") || filepath.IsAbs(fm.FileName) {
			return nil, fmt.Errorf("invalid chunk filename %q", fm.FileName)
		}
		data, err := os.ReadFile(filepath.Join(dir, fm.FileName))
		if err != nil {
			return nil, fmt.Errorf("read chunk %d: %w", fm.Index, err)
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != fm.SHA256 {
			return nil, fmt.Errorf("chunk %d (%s): hash mismatch", fm.Index, fm.FileName)
		}
		chunks = append(chunks, Chunk{Index: fm.Index, Text: string(data)})
	}
	return chunks, nil
}
