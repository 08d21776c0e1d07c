package persistence

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/civ-world/internal/engine"
)

// ArchiveVersion is the current archive format version.
const ArchiveVersion = 1

// ArchiveHeader is the first line of an archive, readable without decoding
// the body.
type ArchiveHeader struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Seed    int64  `json:"seed"`
	Turn    uint64 `json:"turn"`
}

// WriteArchive writes a snapshot as a zstd stream holding one JSON header
// line followed by the JSON-encoded snapshot. Parent directories are created.
func WriteArchive(path string, snap *engine.Snapshot) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(ArchiveHeader{
		Version: ArchiveVersion,
		RunID:   snap.RunID,
		Seed:    snap.Seed,
		Turn:    snap.Turn,
	})
	if err != nil {
		enc.Close()
		return fmt.Errorf("encode header: %w", err)
	}
	hb = append(hb, '\n')
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(snap); err != nil {
		enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadArchiveHeader reads only the header line of an archive.
func ReadArchiveHeader(path string) (ArchiveHeader, error) {
	var h ArchiveHeader
	err := readArchive(path, func(br *bufio.Reader) error {
		return decodeHeader(br, &h)
	})
	return h, err
}

// ReadArchive reads a snapshot written by WriteArchive.
func ReadArchive(path string) (ArchiveHeader, *engine.Snapshot, error) {
	var (
		h    ArchiveHeader
		snap engine.Snapshot
	)
	err := readArchive(path, func(br *bufio.Reader) error {
		if err := decodeHeader(br, &h); err != nil {
			return err
		}
		if err := json.NewDecoder(br).Decode(&snap); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return h, nil, err
	}
	return h, &snap, nil
}

func readArchive(path string, fn func(*bufio.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	return fn(bufio.NewReaderSize(dec, 256*1024))
}

func decodeHeader(br *bufio.Reader, h *ArchiveHeader) error {
	line, err := br.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, h); err != nil {
		return fmt.Errorf("decode header: %w", err)
	}
	if h.Version != ArchiveVersion {
		return fmt.Errorf("unsupported archive version %d", h.Version)
	}
	return nil
}
