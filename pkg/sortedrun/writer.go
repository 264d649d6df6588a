package sortedrun

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Jasv1025/sortedkv/pkg/common/log"
	"github.com/Jasv1025/sortedkv/pkg/config"
	"github.com/Jasv1025/sortedkv/pkg/sortedrun/block"
)

// blockMeta is the accumulator entry the writer builds while flushing
// blocks, before it is serialized into the file's metadata region.
type blockMeta struct {
	fileOffset uint64
	firstKey   []byte
}

// runWriter accumulates a sorted run's on-disk bytes into a hidden temp file
// beside the target path, tracking the running byte offset of each block as
// it is flushed — the catalog entries written into the metadata region need
// that offset, so the writer owns it rather than recomputing it from a
// generic byte count. The temp file is only renamed into place once the
// whole run, including its metadata region and footer, has synced to disk;
// a crash mid-write never leaves a half-written file at the final path.
type runWriter struct {
	path    string
	tmpPath string
	file    *os.File
	offset  uint64
}

// createRunWriter opens the temp file a sorted run will be written into.
func createRunWriter(path string) (*runWriter, error) {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.tmp", filepath.Base(path)))

	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary sorted run file: %w", err)
	}

	return &runWriter{path: path, tmpPath: tmpPath, file: file}, nil
}

// writeBlock appends one already-encoded block and returns its starting
// offset in the run file, before the write advances the running offset.
func (rw *runWriter) writeBlock(data []byte) (uint64, error) {
	n, err := rw.file.Write(data)
	if err != nil {
		return 0, fmt.Errorf("failed to write block at offset %d: %w", rw.offset, err)
	}
	if n != len(data) {
		return 0, fmt.Errorf("wrote incomplete block at offset %d: %d of %d bytes", rw.offset, n, len(data))
	}
	start := rw.offset
	rw.offset += uint64(n)
	return start, nil
}

// writeMetadataEntry appends one catalog entry (block offset, first-key
// length, first-key bytes) to the run's metadata region.
func (rw *runWriter) writeMetadataEntry(m blockMeta) error {
	var hdr [10]byte
	binary.LittleEndian.PutUint64(hdr[0:8], m.fileOffset)
	binary.LittleEndian.PutUint16(hdr[8:10], uint16(len(m.firstKey)))
	if _, err := rw.writeRaw(hdr[:]); err != nil {
		return fmt.Errorf("failed to write metadata entry: %w", err)
	}
	if _, err := rw.writeRaw(m.firstKey); err != nil {
		return fmt.Errorf("failed to write metadata key: %w", err)
	}
	return nil
}

// writeFooter appends the trailing 16-byte footer (metadata start offset,
// block count) that anchors the run's catalog for a reader opening the file
// cold.
func (rw *runWriter) writeFooter(metadataStart uint64, blockCount int) error {
	var footer [16]byte
	binary.LittleEndian.PutUint64(footer[0:8], metadataStart)
	binary.LittleEndian.PutUint64(footer[8:16], uint64(blockCount))
	if _, err := rw.writeRaw(footer[:]); err != nil {
		return fmt.Errorf("failed to write footer: %w", err)
	}
	return nil
}

// writeRaw appends bytes outside the block codec (metadata entries, the
// footer) and advances the running offset the same way writeBlock does.
func (rw *runWriter) writeRaw(data []byte) (int, error) {
	n, err := rw.file.Write(data)
	rw.offset += uint64(n)
	return n, err
}

// finalize syncs the temp file to disk, closes it, and renames it into
// place at the run's final path.
func (rw *runWriter) finalize() error {
	if err := rw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync sorted run file: %w", err)
	}
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("failed to close sorted run file: %w", err)
	}
	if err := os.Rename(rw.tmpPath, rw.path); err != nil {
		return fmt.Errorf("failed to rename temp sorted run file into place: %w", err)
	}
	return nil
}

// abort closes and removes the temp file after a failed write, leaving the
// final path untouched.
func (rw *runWriter) abort() {
	rw.file.Close()
	os.Remove(rw.tmpPath)
}

// Write sorts keys and values into the run's key order, packs them into
// fixed-size blocks via the block codec, and appends the metadata region and
// a 16-byte footer. keys and values are parallel arrays rather than a
// single slice of pairs, so a length mismatch is a representable input
// error instead of a state that is impossible by construction.
func Write(path string, opts config.Options, keys, values [][]byte) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if len(keys) != len(values) {
		return fmt.Errorf("%w: %d keys, %d values", ErrSizeMismatch, len(keys), len(values))
	}

	records := make([]block.Record, len(keys))
	for i := range keys {
		records[i] = block.Record{Key: keys[i], Value: values[i]}
	}

	cmp := opts.KeyType.Comparator()
	sort.SliceStable(records, func(i, j int) bool {
		return cmp(records[i].Key, records[j].Key) < 0
	})

	rw, err := createRunWriter(path)
	if err != nil {
		return err
	}

	var metas []blockMeta
	var batch []block.Record

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		data, err := block.Encode(batch, opts.BlockSize)
		if err != nil {
			rw.abort()
			return err
		}
		start, err := rw.writeBlock(data)
		if err != nil {
			rw.abort()
			return err
		}
		metas = append(metas, blockMeta{fileOffset: start, firstKey: batch[0].Key})
		batch = batch[:0]
		return nil
	}

	for _, r := range records {
		trial := append(batch, r)
		if block.EncodedSize(trial) > opts.BlockSize {
			if len(batch) == 0 {
				// A single record does not fit even alone.
				rw.abort()
				return fmt.Errorf("%w: record with key %d bytes, value %d bytes",
					block.ErrBlockOverflow, len(r.Key), len(r.Value))
			}
			if err := flush(); err != nil {
				return err
			}
			batch = append(batch, r)
			continue
		}
		batch = trial
	}
	if err := flush(); err != nil {
		return err
	}

	metadataStart := rw.offset
	for _, m := range metas {
		if err := rw.writeMetadataEntry(m); err != nil {
			rw.abort()
			return err
		}
	}

	if err := rw.writeFooter(metadataStart, len(metas)); err != nil {
		rw.abort()
		return err
	}

	if err := rw.finalize(); err != nil {
		rw.abort()
		return err
	}

	log.Debug("wrote sorted run %s: %d blocks, %d records", path, len(metas), len(records))

	return nil
}
