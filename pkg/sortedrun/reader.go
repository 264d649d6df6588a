package sortedrun

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/Jasv1025/sortedkv/pkg/common/log"
	"github.com/Jasv1025/sortedkv/pkg/config"
	"github.com/Jasv1025/sortedkv/pkg/keytype"
	"github.com/Jasv1025/sortedkv/pkg/sortedrun/block"
)

const footerSize = 16

// BlockMetadata is one entry of the reader's in-memory catalog: a block's
// starting file offset and the first key it holds, plus two fields the
// reader derives for convenience at open time (not stored in the file
// format) so the Lookup Engine can translate a predictor's global record
// position into a block and an in-block offset.
type BlockMetadata struct {
	BlockIndex      int
	FileOffset      uint64
	FirstKey        []byte
	RecordCount     int
	CumulativeStart int
}

// Reader is a memory-mapped, read-only view over one sorted run. It owns the
// mapping and the catalog exclusively; BlockViews it hands out borrow from
// the mapping and must not outlive the Reader.
type Reader struct {
	file      *os.File
	data      []byte
	fileSize  int64
	opts      config.Options
	metaStart uint64
	catalog   []BlockMetadata
	total     int
	closeOnce sync.Once
	closeErr  error
}

// Open maps path read-only, parses its footer and metadata region, and
// builds the block-metadata catalog. block_size is not stored in the file;
// it is shared out-of-band via opts, and a mismatched block_size at open
// time will surface as a corrupt-metadata error rather than anything more
// specific.
func Open(path string, opts config.Options) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	fileSize := stat.Size()
	if fileSize < footerSize {
		file.Close()
		return nil, ErrFileTooSmall
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(fileSize), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}

	footer := data[fileSize-footerSize:]
	metadataStart := binary.LittleEndian.Uint64(footer[0:8])
	blockCount := binary.LittleEndian.Uint64(footer[8:16])

	if metadataStart >= uint64(fileSize) {
		unix.Munmap(data)
		file.Close()
		log.Error("open %s: corrupt footer, metadata_start=%d file_size=%d", path, metadataStart, fileSize)
		return nil, ErrCorruptFooter
	}

	catalog, err := walkMetadata(data, metadataStart, blockCount, uint64(fileSize))
	if err != nil {
		unix.Munmap(data)
		file.Close()
		log.Error("open %s: %v", path, err)
		return nil, err
	}

	r := &Reader{
		file:      file,
		data:      data,
		fileSize:  fileSize,
		opts:      opts,
		metaStart: metadataStart,
		catalog:   catalog,
	}

	if err := r.deriveRecordCounts(); err != nil {
		unix.Munmap(data)
		file.Close()
		return nil, err
	}

	return r, nil
}

// walkMetadata decodes block_count metadata entries starting at
// metadataStart, failing ErrCorruptMetadata if the walk runs off the file or
// does not land exactly at the footer's start.
func walkMetadata(data []byte, metadataStart, blockCount, fileSize uint64) ([]BlockMetadata, error) {
	catalog := make([]BlockMetadata, 0, blockCount)
	pos := metadataStart
	footerStart := fileSize - footerSize

	for i := uint64(0); i < blockCount; i++ {
		if pos+10 > footerStart {
			return nil, ErrCorruptMetadata
		}
		fileOffset := binary.LittleEndian.Uint64(data[pos : pos+8])
		keyLen := uint64(binary.LittleEndian.Uint16(data[pos+8 : pos+10]))
		pos += 10
		if pos+keyLen > footerStart {
			return nil, ErrCorruptMetadata
		}
		firstKey := data[pos : pos+keyLen]
		pos += keyLen

		catalog = append(catalog, BlockMetadata{
			BlockIndex: int(i),
			FileOffset: fileOffset,
			FirstKey:   firstKey,
		})
	}

	if pos != footerStart {
		return nil, ErrCorruptMetadata
	}

	return catalog, nil
}

// deriveRecordCounts reads each block's two-byte count header (decode is
// O(1) and does not copy) to build per-block record counts and their
// cumulative prefix sums, letting the Lookup Engine convert a predictor's
// global record position into a (block, local position) pair without
// storing that mapping in the file format itself.
func (r *Reader) deriveRecordCounts() error {
	if r.metaStart != uint64(len(r.catalog))*uint64(r.opts.BlockSize) {
		return fmt.Errorf("%w: metadata_start %d is not %d blocks of %d bytes",
			ErrCorruptMetadata, r.metaStart, len(r.catalog), r.opts.BlockSize)
	}
	cum := 0
	for i := range r.catalog {
		meta := &r.catalog[i]
		if meta.FileOffset+uint64(r.opts.BlockSize) > r.metaStart {
			return fmt.Errorf("%w: block %d at offset %d", ErrOutOfBounds, i, meta.FileOffset)
		}
		region := r.data[meta.FileOffset : meta.FileOffset+uint64(r.opts.BlockSize)]
		view, err := block.Decode(region)
		if err != nil {
			return fmt.Errorf("%w: block %d: %v", ErrCorruptMetadata, i, err)
		}
		meta.RecordCount = view.Len()
		meta.CumulativeStart = cum
		cum += meta.RecordCount
	}
	r.total = cum
	return nil
}

// BlockCount returns the number of blocks in the run.
func (r *Reader) BlockCount() int {
	return len(r.catalog)
}

// TotalRecords returns the total number of records across every block,
// derived at open time.
func (r *Reader) TotalRecords() int {
	return r.total
}

// KeyType returns the out-of-band key ordering this run was opened with.
func (r *Reader) KeyType() keytype.KeyType {
	return r.opts.KeyType
}

// Catalog returns the ordered, read-only block-metadata catalog.
func (r *Reader) Catalog() []BlockMetadata {
	return r.catalog
}

// CatalogRange returns the half-open slice [lo, hi), clamped to [0, B) and
// empty when lo >= hi.
func (r *Reader) CatalogRange(lo, hi int) []BlockMetadata {
	b := len(r.catalog)
	if lo < 0 {
		lo = 0
	}
	if hi > b {
		hi = b
	}
	if lo >= hi {
		return nil
	}
	return r.catalog[lo:hi]
}

// Block returns a zero-copy view over the bytes of the block described by
// meta, failing ErrOutOfBounds if the block would read past the start of
// the metadata region.
func (r *Reader) Block(meta BlockMetadata) (*block.View, error) {
	end := meta.FileOffset + uint64(r.opts.BlockSize)
	if end > r.metaStart {
		return nil, ErrOutOfBounds
	}
	return block.Decode(r.data[meta.FileOffset:end])
}

// LocateGlobalPos maps a position in the run's global record space to the
// block that holds it and that record's offset within the block. pos is
// clamped to [0, TotalRecords()-1] first.
func (r *Reader) LocateGlobalPos(pos int) (blockIndex, localPos int) {
	if r.total == 0 {
		return 0, 0
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= r.total {
		pos = r.total - 1
	}
	lo, hi := 0, len(r.catalog)
	for lo < hi {
		mid := (lo + hi) / 2
		if r.catalog[mid].CumulativeStart <= pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	blockIndex = lo - 1
	if blockIndex < 0 {
		blockIndex = 0
	}
	localPos = pos - r.catalog[blockIndex].CumulativeStart
	return blockIndex, localPos
}

// Close unmaps the file and closes its descriptor exactly once; safe to
// call multiple times.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		if r.data != nil {
			if err := unix.Munmap(r.data); err != nil {
				r.closeErr = fmt.Errorf("failed to munmap: %w", err)
			}
			r.data = nil
		}
		if err := r.file.Close(); err != nil && r.closeErr == nil {
			r.closeErr = fmt.Errorf("failed to close file: %w", err)
		}
	})
	return r.closeErr
}
