package sortedrun

import "errors"

var (
	// ErrSizeMismatch is returned by Write when the keys and values slices
	// have different lengths.
	ErrSizeMismatch = errors.New("sortedrun: keys and values have different cardinalities")
	// ErrFileTooSmall is returned by Open when the file is smaller than the
	// 16-byte footer.
	ErrFileTooSmall = errors.New("sortedrun: file too small to hold a footer")
	// ErrCorruptFooter is returned by Open when the footer's metadata_start
	// points past the end of the file.
	ErrCorruptFooter = errors.New("sortedrun: corrupt footer")
	// ErrCorruptMetadata is returned by Open when the metadata region cannot
	// be walked cleanly to exactly the footer's start, or when metadata_start
	// is not block_count blocks of the given block size.
	ErrCorruptMetadata = errors.New("sortedrun: corrupt metadata region")
	// ErrOutOfBounds is returned by Block when a BlockMetadata's file_offset
	// would read past the start of the metadata region.
	ErrOutOfBounds = errors.New("sortedrun: block metadata out of bounds")
)
