package sortedrun

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Jasv1025/sortedkv/pkg/config"
	"github.com/Jasv1025/sortedkv/pkg/keytype"
)

func u64key(n uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return b[:]
}

func lookupValue(t *testing.T, r *Reader, key []byte) ([]byte, bool) {
	cmp := r.KeyType().Comparator()
	for _, meta := range r.Catalog() {
		view, err := r.Block(meta)
		if err != nil {
			t.Fatalf("Block failed: %v", err)
		}
		for i := 0; i < view.Len(); i++ {
			if cmp(view.KeyBytes(i), key) == 0 {
				return view.ValueBytes(i), true
			}
		}
	}
	return nil, false
}

// TestIntegersFitInSingleBlock covers a specific write/read edge case.
func TestIntegersFitInSingleBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sr")
	opts := config.Options{BlockSize: 256, KeyType: keytype.Integer}

	keys := [][]byte{u64key(1), u64key(2), u64key(3)}
	values := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}

	if err := Write(path, opts, keys, values); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	r, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	if r.BlockCount() != 1 {
		t.Errorf("expected block_count=1, got %d", r.BlockCount())
	}

	v, ok := lookupValue(t, r, u64key(2))
	if !ok || string(v) != "bb" {
		t.Errorf("expected lookup(2) = \"bb\", got %q, found=%v", v, ok)
	}

	if _, ok := lookupValue(t, r, u64key(4)); ok {
		t.Errorf("expected lookup(4) = None")
	}
}

// TestIntegersForceBlockSplit covers a specific write/read edge case.
func TestIntegersForceBlockSplit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sr")
	opts := config.Options{BlockSize: 64, KeyType: keytype.Integer}

	var keys, values [][]byte
	for i := uint64(1); i <= 20; i++ {
		keys = append(keys, u64key(i))
		values = append(values, []byte(fmt.Sprintf("v%d", i)))
	}

	if err := Write(path, opts, keys, values); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	r, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	if r.BlockCount() < 2 {
		t.Errorf("expected block_count >= 2, got %d", r.BlockCount())
	}

	v, ok := lookupValue(t, r, u64key(11))
	if !ok || string(v) != "v11" {
		t.Errorf("expected lookup(11) = \"v11\", got %q, found=%v", v, ok)
	}

	catalog := r.Catalog()
	if keytype.AsU64(catalog[1].FirstKey) <= keytype.AsU64(catalog[0].FirstKey) {
		t.Errorf("expected catalog[1].first_key_as_u64 > catalog[0].first_key_as_u64")
	}
}

// TestBytesModeOrdering covers a specific write/read edge case.
func TestBytesModeOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sr")
	opts := config.Options{BlockSize: 128, KeyType: keytype.Bytes}

	keys := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma")}
	values := [][]byte{[]byte("1"), []byte("2"), []byte("3")}

	if err := Write(path, opts, keys, values); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	r, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	v, ok := lookupValue(t, r, []byte("beta"))
	if !ok || string(v) != "2" {
		t.Errorf("expected lookup(\"beta\") = \"2\", got %q, found=%v", v, ok)
	}

	if _, ok := lookupValue(t, r, []byte("aardvark")); ok {
		t.Errorf("expected lookup(\"aardvark\") = None")
	}
}

// TestOversizedRecordRejected covers a specific write/read edge case.
func TestOversizedRecordRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sr")
	opts := config.Options{BlockSize: 64, KeyType: keytype.Bytes}

	keys := [][]byte{make([]byte, 64)}
	values := [][]byte{[]byte("v")}

	err := Write(path, opts, keys, values)
	if err == nil {
		t.Fatalf("expected BlockOverflow error, got nil")
	}

	if _, statErr := os.Stat(path); statErr == nil {
		t.Errorf("expected no file at %s after a failed write", path)
	}
}

// TestCorruptFooterRejected covers a specific write/read edge case.
func TestCorruptFooterRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sr")
	opts := config.Options{BlockSize: 64, KeyType: keytype.Bytes}

	keys := [][]byte{[]byte("a"), []byte("b")}
	values := [][]byte{[]byte("1"), []byte("2")}
	if err := Write(path, opts, keys, values); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("failed to reopen for corruption: %v", err)
	}
	stat, _ := f.Stat()
	if _, err := f.WriteAt(make([]byte, 16), stat.Size()-16); err != nil {
		t.Fatalf("failed to zero footer: %v", err)
	}
	f.Close()

	_, err = Open(path, opts)
	if err == nil {
		t.Errorf("expected an error opening a file with a zeroed footer")
	}
}

// TestSizeMismatch exercises the SizeMismatch failure mode: mismatched
// keys/values slice lengths must be rejected rather than silently truncated.
func TestSizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sr")
	opts := config.NewDefaultOptions()

	keys := [][]byte{[]byte("a"), []byte("b")}
	values := [][]byte{[]byte("1")}

	err := Write(path, opts, keys, values)
	if err == nil {
		t.Fatalf("expected ErrSizeMismatch, got nil")
	}
}

// TestCatalogConsistency checks that the catalog's file offsets and first
// keys agree with what each block actually holds, and that first keys are
// strictly increasing across blocks.
func TestCatalogConsistency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sr")
	opts := config.Options{BlockSize: 64, KeyType: keytype.Integer}

	var keys, values [][]byte
	for i := uint64(1); i <= 30; i++ {
		keys = append(keys, u64key(i))
		values = append(values, []byte(fmt.Sprintf("v%d", i)))
	}
	if err := Write(path, opts, keys, values); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	r, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	catalog := r.Catalog()
	for i, meta := range catalog {
		if meta.FileOffset != uint64(i*opts.BlockSize) {
			t.Errorf("catalog[%d].file_offset = %d, want %d", i, meta.FileOffset, i*opts.BlockSize)
		}
		view, err := r.Block(meta)
		if err != nil {
			t.Fatalf("Block failed: %v", err)
		}
		if string(view.KeyBytes(0)) != string(meta.FirstKey) {
			t.Errorf("catalog[%d].first_key does not match block's first key", i)
		}
		if i > 0 {
			if keytype.AsU64(catalog[i-1].FirstKey) >= keytype.AsU64(meta.FirstKey) {
				t.Errorf("catalog is not strictly increasing at index %d", i)
			}
		}
	}
}

// TestIdempotentOpen checks that opening the same file twice yields
// catalogs with identical block metadata.
func TestIdempotentOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sr")
	opts := config.NewDefaultOptions()

	keys := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	values := [][]byte{[]byte("1"), []byte("2"), []byte("3")}
	if err := Write(path, opts, keys, values); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	r1, err := Open(path, opts)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	defer r1.Close()
	r2, err := Open(path, opts)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer r2.Close()

	if r1.BlockCount() != r2.BlockCount() {
		t.Fatalf("block counts differ between opens")
	}
	for i := range r1.Catalog() {
		if string(r1.Catalog()[i].FirstKey) != string(r2.Catalog()[i].FirstKey) {
			t.Errorf("catalog entry %d differs between opens", i)
		}
	}
}
