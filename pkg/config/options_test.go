package config

import (
	"testing"

	"github.com/Jasv1025/sortedkv/pkg/keytype"
)

func TestDefaultOptionsValid(t *testing.T) {
	opts := NewDefaultOptions()
	if err := opts.Validate(); err != nil {
		t.Fatalf("expected default options to validate, got: %v", err)
	}
}

func TestOptionsRejectsSmallBlockSize(t *testing.T) {
	opts := Options{BlockSize: 8, KeyType: keytype.Bytes}
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected validation error for tiny block size")
	}
}

func TestOptionsRejectsZeroValue(t *testing.T) {
	var opts Options
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected validation error for zero-value options")
	}
}

func TestOptionsAcceptsIntegerKeyType(t *testing.T) {
	opts := Options{BlockSize: 256, KeyType: keytype.Integer}
	if err := opts.Validate(); err != nil {
		t.Fatalf("expected Integer key type to validate, got: %v", err)
	}
}
