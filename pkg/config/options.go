// Package config holds the validated, out-of-band parameters shared between
// a sorted-run writer and the reader that later opens the same file:
// block size and key type. Neither is persisted in the run file itself.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Jasv1025/sortedkv/pkg/keytype"
)

// ErrInvalidOptions is returned by Validate when a field fails its
// constraint.
var ErrInvalidOptions = errors.New("invalid options")

// validate is a singleton validator instance, following the common
// package-level init pattern for validator registration.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("keytype", validateKeyType)
}

func validateKeyType(fl validator.FieldLevel) bool {
	kt := keytype.KeyType(fl.Field().Int())
	return kt == keytype.Bytes || kt == keytype.Integer
}

// Options bundles the parameters a writer and reader must agree on.
type Options struct {
	// BlockSize is the fixed size, in bytes, of every block in the run.
	BlockSize int `validate:"required,gte=64"`
	// KeyType selects the key comparator used across the run.
	KeyType keytype.KeyType `validate:"keytype"`
}

// DefaultBlockSize is the default fixed block size, 16 KiB.
const DefaultBlockSize = 16 * 1024

// NewDefaultOptions returns Options with a 16 KiB block size and Bytes key
// ordering.
func NewDefaultOptions() Options {
	return Options{
		BlockSize: DefaultBlockSize,
		KeyType:   keytype.Bytes,
	}
}

// Validate checks that Options is usable by a writer or reader.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}
