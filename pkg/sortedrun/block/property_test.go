package block

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestBlockIsSelfDescribing checks that a block decoded from nothing but
// its own bytes reproduces every key and value given to Encode, in order,
// regardless of what block_size or record shapes produced it.
func TestBlockIsSelfDescribing(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("decode reproduces every encoded key and value in order", prop.ForAll(
		func(keys []string, values []string) bool {
			n := len(keys)
			if len(values) < n {
				n = len(values)
			}
			records := make([]Record, n)
			for i := 0; i < n; i++ {
				records[i] = Record{Key: []byte(keys[i]), Value: []byte(values[i])}
			}

			size := EncodedSize(records)
			buf, err := Encode(records, size)
			if err != nil {
				return false
			}
			if len(buf) != size {
				return false
			}

			view, err := Decode(buf)
			if err != nil {
				return false
			}
			if view.Len() != n {
				return false
			}
			for i := 0; i < n; i++ {
				if string(view.KeyBytes(i)) != keys[i] {
					return false
				}
				if string(view.ValueBytes(i)) != values[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(6, gen.AlphaString()),
		gen.SliceOfN(6, gen.AlphaString()),
	))

	properties.Property("encoding into a larger block than needed still decodes the record", prop.ForAll(
		func(pad int) bool {
			records := []Record{{Key: []byte("abc"), Value: []byte("xyz")}}
			base := EncodedSize(records)
			buf, err := Encode(records, base+pad)
			if err != nil {
				return false
			}
			view, err := Decode(buf)
			if err != nil {
				return false
			}
			return view.Len() == 1 && string(view.KeyBytes(0)) == "abc" && string(view.ValueBytes(0)) == "xyz"
		},
		gen.IntRange(0, 256),
	))

	properties.TestingRun(t)
}
