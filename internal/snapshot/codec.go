package snapshot

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Code snapshots attached to journal rows can run to tens of KB; they are
// stored zstd-compressed. Encoder and decoder are stateless in EncodeAll /
// DecodeAll mode and safe for concurrent use.
var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// Pack compresses a code snapshot for storage. Empty input packs to nil.
func Pack(code string) []byte {
	if code == "" {
		return nil
	}
	return encoder.EncodeAll([]byte(code), nil)
}

// Unpack restores a snapshot packed by Pack. Nil or empty input unpacks to
// the empty string.
func Unpack(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := decoder.DecodeAll(b, nil)
	if err != nil {
		return "", fmt.Errorf("decompress snapshot: %w", err)
	}
	return string(out), nil
}
