package manifest

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// compress returns the LZ4 block for text, or text itself when it does not
// shrink.
func compress(text string) ([]byte, bool) {
	if text == "" {
		return nil, false
	}
	compressed := make([]byte, lz4.CompressBlockBound(len(text)))
	written, err := lz4.CompressBlock([]byte(text), compressed, nil)
	if err != nil || written == 0 || written >= len(text) {
		return []byte(text), false
	}
	return compressed[:written], true
}

func decompress(data []byte, size int, compressed bool) (string, error) {
	if !compressed {
		return string(data), nil
	}
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data, out)
	if err != nil {
		return "", fmt.Errorf("decompress output: %w", err)
	}
	return string(out[:n]), nil
}
