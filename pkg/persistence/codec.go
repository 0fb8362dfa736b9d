package persistence

import (
	"encoding/base64"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// EncodeGenerationData compresses a generation data blob for storage.
// Generation payloads are large JSON documents that compress well, and
// they are written once per player but re-read by every late joiner.
func EncodeGenerationData(data string) string {
	if data == "" {
		return ""
	}
	compressed := encoder.EncodeAll([]byte(data), nil)
	return base64.StdEncoding.EncodeToString(compressed)
}

// DecodeGenerationData reverses EncodeGenerationData.
func DecodeGenerationData(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode generation data: %v", err)
	}
	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decompress generation data: %v", err)
	}
	return string(data), nil
}
