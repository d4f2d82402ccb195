package storage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

// IsDataURI reports whether ref embeds its content inline.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// DecodeDataURI parses a base64 data: URI into its bytes and media type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !IsDataURI(uri) {
		return nil, "", fmt.Errorf("not a data URI")
	}

	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URI")
	}

	mediaType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return nil, "", fmt.Errorf("unsupported data URI encoding %q", encoding)
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, mediaType, nil
}

// SaveDataURI decodes an inline image and stores it.
func SaveDataURI(s Storage, uri string) (string, error) {
	data, mediaType, err := DecodeDataURI(uri)
	if err != nil {
		return "", err
	}

	return s.SaveFile(bytes.NewReader(data), FileInfo{
		ContentType: mediaType,
		Size:        int64(len(data)),
	})
}
