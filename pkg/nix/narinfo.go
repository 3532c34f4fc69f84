// narinfo.go
package nix

import (
	"fmt"
	"strconv"
	"strings"
)

// NAR compressions a binary cache may serve. A narinfo without a
// Compression line is bzip2.
const (
	CompressionXZ    = "xz"
	CompressionBZip2 = "bzip2"
	CompressionNone  = "none"
)

// NARInfo is the binary cache metadata of one store path
type NARInfo struct {
	StorePath   string
	URL         string
	Compression string
	FileHash    string // nix base32, without the "sha256:" prefix
	FileSize    int64
	NarHash     string
	NarSize     int64
	References  []string
}

// ParseNARInfo parses the "Key: value" lines of a .narinfo file
func ParseNARInfo(content string) (*NARInfo, error) {
	info := &NARInfo{Compression: CompressionBZip2}

	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		var err error
		switch strings.TrimSpace(key) {
		case "StorePath":
			info.StorePath = value
		case "URL":
			info.URL = value
		case "Compression":
			info.Compression = value
		case "FileHash":
			info.FileHash = strings.TrimPrefix(value, "sha256:")
		case "FileSize":
			info.FileSize, err = strconv.ParseInt(value, 10, 64)
		case "NarHash":
			info.NarHash = strings.TrimPrefix(value, "sha256:")
		case "NarSize":
			info.NarSize, err = strconv.ParseInt(value, 10, 64)
		case "References":
			info.References = strings.Fields(value)
		}
		if err != nil {
			return nil, fmt.Errorf("narinfo %s: %w", key, err)
		}
	}

	if info.StorePath == "" {
		return nil, fmt.Errorf("missing StorePath in narinfo")
	}
	if info.URL == "" {
		return nil, fmt.Errorf("missing URL in narinfo")
	}
	return info, nil
}
