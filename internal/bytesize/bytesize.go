// Package bytesize is a configuration value type for sizes written as
// "64Mi", "1GB" or plain byte counts.
package bytesize

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ByteSize is a size in bytes. Binary suffixes (Ki, Mi, Gi, Ti, optionally
// followed by B) multiply by 1024; decimal ones (K, M, G, T, optionally
// followed by B) by 1000. Suffixes are case-insensitive.
type ByteSize uint64

const (
	KiB ByteSize = humanize.KiByte
	MiB ByteSize = humanize.MiByte
	GiB ByteSize = humanize.GiByte

	KB ByteSize = humanize.KByte
	MB ByteSize = humanize.MByte
	GB ByteSize = humanize.GByte
)

// Parse reads a human-readable size.
func Parse(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative byte size: %q", s)
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = n
	return nil
}

// MarshalText implements encoding.TextMarshaler so YAML and JSON output
// round-trips through Parse.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// String formats with binary units, e.g. "64 MiB".
func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// Int64 returns the size as an int64, saturating at the maximum.
func (b ByteSize) Int64() int64 {
	const maxInt64 = 1<<63 - 1
	if b > maxInt64 {
		return maxInt64
	}
	return int64(b)
}
