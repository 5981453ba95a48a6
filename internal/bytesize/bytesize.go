// Package bytesize provides a byte-count type that unmarshals from
// human-readable strings such as "128Mi", "1GiB", "500MB" or plain numbers.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes. It implements encoding.TextUnmarshaler so it
// can be used directly in configuration structs.
//
// Accepted formats:
//   - plain numbers: "134217728"
//   - binary units (x1024): Ki/KiB, Mi/MiB, Gi/GiB, Ti/TiB
//   - decimal units (x1000): K/KB, M/MB, G/GB, T/TB
type ByteSize uint64

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB
	TB ByteSize = 1000 * GB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

var multipliers = map[string]ByteSize{
	"":    B,
	"b":   B,
	"k":   KB,
	"kb":  KB,
	"m":   MB,
	"mb":  MB,
	"g":   GB,
	"gb":  GB,
	"t":   TB,
	"tb":  TB,
	"ki":  KiB,
	"kib": KiB,
	"mi":  MiB,
	"mib": MiB,
	"gi":  GiB,
	"gib": GiB,
	"ti":  TiB,
	"tib": TiB,
}

// Parse converts a human-readable byte size string into a ByteSize.
func Parse(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	// Split the numeric prefix from the unit suffix.
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	numStr := s[:i]
	unit := strings.ToLower(strings.TrimSpace(s[i:]))

	mult, ok := multipliers[unit]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", s[i:])
	}

	if strings.Contains(numStr, ".") {
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in byte size: %q", numStr)
		}
		return ByteSize(num * float64(mult)), nil
	}

	num, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte size: %q", numStr)
	}
	return ByteSize(num) * mult, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Bytes returns the size as an int, for APIs that take plain ints.
func (b ByteSize) Bytes() int {
	return int(b)
}

// String returns a human-readable representation, preferring exact binary
// units ("128Mi") and falling back to a plain byte count.
func (b ByteSize) String() string {
	switch {
	case b >= TiB && b%TiB == 0:
		return fmt.Sprintf("%dTi", b/TiB)
	case b >= GiB && b%GiB == 0:
		return fmt.Sprintf("%dGi", b/GiB)
	case b >= MiB && b%MiB == 0:
		return fmt.Sprintf("%dMi", b/MiB)
	case b >= KiB && b%KiB == 0:
		return fmt.Sprintf("%dKi", b/KiB)
	default:
		return strconv.FormatUint(uint64(b), 10)
	}
}
