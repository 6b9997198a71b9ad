package shared

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = map[string]float64{
	"":   1,
	"b":  1,
	"k":  1 << 10,
	"kb": 1 << 10,
	"m":  1 << 20,
	"mb": 1 << 20,
	"g":  1 << 30,
	"gb": 1 << 30,
	"t":  1 << 40,
	"tb": 1 << 40,
}

// ParseSize converts a human readable size such as "1.5 GB", "700M" or "12 KiB" into bytes.
//
// Units are binary (1 KB = 1024 B), matching how the download queue reports sizes.
func ParseSize(text string) (int64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if s == "" {
		return 0, fmt.Errorf("%w: empty size", ErrInvalidSize)
	}

	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	number, unit := s[:i], strings.ToLower(strings.TrimSpace(s[i:]))
	unit = strings.Replace(unit, "ib", "b", 1)
	unit = strings.TrimSuffix(unit, "/s")

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, text)
	}

	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidSize, text)
	}

	product := math.Round(value * multiplier)
	if math.IsInf(product, 0) || math.IsNaN(product) || product >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidSize, text)
	}
	return int64(product), nil
}

// FormatSize renders a byte count with a binary unit, e.g. 1536 -> "1.50 KB".
func FormatSize(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(n)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.2f %s", value, units[i])
}
