package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

// JobColors is the palette new jobs pick from when no color is given.
var JobColors = []string{
	"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#EC4899", "#14B8A6", "#F97316", "#6366F1", "#84CC16",
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsHexColor reports whether s looks like #rrggbb.
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// RandomJobColor picks a palette entry, falling back to the first on error.
func RandomJobColor() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(JobColors))))
	if err != nil {
		return JobColors[0]
	}
	return JobColors[n.Int64()]
}
