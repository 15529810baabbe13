// Package fingerprint builds cache keys from request kind and parameters so
// equivalent upstream calls dedupe to one cache entry.
package fingerprint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/atmoscope/atmoscope/internal/core/model"
)

// fixed literal for feeds that are global, not coordinate-addressed
const globalScope = "global"

// Key builds "<kind>:<params>:f=<hash>". The params text is sanitized for
// log/store friendliness; the xxhash of the raw text keeps distinct params
// distinct even after sanitization collapses characters.
func Key(kind, params string) string {
	kindNorm := sanitize(strings.TrimSpace(kind))
	paramSafe := sanitize(params)

	const maxParamLen = 160
	if len(paramSafe) > maxParamLen {
		paramSafe = paramSafe[:maxParamLen]
	}

	sum := xxhash.Sum64String(params)
	return fmt.Sprintf("%s:%s:f=%016x", kindNorm, paramSafe, sum)
}

// Coordinate keys keep the caller's input precision: two requests for the
// same literal coordinates share an entry.

func Current(lat, lon float64) string {
	return Key("current", coord(lat, lon))
}

func Forecast(lat, lon float64) string {
	return Key("forecast", coord(lat, lon))
}

func Hurricanes() string {
	return Key("hurricane", globalScope)
}

func Wildfires(days int) string {
	return Key("wildfire", "days="+strconv.Itoa(days))
}

func Disasters() string {
	return Key("disaster", globalScope)
}

func TileMetadata(kind model.LayerKind, cat model.ZoomCategory, bounds *model.Bounds) string {
	params := kind.String() + ":" + cat.String()
	if bounds != nil {
		params += ":" + bounds.RoundedKey()
	}
	return Key("tiles", params)
}

func coord(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-' || r == '=' || r == '.' || r == ',':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
