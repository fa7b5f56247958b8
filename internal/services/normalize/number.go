package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseNumber converts a loosely typed value into a float64.
// Strings have thousands separators and whitespace removed, are parsed as an exact
// decimal first and as a float second. Anything unparsable, non-finite or of an
// unsupported type yields 0. ParseNumber never panics.
func ParseNumber(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case json.Number:
		return parseNumericString(v.String())
	case string:
		return parseNumericString(v)
	default:
		return 0
	}
}

// Decimals beyond these bounds are outside float64 range anyway. Converting them exactly
// would build a power of ten with up to 2^31 digits, so they go through strconv, which
// saturates to ±Inf or 0 in constant time.
const (
	maxExactExponent = 400
	maxExactBits     = 1400
)

func parseNumericString(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return 0
	}

	if d, err := decimal.NewFromString(cleaned); err == nil && exactRange(d) {
		f, _ := d.Float64()
		return finite(f)
	}

	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return finite(f)
	}

	return 0
}

func exactRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp <= -maxExactExponent || exp >= maxExactExponent {
		return false
	}
	return d.Coefficient().BitLen() <= maxExactBits
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// stringValue renders identifiers and names that may arrive as numbers
func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
