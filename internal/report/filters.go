package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/osteele/liquid"
)

// registerFilters adds the number and label filters the report template uses.
func registerFilters(engine *liquid.Engine) {
	// Fixed decimals: {{ rate | fixed: 1 }}
	engine.RegisterFilter("fixed", func(value interface{}, digits int) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return strconv.FormatFloat(f, 'f', digits, 64)
	})

	// Rounded with thousands separators: {{ subscribers | delimit }}
	engine.RegisterFilter("delimit", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return Delimit(int64(math.Round(f)))
	})

	// Right-pad to a column width: {{ label | pad: 12 }}
	engine.RegisterFilter("pad", func(value interface{}, width int) string {
		s := fmt.Sprintf("%v", value)
		if len(s) >= width {
			return s + " "
		}
		return s + strings.Repeat(" ", width-len(s))
	})

	// Status label: {{ "BELOW_TARGET" | label }} -> "Below Target"
	engine.RegisterFilter("label", func(value interface{}) string {
		return Label(fmt.Sprintf("%v", value))
	})
}

// Delimit formats n with comma thousands separators.
func Delimit(n int64) string {
	str := strconv.FormatInt(n, 10)
	neg := n < 0
	if neg {
		str = str[1:]
	}

	var b strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(c)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Label turns an enum value such as ON_TRACK into "On Track".
func Label(s string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(s), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
