package console

import (
	"strconv"
	"strings"

	"github.com/hbnb/hbnb/internal/models"
)

// ParseParams turns key=value arguments into attributes. Quoted values are
// strings with underscores standing for spaces; values with a dot are floats;
// everything else must be an integer. Malformed pairs are skipped.
func ParseParams(args []string) map[string]any {
	params := make(map[string]any, len(args))

	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" || isReserved(key) {
			continue
		}

		if value, valid := parseValue(raw); valid {
			params[key] = value
		}
	}

	return params
}

func parseValue(raw string) (any, bool) {
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		s := raw[1 : len(raw)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)

		return strings.ReplaceAll(s, "_", " "), true
	}

	if strings.Contains(raw, ".") {
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil
	}

	n, err := strconv.Atoi(raw)
	return n, err == nil
}

func isReserved(key string) bool {
	switch key {
	case "id", "created_at", "updated_at", models.ClassField:
		return true
	default:
		return false
	}
}
