package suggest

import (
	"strings"

	"github.com/teranos/sqb/search/keys"
)

var booleanValues = []string{"true", "false"}

// localValues answers keys whose values are known without a source lookup:
// keys with predefined values and boolean keys. ok is false for every other key.
func localValues(meta keys.KeyMeta, text string) (values []Value, ok bool) {
	var candidates []string
	switch {
	case len(meta.Values) > 0:
		candidates = meta.Values
	case meta.ValueType == keys.ValueBoolean:
		candidates = booleanValues
	default:
		return nil, false
	}

	needle := strings.ToLower(strings.TrimSpace(text))
	values = []Value{}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), needle) {
			values = append(values, Value{Value: c})
		}
	}
	return values, true
}
