package sources

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// valueAtPath walks a decoded JSON document by a dot path with optional
// array indexes, e.g. "data.payments[0].total".
func valueAtPath(root any, path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	cur := root
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}

		name := part
		idx := -1
		if l := strings.Index(part, "["); l >= 0 && strings.HasSuffix(part, "]") {
			name = part[:l]
			i, err := strconv.Atoi(part[l+1 : len(part)-1])
			if err != nil {
				return nil, fmt.Errorf("bad index in %q", part)
			}
			idx = i
		}

		if name != "" {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("not an object at %q", name)
			}
			cur, ok = m[name]
			if !ok {
				return nil, fmt.Errorf("missing key %q", name)
			}
		}

		if idx >= 0 {
			arr, ok := cur.([]any)
			if !ok {
				return nil, fmt.Errorf("not an array at %q", part)
			}
			if idx >= len(arr) {
				return nil, fmt.Errorf("index out of range at %q", part)
			}
			cur = arr[idx]
		}
	}
	return cur, nil
}

// toDecimal coerces the value shapes pool APIs actually return: JSON
// numbers, numeric strings, and occasionally null for "no payouts yet".
func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case json.Number:
		return decimal.NewFromString(t.String())
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("unsupported value type %T", v)
	}
}

// firstCandidate tries an ordered list of dot paths against a document and
// returns the first one that resolves to a decimal.
func firstCandidate(root any, candidates []string) (decimal.Decimal, bool) {
	for _, path := range candidates {
		v, err := valueAtPath(root, path)
		if err != nil {
			continue
		}
		d, err := toDecimal(v)
		if err != nil {
			continue
		}
		return d, true
	}
	return decimal.Zero, false
}
