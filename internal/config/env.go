package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/zhubert/jjline/internal/errors"
)

// EnvPrefix marks environment variables that override config keys. Path
// segments are separated by a double underscore:
//
//	JJLINE__BOOKMARKS__SEARCH_DEPTH=10
//	JJLINE__MODULE__1__MAX_BOOKMARKS=3
const EnvPrefix = "JJLINE__"

const envSeparator = "__"

// readDotEnv returns the assignments in a .env file as KEY=VALUE pairs.
func readDotEnv(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if stderrors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out, nil
}

// applyEnv overlays JJLINE__ variables onto doc in order, so later
// assignments win.
func applyEnv(doc map[string]any, environ []string) error {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		path := strings.Split(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), envSeparator)
		for _, p := range path {
			if p == "" {
				return errors.ConfigInvalid(fmt.Sprintf("%s: empty key segment", key))
			}
		}
		if err := setPath(doc, path, envValue(value)); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("%s: %v", key, err))
		}
	}
	return nil
}

// envValue reads a variable as a TOML value when it is one (numbers, booleans,
// quoted strings, arrays) and as a bare string otherwise.
func envValue(s string) any {
	var probe struct {
		V any `toml:"v"`
	}
	if err := toml.Unmarshal([]byte("v = "+s), &probe); err == nil && probe.V != nil {
		return probe.V
	}
	return s
}

// setPath assigns value at path, creating missing tables on the way. Numeric
// segments index into arrays such as the module list; they never create
// elements. A path through an existing non-table value is an error.
func setPath(doc map[string]any, path []string, value any) error {
	var cur any = doc
	for i, key := range path {
		last := i == len(path)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[key] = value
				return nil
			}
			next, exists := node[key]
			switch next.(type) {
			case map[string]any, []any:
				cur = next
				continue
			}
			if exists {
				return fmt.Errorf("%q is not a table", strings.Join(path[:i+1], "."))
			}
			if _, err := strconv.Atoi(path[i+1]); err == nil {
				return fmt.Errorf("no %s list to index", key)
			}
			next = map[string]any{}
			node[key] = next
			cur = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return fmt.Errorf("index %q out of range", key)
			}
			if last {
				node[idx] = value
				return nil
			}
			cur = node[idx]
		default:
			return fmt.Errorf("%q is not a table", strings.Join(path[:i], "."))
		}
	}
	return nil
}

// normalizeColors rewrites { r, g, b } and { TrueColor = { r, g, b } } color
// tables as hex strings.
func normalizeColors(node any) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if k == "color" || k == "bg_color" {
				if hex, ok := tableColor(v); ok {
					n[k] = hex
					continue
				}
			}
			normalizeColors(v)
		}
	case []any:
		for _, v := range n {
			normalizeColors(v)
		}
	}
}

func tableColor(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range []string{"TrueColor", "true_color", "truecolor"} {
		if inner, ok := m[key].(map[string]any); ok {
			m = inner
			break
		}
	}
	var rgb [3]int64
	for i, c := range []string{"r", "g", "b"} {
		n, ok := toInt(m[c])
		if !ok || n < 0 || n > 255 {
			return "", false
		}
		rgb[i] = n
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), true
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
