package crud

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Expand turns flat dot-path keys into nested maps: {"guardian.name": "x"} -> {"guardian": {"name": "x"}}.
func Expand(flat map[string]string) map[string]interface{} {
	m := make(map[string]interface{}, len(flat))
	for path, val := range flat {
		m[path] = val
	}
	return expand(m)
}

func expand(flat map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(flat))
	for path, val := range flat {
		parts := strings.Split(path, ".")
		node := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = val
	}
	return out
}

// Decode fills the typed form dst from string values keyed by dot paths (eg. a spreadsheet row).
// Values are converted to the field types: "3" -> 3, "true" -> true, "a,b" -> []string{"a", "b"}.
func Decode(flat map[string]string, dst interface{}) error {
	return decode(Expand(flat), dst)
}

// Expand nests the dot-path keys of p.
func (p Payload) Expand() Payload { return expand(p) }

// Decode fills the typed form dst from p, converting values as Decode does.
func (p Payload) Decode(dst interface{}) error {
	return decode(expand(p), dst)
}

func decode(input map[string]interface{}, dst interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		Result:           dst,
	})
	if err != nil {
		return errors.Wrap(err, "creating decoder")
	}
	if err = dec.Decode(input); err != nil {
		return errors.Wrap(err, "decoding values")
	}
	return nil
}
