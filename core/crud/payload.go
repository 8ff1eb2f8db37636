package crud

import (
	"encoding/json"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// arrayMarker suffixes field names whose values are collected into a sequence.
const arrayMarker = "[]"

// Payload is a flat partial entity sent on create and update.
type Payload map[string]interface{}

// PayloadOf converts a typed form into a Payload through its JSON encoding.
// Fields tagged omitempty and left empty are not sent, so updates stay partial.
func PayloadOf(form interface{}) (Payload, error) {
	data, err := json.Marshal(form)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling form")
	}
	var p Payload
	if err = json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "unmarshalling form")
	}
	return p, nil
}

// FullPayloadOf is PayloadOf keeping every field of the form, so that an update clears
// what was emptied: strings are sent as "", sequences as [] and other empty values as null.
func FullPayloadOf(form interface{}) (Payload, error) {
	p, err := PayloadOf(form)
	if err != nil {
		return nil, err
	}

	typ := reflect.TypeOf(form)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return p, nil
	}
	for i := 0; i < typ.NumField(); i++ {
		fld := typ.Field(i)
		if fld.PkgPath != "" || fld.Anonymous {
			continue
		}
		name := strings.Split(fld.Tag.Get("json"), ",")[0]
		switch name {
		case "-":
			continue
		case "":
			name = fld.Name
		}
		if _, ok := p[name]; !ok {
			p[name] = emptyValue(fld.Type)
		}
	}
	return p, nil
}

func emptyValue(typ reflect.Type) interface{} {
	switch typ.Kind() {
	case reflect.String:
		return ""
	case reflect.Slice, reflect.Array:
		return []interface{}{}
	case reflect.Bool:
		return false
	default:
		return nil
	}
}

// PayloadFromValues serializes name/value pairs into a Payload.
// Names ending in "[]" are collected into a []string under the bare name;
// for any other name the last value wins.
func PayloadFromValues(values url.Values) Payload {
	p := make(Payload, len(values))
	for name, vals := range values {
		if strings.HasSuffix(name, arrayMarker) {
			key := strings.TrimSuffix(name, arrayMarker)
			seq, _ := p[key].([]string)
			p[key] = append(seq, vals...)
			continue
		}
		if len(vals) > 0 {
			p[name] = vals[len(vals)-1]
		}
	}
	return p
}

// Keys returns the payload field names, sorted.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
