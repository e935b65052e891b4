package docstore

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

const tagName = "doc"

var timeType = reflect.TypeOf(time.Time{})

// Encode converts a struct (or pointer to one) into Fields using its `doc`
// tags. The id field is never written into the payload; "omitempty" skips
// zero values and "-" skips the field.
func Encode(v interface{}) (Fields, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("encode: nil %T", v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("encode: %T is not a struct", v)
	}

	out := make(Fields)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, opts := parseTag(sf.Tag.Get(tagName))
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if name == FieldID {
			continue
		}
		fv := rv.Field(i)
		if opts.omitEmpty && fv.IsZero() {
			continue
		}
		out[name] = Normalize(fv.Interface())
	}
	return out, nil
}

type tagOptions struct {
	omitEmpty bool
}

func parseTag(tag string) (string, tagOptions) {
	parts := strings.Split(tag, ",")
	var opts tagOptions
	for _, p := range parts[1:] {
		if p == "omitempty" {
			opts.omitEmpty = true
		}
	}
	return parts[0], opts
}

// Decode fills out (a pointer to a struct) from doc, injecting the document
// identifier into the field tagged `doc:"id"`.
func Decode(doc Document, out interface{}) error {
	input := make(map[string]interface{}, len(doc.Data)+1)
	for k, v := range doc.Data {
		input[k] = v
	}
	input[FieldID] = doc.ID

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tagName,
		Result:           out,
		WeaklyTypedInput: false,
		DecodeHook:       timeHook,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("decode %s: %w", doc.ID, err)
	}
	return nil
}

// timeHook accepts RFC 3339 strings for time fields and leaves everything
// else alone.
func timeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timeType {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return time.Parse(time.RFC3339Nano, s)
	}
	return data, nil
}
