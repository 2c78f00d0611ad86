package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// DecodeStrict unmarshals data into v, a pointer to a struct. Unknown fields,
// trailing data and missing required fields (those tagged without omitempty)
// are rejected. A payload wrapped in a markdown code fence is decoded again
// with the fence removed; no other repair is attempted.
func DecodeStrict(data []byte, v any) error {
	err := decodeStrict(data, v)
	if err == nil {
		return nil
	}
	if repaired, ok := RepairJSON(string(data)); ok {
		if err2 := decodeStrict([]byte(repaired), v); err2 == nil {
			return nil
		}
	}
	return err
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level value")
	}

	required := requiredFields(v)
	if len(required) == 0 {
		return nil
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return err
	}
	for _, name := range required {
		if _, ok := present[name]; !ok {
			return fmt.Errorf("missing required field %q", name)
		}
	}
	return nil
}

func requiredFields(v any) []string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || strings.Contains(opts, "omitempty") {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out = append(out, name)
	}
	return out
}
