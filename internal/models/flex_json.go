package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Field maps cache JSON tag -> struct field index per flexible type.
var (
	matchPlayerFieldMap  map[string]int
	matchPlayerFieldOnce sync.Once
	matchIDFieldMap      map[string]int
	matchIDFieldOnce     sync.Once
)

func buildFieldMap(t reflect.Type) map[string]int {
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		m[name] = i
	}
	return m
}

func getMatchPlayerFieldMap() map[string]int {
	matchPlayerFieldOnce.Do(func() {
		matchPlayerFieldMap = buildFieldMap(reflect.TypeOf(MatchPlayer{}))
	})
	return matchPlayerFieldMap
}

func getMatchIDFieldMap() map[string]int {
	matchIDFieldOnce.Do(func() {
		matchIDFieldMap = buildFieldMap(reflect.TypeOf(MatchIDEntry{}))
	})
	return matchIDFieldMap
}

// UnmarshalJSON implements flexible unmarshaling that accepts both
// string-encoded and native JSON scalars. The Hi-Rez API serializes some
// numeric fields as quoted strings on the console endpoints and nulls
// whole rows for privacy-hidden accounts; this coerces whatever arrives
// into the declared Go types.
func (p *MatchPlayer) UnmarshalJSON(data []byte) error {
	// Alias prevents infinite recursion
	type Alias MatchPlayer
	return flexUnmarshal(data, (*Alias)(p), getMatchPlayerFieldMap())
}

// UnmarshalJSON handles the Match field, which getmatchidsbyqueue returns
// as a quoted string on PC and a bare number on some console responses.
func (e *MatchIDEntry) UnmarshalJSON(data []byte) error {
	type Alias MatchIDEntry
	return flexUnmarshal(data, (*Alias)(e), getMatchIDFieldMap())
}

func flexUnmarshal(data []byte, a interface{}, fieldMap map[string]int) error {
	// Fast path: try standard unmarshal (works when all types match natively)
	if err := json.Unmarshal(data, a); err == nil {
		return nil
	}

	// Slow path: field-by-field with string-to-native coercion
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	v := reflect.ValueOf(a).Elem()

	for key, rawVal := range raw {
		idx, ok := fieldMap[key]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		// Try direct unmarshal first
		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		// Value is a JSON string but the target is numeric or bool, so coerce
		if len(rawVal) > 1 && rawVal[0] == '"' {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				continue
			}
			if s == "" {
				continue
			}
			coerceStringToField(fv, s)
			continue
		}

		// Bare number into a string field (console match IDs)
		if fv.Kind() == reflect.String {
			fv.SetString(string(rawVal))
		}
	}

	return nil
}

// coerceStringToField converts a string value to the field's native type.
func coerceStringToField(fv reflect.Value, s string) {
	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetFloat(n)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// ParseFloat handles "28.5" → truncate to int
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetInt(int64(n))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := strconv.ParseFloat(s, 64); err == nil && n >= 0 {
			fv.SetUint(uint64(n))
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(s); err == nil {
			fv.SetBool(b)
		}
	case reflect.String:
		fv.SetString(s)
	}
}
