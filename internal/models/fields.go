package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports a request the service refuses to act on because of
// its shape or content.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Fields is an allow-listed set of column assignments ready to be bound as
// query parameters. Columns and Values are parallel and follow table order.
type Fields struct {
	Columns []string
	Values  []any
}

// Len reports how many columns are assigned.
func (f Fields) Len() int { return len(f.Columns) }

// Get returns the bound value for col and whether col is assigned.
func (f Fields) Get(col string) (any, bool) {
	for i, c := range f.Columns {
		if c == col {
			return f.Values[i], true
		}
	}
	return nil, false
}

// NormalizeFields keeps the keys of body present in allowed, silently
// dropping the rest, and converts each value to the type of its column.
// Numbers should be decoded as json.Number (Decoder.UseNumber) so integers
// survive intact.
func NormalizeFields(body map[string]any, allowed map[string]bool) (Fields, error) {
	var f Fields
	for _, col := range Columns {
		raw, ok := body[col]
		if !ok || !allowed[col] {
			continue
		}
		v, err := convertValue(col, raw)
		if err != nil {
			return Fields{}, err
		}
		f.Columns = append(f.Columns, col)
		f.Values = append(f.Values, v)
	}
	return f, nil
}

// ForUpdate filters body against UpdatableColumns and rejects a payload that
// leaves nothing to change.
func ForUpdate(body map[string]any) (Fields, error) {
	f, err := NormalizeFields(body, UpdatableColumns)
	if err != nil {
		return Fields{}, err
	}
	if f.Len() == 0 {
		return Fields{}, &ValidationError{Msg: "no valid fields to update"}
	}
	return f, nil
}

// ForCreate filters body against CreatableColumns and checks that every
// column in RequiredOnCreate holds a non-empty string.
func ForCreate(body map[string]any) (Fields, error) {
	f, err := NormalizeFields(body, CreatableColumns)
	if err != nil {
		return Fields{}, err
	}
	for _, col := range RequiredOnCreate {
		v, _ := f.Get(col)
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return Fields{}, &ValidationError{Msg: strings.Join(RequiredOnCreate, ", ") + " are required"}
		}
	}
	return f, nil
}

func convertValue(col string, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if IntegerColumns[col] {
		return toInt(col, raw)
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return nil, &ValidationError{Msg: fmt.Sprintf("invalid value for %s", col)}
}

func toInt(col string, raw any) (any, error) {
	var s string
	switch v := raw.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	return nil, &ValidationError{Msg: fmt.Sprintf("%s must be an integer", col)}
}
