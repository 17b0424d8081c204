package db

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

const unicodeLowerFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(unicodeLowerFunc, 1, unicodeLower)
}

// unicodeLower is LOWER with full Unicode case folding. NULL stays NULL and
// non-text values pass through unchanged.
func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}
