package store

import (
	"encoding/json"
	"strings"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// int64sToArgs converts []int64 to []any for use with database/sql.
func int64sToArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// marshalProperties converts diagnostic properties to JSON text for storage.
func marshalProperties(props map[string]string) string {
	if len(props) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(props)
	return string(b)
}

// unmarshalProperties converts JSON text back to a property map. Empty
// objects come back as nil.
func unmarshalProperties(s string) map[string]string {
	if s == "" || s == "null" || s == "{}" {
		return nil
	}
	var props map[string]string
	_ = json.Unmarshal([]byte(s), &props)
	return props
}
