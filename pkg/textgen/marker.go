package textgen

import "strings"

// ErrorPrefix marks generated text that is really a failure description.
// Downstream consumers, the extractor included, check for it instead of a
// separate error value.
const ErrorPrefix = "Error: "

// ErrorText renders err as marked error text.
func ErrorText(err error) string {
	return ErrorPrefix + err.Error()
}

// IsErrorText reports whether s carries the error marker.
func IsErrorText(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), strings.TrimSpace(ErrorPrefix))
}
