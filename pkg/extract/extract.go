// Package extract recovers structured records from free-form model output.
//
// Model answers that are supposed to be JSON often arrive wrapped in prose
// or a fenced code block, or written with Python-style literals. Parse
// locates the object span, tries a strict decode, and falls back to one
// repair pass. ParseRecord collapses the outcome to a record or a default,
// and ParseRecordWithRetry re-runs generation a bounded number of times.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shanemcd/alchemy/pkg/textgen"
)

// Record is a decoded JSON object. Values are string, bool, nil, []any,
// map[string]any or a number. Integers that fit are int64, other numbers
// are float64, and integers beyond int64 stay json.Number so no digits are
// lost.
type Record = map[string]any

// Stage names the step at which parsing gave up.
type Stage string

const (
	StageEmpty       Stage = "empty"        // input was blank
	StageErrorMarker Stage = "error_marker" // input was marked generation error text
	StageNoObject    Stage = "no_object"    // no {...} span
	StageRepair      Stage = "repair"       // strict and repaired decodes both failed
)

// ParseFailure describes why text could not be turned into a Record.
type ParseFailure struct {
	Stage Stage
	Err   error
}

func (e *ParseFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse record: %s", e.Stage)
	}
	return fmt.Sprintf("parse record: %s: %v", e.Stage, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

var errNoObject = errors.New("no JSON object found")

// Parse extracts the JSON object embedded in raw.
//
// The object is taken to span from the first '{' to the last '}' after any
// enclosing code fence is removed. Trailing prose that itself contains a
// closing brace defeats this.
func Parse(raw string) (Record, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &ParseFailure{Stage: StageEmpty}
	}
	if textgen.IsErrorText(text) {
		return nil, &ParseFailure{Stage: StageErrorMarker, Err: errors.New(text)}
	}

	text = StripFences(text)

	span, ok := objectSpan(text)
	if !ok {
		return nil, &ParseFailure{Stage: StageNoObject, Err: errNoObject}
	}

	rec, strictErr := decode(span)
	if strictErr == nil {
		return rec, nil
	}

	rec, repairErr := decode(repair(span))
	if repairErr == nil {
		return rec, nil
	}
	return nil, &ParseFailure{
		Stage: StageRepair,
		Err:   fmt.Errorf("strict: %v; repaired: %w", strictErr, repairErr),
	}
}

// ParseRecord is Parse with failures collapsed to def, or to an empty
// Record when def is nil. Failures are logged, never returned.
func ParseRecord(raw string, def Record) Record {
	rec, err := Parse(raw)
	if err == nil {
		return rec
	}

	logFailure(slog.Default(), err, raw)
	if def == nil {
		return Record{}
	}
	return def
}

// StripFences removes a ``` or ```json fence enclosing text.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, "```json"); ok {
		text = rest
	} else if rest, ok := strings.CutPrefix(text, "```"); ok {
		text = rest
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func objectSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func decode(span string) (Record, error) {
	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rest := strings.TrimSpace(span[dec.InputOffset():]); rest != "" {
		return nil, fmt.Errorf("unexpected data after object: %.20q", rest)
	}
	if rec == nil {
		return nil, errNoObject
	}
	for k, v := range rec {
		rec[k] = convertNumbers(v)
	}
	return rec, nil
}

// convertNumbers replaces the json.Number values in v with int64 or float64.
// Integers too large for int64 keep their json.Number form.
func convertNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if !strings.ContainsAny(v.String(), ".eE") {
			return v
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v
	case map[string]any:
		for k, item := range v {
			v[k] = convertNumbers(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = convertNumbers(item)
		}
		return v
	default:
		return v
	}
}

func logFailure(logger *slog.Logger, err error, raw string) {
	var pf *ParseFailure
	if errors.As(err, &pf) {
		logger.Warn("structured output parse failed", "stage", pf.Stage, "err", pf.Err)
	} else {
		logger.Warn("structured output parse failed", "err", err)
	}
	logger.Debug("unparsed output", "raw", raw)
}
