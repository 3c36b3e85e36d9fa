package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/joseph-ayodele/cim-extractor/constants"
)

// ParseErrorKind classifies why a model reply could not be turned into an
// extraction result.
type ParseErrorKind string

const (
	EmptyReply    ParseErrorKind = "EMPTY_REPLY"
	NoJSONFound   ParseErrorKind = "NO_JSON_FOUND"
	MalformedJSON ParseErrorKind = "MALFORMED_JSON"
	NotAnObject   ParseErrorKind = "NOT_AN_OBJECT"
)

// snippetLimit caps the diagnostic excerpt carried on a parse error.
const snippetLimit = 500

// ParseError is fatal to the run: no partial extraction is trusted. Snippet
// holds the first part of the text the parser attempted, for inspection.
type ParseError struct {
	Kind    ParseErrorKind
	Detail  string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrNoFinancialData is the legitimate empty-result outcome: the model
// followed its contract and reported that the document holds no financial
// data. It is distinct from every parse failure.
var ErrNoFinancialData = errors.New("no financial data found")

// ParseOptions tune tolerance. Repair runs github.com/RealAlexandreAI/json-repair
// over text that failed strict decoding before giving up; the strict error is
// still the one surfaced when repair cannot help.
type ParseOptions struct {
	Repair bool
}

// ParseResponse extracts the JSON object from a free-form model reply.
//
// Fenced ```json blocks win over generic fences; with no fence the outermost
// {...} span of the reply is used. The empty-result sentinel yields
// ErrNoFinancialData. Everything else surfaces as a *ParseError.
func ParseResponse(raw string, opts ParseOptions) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &ParseError{Kind: EmptyReply, Detail: "model reply is empty"}
	}

	body, err := extractJSONBody(trimmed)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, &ParseError{Kind: NoJSONFound, Detail: "extracted block is empty", Snippet: snippet(trimmed)}
	}

	var v any
	if uerr := json.Unmarshal([]byte(body), &v); uerr != nil {
		if opts.Repair {
			if fixed, rerr := jsonrepair.RepairJSON(body); rerr == nil {
				if json.Unmarshal([]byte(fixed), &v) == nil {
					return asObject(v, body)
				}
			}
		}
		return nil, &ParseError{
			Kind:    MalformedJSON,
			Detail:  "reply is not valid JSON",
			Snippet: snippet(body),
			Err:     uerr,
		}
	}
	return asObject(v, body)
}

func asObject(v any, body string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{
			Kind:    NotAnObject,
			Detail:  fmt.Sprintf("parsed value is %T, expected an object", v),
			Snippet: snippet(body),
		}
	}
	if isNoDataSentinel(obj) {
		return nil, ErrNoFinancialData
	}
	return obj, nil
}

// isNoDataSentinel matches {"error": "No financial data found"} exactly.
func isNoDataSentinel(obj map[string]any) bool {
	if len(obj) != 1 {
		return false
	}
	s, ok := obj["error"].(string)
	return ok && s == constants.NoDataSentinel
}

// extractJSONBody picks the JSON candidate out of the reply:
// first ```json fence, else first generic fence, else the outermost brace
// span. A reply with no fence and no brace has no JSON to find.
func extractJSONBody(reply string) (string, error) {
	if body, found, err := fencedBlock(reply, "```json"); err != nil {
		return "", err
	} else if found {
		return body, nil
	}
	if body, found, _ := fencedBlock(reply, "```"); found {
		return body, nil
	}
	start := strings.Index(reply, "{")
	if start < 0 {
		return "", &ParseError{Kind: NoJSONFound, Detail: "no JSON object in reply", Snippet: snippet(reply)}
	}
	end := strings.LastIndex(reply, "}")
	if end < start {
		return "", &ParseError{Kind: NoJSONFound, Detail: "unterminated JSON object in reply", Snippet: snippet(reply)}
	}
	return reply[start : end+1], nil
}

// fencedBlock returns the interior of the first fence opened by marker.
// A ```json opener with no closing fence is a hard failure; a generic
// opener without one tolerantly yields the rest of the reply.
func fencedBlock(reply, marker string) (string, bool, error) {
	idx := strings.Index(reply, marker)
	if idx < 0 {
		return "", false, nil
	}
	rest := reply[idx+len(marker):]
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		if marker == "```json" {
			return "", false, &ParseError{
				Kind:    NoJSONFound,
				Detail:  "json fence is never closed",
				Snippet: snippet(reply),
			}
		}
		return rest, true, nil
	}
	return rest[:end], true, nil
}

func snippet(s string) string {
	if len(s) > snippetLimit {
		return s[:snippetLimit]
	}
	return s
}
