// Package schema validates the shape of JSON documents before any value is
// extracted from them. Its single production use is turning the exchange's
// "list symbols" response into the dynamic symbols whitelist, but it works
// for any response that is a flat JSON array of strings.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

var (
	// ErrParse marks input that is not well formed JSON
	ErrParse = errors.New("malformed JSON document")
	// ErrSchemaViolation marks well formed input whose shape does not match
	// the declared schema
	ErrSchemaViolation = errors.New("document violates schema")
	// ErrSchemaUnresolvable marks a schema reference that cannot be resolved
	// or does not declare a flat array of strings
	ErrSchemaUnresolvable = errors.New("cannot resolve schema reference")
)

// Resolver supplies schema documents for $ref style references. The lookup
// mechanism is pluggable; the extractor only cares about the bytes.
type Resolver interface {
	Resolve(uri string) ([]byte, error)
}

// StaticResolver resolves references from an in-memory map of URI to schema
// document
type StaticResolver map[string][]byte

// Resolve implements Resolver
func (s StaticResolver) Resolve(uri string) ([]byte, error) {
	doc, ok := s[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %q not registered", ErrSchemaUnresolvable, uri)
	}
	return doc, nil
}

// Validation runs an explicit finite-state machine over the document's
// events. Transitions outside the table fail hard with no partial output:
//
//	expectArrayStart --[array start]--> expectValueOrEnd
//	expectValueOrEnd --[string value]--> expectValueOrEnd
//	expectValueOrEnd --[array end]--> done
type state uint8

const (
	expectArrayStart state = iota
	expectValueOrEnd
	done
)

func (s state) String() string {
	switch s {
	case expectArrayStart:
		return "expect-array-start"
	case expectValueOrEnd:
		return "expect-value-or-end"
	case done:
		return "done"
	}
	return "invalid"
}

type event uint8

const (
	evArrayStart event = iota
	evStringValue
	evArrayEnd
)

func (e event) String() string {
	switch e {
	case evArrayStart:
		return "array start"
	case evStringValue:
		return "string value"
	case evArrayEnd:
		return "array end"
	}
	return "invalid event"
}

// transition advances the machine or reports the offending event and the
// byte offset it occurred at
func (s *state) transition(ev event, offset int) error {
	switch {
	case *s == expectArrayStart && ev == evArrayStart:
		*s = expectValueOrEnd
	case *s == expectValueOrEnd && ev == evStringValue:
		// stay, collect
	case *s == expectValueOrEnd && ev == evArrayEnd:
		*s = done
	default:
		return fmt.Errorf("%w: %s in state %s at offset %d",
			ErrSchemaViolation, ev, *s, offset)
	}
	return nil
}

// ExtractStringSet parses jsonText against the schema named by ref and
// returns the set of strings it contains, duplicates collapsed. ref has the
// form "document-uri#/pointer/path"; the referenced schema fragment must
// itself declare an array of strings. On any failure the returned set is nil
// and no caller-visible state has been touched.
func ExtractStringSet(jsonText []byte, ref string, resolver Resolver) (map[string]struct{}, error) {
	if err := checkSchemaRef(ref, resolver); err != nil {
		return nil, err
	}

	doc := bytes.TrimSpace(jsonText)
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}

	st := expectArrayStart
	if doc[0] != '[' {
		kind := leadingTokenKind(doc[0])
		if kind == "" {
			return nil, fmt.Errorf("%w: unexpected byte %q at offset 0", ErrParse, doc[0])
		}
		return nil, fmt.Errorf("%w: %s in state %s at offset 0",
			ErrSchemaViolation, kind, st)
	}
	if err := st.transition(evArrayStart, 0); err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	var failure error
	end, err := jsonparser.ArrayEach(doc, func(value []byte, dataType jsonparser.ValueType, offset int, cbErr error) {
		if failure != nil {
			return
		}
		if cbErr != nil {
			failure = fmt.Errorf("%w: %v", ErrParse, cbErr)
			return
		}
		if dataType != jsonparser.String {
			failure = fmt.Errorf("%w: expected string, found %s at offset %d",
				ErrSchemaViolation, dataType, offset)
			return
		}
		if failure = st.transition(evStringValue, offset); failure != nil {
			return
		}
		s, parseErr := jsonparser.ParseString(value)
		if parseErr != nil {
			failure = fmt.Errorf("%w: %v", ErrParse, parseErr)
			return
		}
		set[s] = struct{}{}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if failure != nil {
		return nil, failure
	}

	if err := st.transition(evArrayEnd, end); err != nil {
		return nil, err
	}
	if tail := bytes.TrimSpace(doc[end:]); len(tail) > 0 && !bytes.Equal(tail, []byte("]")) {
		return nil, fmt.Errorf("%w: trailing content at offset %d", ErrParse, end)
	}
	return set, nil
}

// checkSchemaRef resolves ref and asserts the referenced fragment declares a
// flat array of strings
func checkSchemaRef(ref string, resolver Resolver) error {
	if resolver == nil {
		return fmt.Errorf("%w: nil resolver", ErrSchemaUnresolvable)
	}
	uri, fragment, _ := strings.Cut(ref, "#")
	doc, err := resolver.Resolve(uri)
	if err != nil {
		return err
	}

	node := doc
	if fragment != "" {
		keys := strings.Split(strings.Trim(fragment, "/"), "/")
		node, _, _, err = jsonparser.Get(doc, keys...)
		if err != nil {
			return fmt.Errorf("%w: fragment %q: %v", ErrSchemaUnresolvable, fragment, err)
		}
	}

	outer, err := jsonparser.GetString(node, "type")
	if err != nil || outer != "array" {
		return fmt.Errorf("%w: schema %q does not declare an array", ErrSchemaUnresolvable, ref)
	}
	inner, err := jsonparser.GetString(node, "items", "type")
	if err != nil || inner != "string" {
		return fmt.Errorf("%w: schema %q does not declare string items", ErrSchemaUnresolvable, ref)
	}
	return nil
}

// leadingTokenKind names the JSON token a byte opens, for diagnostics
func leadingTokenKind(b byte) string {
	switch {
	case b == '{':
		return "object"
	case b == '"':
		return "string"
	case b == 't' || b == 'f':
		return "boolean"
	case b == 'n':
		return "null"
	case b == '-' || (b >= '0' && b <= '9'):
		return "number"
	default:
		return ""
	}
}
