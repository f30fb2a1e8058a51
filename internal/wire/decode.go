package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/recipeserver/cloudcmd/internal/commandset"
)

// ParseError reports cloud_commands data that matches neither accepted shape.
type ParseError struct {
	Source string
	// Index is the offending array element, or -1 for the document itself.
	Index   int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	src := e.Source
	if src == "" {
		src = "cloud_commands"
	}
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("%s[%d]: %s", src, e.Index, msg)
	}
	return fmt.Sprintf("%s: %s", src, msg)
}

// Unwrap returns the underlying decode error, if any.
func (e *ParseError) Unwrap() error { return e.Err }

// Decode parses cloud_commands data into command sets. A bare object is
// treated as a one-element array. Blank and null input decode to no sets.
func Decode(data []byte) ([]commandset.CommandSet, error) {
	elems, err := DecodeElements(data)
	if err != nil {
		return nil, err
	}
	return toCommandSets(elems), nil
}

func toCommandSets(elems []Element) []commandset.CommandSet {
	if len(elems) == 0 {
		return nil
	}
	out := make([]commandset.CommandSet, 0, len(elems))
	for _, e := range elems {
		out = append(out, e.ToCommandSet())
	}
	return out
}

// DecodeElements parses data into tagged elements without converting them.
func DecodeElements(data []byte) ([]Element, error) {
	return decodeElements(data, true)
}

func decodeElements(data []byte, allowString bool) ([]Element, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, &ParseError{Index: -1, Message: "invalid array", Err: err}
		}
		out := make([]Element, 0, len(raws))
		for i, raw := range raws {
			e, err := decodeElement(raw, i)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	case '{':
		e, err := decodeElement(trimmed, -1)
		if err != nil {
			return nil, err
		}
		return []Element{e}, nil
	case '"':
		// multipart submissions store the payload as a JSON string field
		if !allowString {
			break
		}
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, &ParseError{Index: -1, Message: "invalid string", Err: err}
		}
		return decodeElements([]byte(inner), false)
	}
	return nil, &ParseError{Index: -1, Message: "expected an array or an object with a model field"}
}

func decodeElement(raw json.RawMessage, idx int) (Element, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Element{}, &ParseError{Index: idx, Message: "expected an object", Err: err}
	}
	if fields == nil {
		return Element{}, &ParseError{Index: idx, Message: "expected an object"}
	}
	if _, ok := fields["model"]; !ok {
		return Element{}, &ParseError{Index: idx, Message: "missing model field"}
	}
	_, hasCommands := fields["commands"]
	_, hasSteps := fields["steps"]
	switch {
	case hasCommands && hasSteps:
		return Element{}, &ParseError{Index: idx, Message: "both commands and steps present"}
	case hasCommands:
		var ls LegacySet
		if err := json.Unmarshal(raw, &ls); err != nil {
			return Element{}, &ParseError{Index: idx, Message: "invalid legacy command set", Err: err}
		}
		return Element{Format: FormatLegacy, Legacy: &ls}, nil
	case hasSteps:
		cs := CommandSet{HexCommand: DefaultHexCommand}
		if err := json.Unmarshal(raw, &cs); err != nil {
			return Element{}, &ParseError{Index: idx, Message: "invalid command set", Err: err}
		}
		return Element{Format: FormatCurrent, Current: &cs}, nil
	default:
		return Element{}, &ParseError{Index: idx, Message: "neither commands nor steps present"}
	}
}

// LoadForEdit decodes data for editing. It never fails: malformed data yields
// no sets and the parse error as a warning for the caller to surface.
func LoadForEdit(data []byte) ([]commandset.CommandSet, *ParseError) {
	sets, err := Decode(data)
	if err != nil {
		pe, ok := err.(*ParseError)
		if !ok {
			pe = &ParseError{Index: -1, Message: "decode", Err: err}
		}
		return nil, pe
	}
	return sets, nil
}
