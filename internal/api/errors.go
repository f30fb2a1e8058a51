package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response. Fields holds per-field messages keyed by
// field path; Form holds messages not tied to a field.
type ServerError struct {
	Status int
	Body   string
	Fields map[string][]string
	Form   []string
}

func (e *ServerError) Error() string {
	var parts []string
	parts = append(parts, e.Form...)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	if len(parts) == 0 {
		body := truncateRunes(strings.TrimSpace(e.Body), maxBodyRunes)
		if body == "" {
			return fmt.Sprintf("server returned status %d", e.Status)
		}
		return fmt.Sprintf("server returned status %d: %s", e.Status, body)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, strings.Join(parts, ", "))
}

// maxBodyRunes limits how much of an unparsed body Error includes. The full
// body stays in Body.
const maxBodyRunes = 200

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// formKeys carry form-level messages in error bodies.
var formKeys = map[string]bool{
	"detail":           true,
	"non_field_errors": true,
	"error":            true,
	"message":          true,
}

func newServerError(status int, body []byte) *ServerError {
	e := &ServerError{Status: status, Body: string(body)}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	fields := map[string][]string{}
	for key, raw := range payload {
		collectMessages(key, raw, func(path string, msgs []string) {
			if formKeys[path] {
				e.Form = append(e.Form, msgs...)
				return
			}
			fields[path] = append(fields[path], msgs...)
		})
	}
	if len(fields) > 0 {
		e.Fields = fields
	}
	e.Form = normalizeMessages(e.Form)
	sort.Strings(e.Form)
	return e
}

// collectMessages flattens nested error payloads like
// {"cloud_commands": [{"model": ["required"]}]} into dotted field paths.
func collectMessages(path string, raw json.RawMessage, emit func(string, []string)) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if msgs := normalizeMessages([]string{s}); len(msgs) > 0 {
			emit(path, msgs)
		}
		return
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var strs []string
		for i, item := range list {
			var m string
			if err := json.Unmarshal(item, &m); err == nil {
				strs = append(strs, m)
				continue
			}
			collectMessages(fmt.Sprintf("%s[%d]", path, i), item, emit)
		}
		if msgs := normalizeMessages(strs); len(msgs) > 0 {
			emit(path, msgs)
		}
		return
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for k, v := range obj {
			collectMessages(path+"."+k, v, emit)
		}
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
