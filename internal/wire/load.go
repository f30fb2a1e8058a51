package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/recipeserver/cloudcmd/internal/commandset"
)

// DecodeDocument decodes a standalone file body. Besides the shapes Decode
// accepts it unwraps a {"cloud_commands": ...} envelope, as written by export.
func DecodeDocument(data []byte) ([]commandset.CommandSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err == nil {
			if inner, ok := fields["cloud_commands"]; ok {
				if _, hasModel := fields["model"]; !hasModel {
					return Decode(inner)
				}
			}
		}
	}
	return Decode(trimmed)
}

// YAMLToJSON converts a YAML document with the cloud_commands shape to JSON.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Index: -1, Message: "invalid yaml", Err: err}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, &ParseError{Index: -1, Message: "unsupported yaml value", Err: err}
	}
	return out, nil
}

// ReadFile loads command sets from a JSON or YAML file, picked by extension.
func ReadFile(path string) ([]commandset.CommandSet, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user supplied input file
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = YAMLToJSON(data); err != nil {
			return nil, withSource(err, path)
		}
	}
	sets, err := DecodeDocument(data)
	if err != nil {
		return nil, withSource(err, path)
	}
	return sets, nil
}

func withSource(err error, src string) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Source = src
		return pe
	}
	return err
}
