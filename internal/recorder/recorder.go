// Package recorder captures step descriptions typed or piped on stdin.
package recorder

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/registry"
)

// RecordSteps reads lines from r until EOF and returns non-empty, non-comment
// lines as step descriptions. Lines starting with '#' are ignored.
func RecordSteps(r io.Reader) ([]string, error) {
	s := bufio.NewScanner(r)
	var out []string
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	return out, nil
}

// SaveRecorded appends descriptions as new steps to model's set in the named
// draft, creating the set if the draft does not hold it yet.
func SaveRecorded(repo *registry.Repository, draft, model string, descriptions []string) (commandset.Session, error) {
	d, err := repo.MustGetDraft(draft)
	if err != nil {
		return commandset.Session{}, err
	}
	s := d.Session()
	var actions []commandset.Action
	if s.Find(strings.TrimSpace(model)) < 0 {
		actions = append(actions, commandset.AddSet{Model: model})
	}
	for _, desc := range descriptions {
		actions = append(actions, commandset.AddStep{Model: model, After: -1, Description: desc})
	}
	next, err := commandset.ReduceAll(s, actions...)
	if err != nil {
		return s, err
	}
	if err := repo.SaveDraft(d.ID, next); err != nil {
		return s, err
	}
	return next, nil
}
