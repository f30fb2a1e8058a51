// Package registry stores local drafts of recipe cloud commands.
package registry

import (
	"database/sql"

	"github.com/recipeserver/cloudcmd/internal/commandset"
)

// Draft is a named, locally persisted editing session.
type Draft struct {
	ID   int64
	Name string
	// RecipeID is the server recipe this draft edits; empty for new recipes.
	RecipeID       sql.NullString
	MaxCommandSets int
	CreatedAt      string
	UpdatedAt      sql.NullString
	Sets           []commandset.CommandSet
}

// Session returns the draft's editing state.
func (d *Draft) Session() commandset.Session {
	return commandset.Load(d.Sets, d.MaxCommandSets)
}

// StepCount returns the number of steps across all sets.
func (d *Draft) StepCount() int {
	n := 0
	for _, cs := range d.Sets {
		n += len(cs.Steps)
	}
	return n
}
