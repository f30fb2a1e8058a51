// Package importer creates drafts from cloud command files.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/registry"
	"github.com/recipeserver/cloudcmd/internal/wire"
)

// Result describes an imported draft.
type Result struct {
	Name string
	ID   int64
	Sets int
}

func ensureUniqueName(repo *registry.Repository, orig string) (string, error) {
	name := orig
	si := 1
	for {
		d, err := repo.GetDraftByName(name)
		if err != nil {
			return "", err
		}
		if d == nil {
			return name, nil
		}
		name = fmt.Sprintf("%s-import-%d", orig, si)
		si++
	}
}

// NameFromPath derives a draft name from a file name.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImportFile reads a JSON or YAML file in either wire format and stores it as
// a new draft. Name collisions get an -import-N suffix. An empty name uses the
// file name.
func ImportFile(repo *registry.Repository, path, name string, maxSets int) (Result, error) {
	sets, err := wire.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = NameFromPath(path)
	}
	return ImportSets(repo, sets, name, maxSets, nil)
}

// ImportSets stores sets as a new draft. A non-nil recipeID links the draft
// to an existing server recipe.
func ImportSets(repo *registry.Repository, sets []commandset.CommandSet, name string, maxSets int, recipeID *string) (Result, error) {
	uName, err := ensureUniqueName(repo, strings.TrimSpace(name))
	if err != nil {
		return Result{}, err
	}
	s := commandset.Load(sets, maxSets)
	id, err := repo.CreateDraft(uName, recipeID, s)
	if err != nil {
		return Result{}, err
	}
	return Result{Name: uName, ID: id, Sets: len(sets)}, nil
}
