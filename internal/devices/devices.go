// Package devices holds the device-model registry used to check that command
// sets target approved hardware.
package devices

import (
	"sort"
	"strings"

	"github.com/recipeserver/cloudcmd/internal/registry"
)

// Model statuses reported by the server.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Model is a device model as listed by the server.
type Model struct {
	ID         int64  `json:"id"`
	Identifier string `json:"model_identifier"`
	Name       string `json:"name"`
	Status     string `json:"status"`
}

// IsApproved reports whether the model may receive command sets.
func (m Model) IsApproved() bool { return m.Status == StatusApproved }

// Approved returns the approved models in input order.
func Approved(models []Model) []Model {
	var out []Model
	for _, m := range models {
		if m.IsApproved() {
			out = append(out, m)
		}
	}
	return out
}

// Match returns models whose identifier or name fuzzy-matches query,
// exact identifier matches first.
func Match(models []Model, query string) []Model {
	query = strings.TrimSpace(query)
	var out []Model
	for _, m := range models {
		if registry.FuzzyMatch(m.Identifier, query) || registry.FuzzyMatch(m.Name, query) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.EqualFold(out[i].Identifier, query) && !strings.EqualFold(out[j].Identifier, query)
	})
	return out
}

// Checker answers approval queries from a fixed model list.
type Checker struct {
	approved map[string]bool
}

// NewChecker builds a Checker over models.
func NewChecker(models []Model) *Checker {
	c := &Checker{approved: map[string]bool{}}
	for _, m := range Approved(models) {
		c.approved[strings.TrimSpace(m.Identifier)] = true
	}
	return c
}

// IsApproved reports whether model is a known approved identifier.
func (c *Checker) IsApproved(model string) bool {
	return c.approved[strings.TrimSpace(model)]
}
