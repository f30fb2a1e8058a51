package registry

import "strings"

// FuzzyMatch returns true if query fuzzy-matches target.
// Matching is case-insensitive and succeeds on substring match or if
// the query characters appear as a subsequence in the target.
func FuzzyMatch(target, query string) bool {
	if query == "" {
		return true
	}
	t := strings.ToLower(target)
	q := strings.ToLower(query)
	if strings.Contains(t, q) {
		return true
	}
	qr := []rune(q)
	i := 0
	for _, ch := range t {
		if qr[i] == ch {
			i++
			if i == len(qr) {
				return true
			}
		}
	}
	return false
}

func fuzzyMatchesDraft(d *Draft, query string) bool {
	if FuzzyMatch(d.Name, query) {
		return true
	}
	for _, cs := range d.Sets {
		if FuzzyMatch(cs.DeviceModel, query) {
			return true
		}
		for _, s := range cs.Steps {
			if FuzzyMatch(s.Description, query) {
				return true
			}
		}
	}
	return false
}

// FuzzySearchDrafts returns drafts whose name, device models, or step
// descriptions fuzzy-match query.
func (r *Repository) FuzzySearchDrafts(query string) ([]Draft, error) {
	drafts, err := r.ListDrafts()
	if err != nil {
		return nil, err
	}
	var out []Draft
	for _, s := range drafts {
		d, err := r.GetDraftByName(s.Name)
		if err != nil {
			return nil, err
		}
		if d != nil && fuzzyMatchesDraft(d, query) {
			out = append(out, *d)
		}
	}
	return out, nil
}
