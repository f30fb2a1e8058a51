package registry

import (
	"testing"

	"github.com/recipeserver/cloudcmd/internal/commandset"
)

func TestFuzzyMatch(t *testing.T) {
	cases := []struct {
		target, query string
		want          bool
	}{
		{"SuperCooker-X1", "", true},
		{"SuperCooker-X1", "cooker", true},
		{"SuperCooker-X1", "scx1", true},
		{"SuperCooker-X1", "x2", false},
		{"heat: 180C", "HEAT", true},
	}
	for _, c := range cases {
		if got := FuzzyMatch(c.target, c.query); got != c.want {
			t.Fatalf("FuzzyMatch(%q, %q) = %v", c.target, c.query, got)
		}
	}
}

func TestFuzzySearchDrafts(t *testing.T) {
	r := setupRepo(t)
	if _, err := r.CreateDraft("bread", nil, heatWait(t)); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	other := commandset.Load([]commandset.CommandSet{{DeviceModel: "Oven-9"}}, 1)
	if _, err := r.CreateDraft("pizza", nil, other); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	res, err := r.FuzzySearchDrafts("wait")
	if err != nil {
		t.Fatalf("FuzzySearchDrafts: %v", err)
	}
	if len(res) != 1 || res[0].Name != "bread" {
		t.Fatalf("unexpected result %+v", res)
	}
	res, _ = r.FuzzySearchDrafts("oven")
	if len(res) != 1 || res[0].Name != "pizza" {
		t.Fatalf("unexpected result %+v", res)
	}
}
