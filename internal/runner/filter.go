package runner

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/programme-lv/harness/internal/fixture"
)

// Filter narrows a fixture list. Empty fields select everything.
type Filter struct {
	Only []string
	Tags []string
}

// Select keeps declaration order. Naming a fixture that does not exist is an
// error rather than an empty selection.
func (flt Filter) Select(fixtures []fixture.Fixture) ([]fixture.Fixture, error) {
	only := mapset.NewSet(flt.Only...)
	tags := mapset.NewSet(flt.Tags...)

	names := mapset.NewSet[string]()
	for _, f := range fixtures {
		names.Add(f.Name)
	}
	if unknown := only.Difference(names); unknown.Cardinality() > 0 {
		missing := unknown.ToSlice()
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown fixture(s): %v", missing)
	}

	var selected []fixture.Fixture
	for _, f := range fixtures {
		if only.Cardinality() > 0 && !only.Contains(f.Name) {
			continue
		}
		if tags.Cardinality() > 0 && tags.Intersect(mapset.NewSet(f.Tags...)).Cardinality() == 0 {
			continue
		}
		selected = append(selected, f)
	}
	return selected, nil
}
