package runner_test

import (
	"testing"

	"github.com/programme-lv/harness/internal/fixture"
	"github.com/programme-lv/harness/internal/runner"
	"github.com/stretchr/testify/require"
)

func names(fixtures []fixture.Fixture) []string {
	var out []string
	for _, f := range fixtures {
		out = append(out, f.Name)
	}
	return out
}

func TestFilter(t *testing.T) {
	fixtures := []fixture.Fixture{
		{Name: "simple", Tags: []string{"python", "traceback"}},
		{Name: "hello", Tags: []string{"smoke"}},
		{Name: "complex", Tags: []string{"python"}},
		{Name: "untagged"},
	}

	tests := []struct {
		name   string
		filter runner.Filter
		want   []string
	}{
		{"everything", runner.Filter{}, []string{"simple", "hello", "complex", "untagged"}},
		{"by tag", runner.Filter{Tags: []string{"python"}}, []string{"simple", "complex"}},
		{"any of tags", runner.Filter{Tags: []string{"smoke", "traceback"}}, []string{"simple", "hello"}},
		{"by name keeps declaration order", runner.Filter{Only: []string{"complex", "hello"}}, []string{"hello", "complex"}},
		{"name and tag", runner.Filter{Only: []string{"complex", "hello"}, Tags: []string{"python"}}, []string{"complex"}},
		{"no match", runner.Filter{Tags: []string{"nothing"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.Select(fixtures)
			require.NoError(t, err)
			require.Equal(t, tt.want, names(got))
		})
	}
}

func TestFilterUnknownName(t *testing.T) {
	_, err := runner.Filter{Only: []string{"hello", "zzz", "aaa"}}.Select([]fixture.Fixture{{Name: "hello"}})
	require.ErrorContains(t, err, "unknown fixture(s): [aaa zzz]")
}
