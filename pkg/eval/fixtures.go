// Package eval checks the rendered operation queries against JSON fixtures,
// so template edits that change what the reasoning engine sees are caught.
package eval

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/wilhg/designgate/pkg/gateway"
	"github.com/wilhg/designgate/pkg/prompt"
)

// Fixture is one operation rendering case.
type Fixture struct {
	Name      string      `json:"name"`
	Operation string      `json:"operation"`
	Argument  string      `json:"argument"`
	Expect    Expectation `json:"expect"`
}

type Expectation struct {
	Equals      string   `json:"equals,omitempty"`
	Contains    []string `json:"contains,omitempty"`
	NotContains []string `json:"not_contains,omitempty"`
}

// Report summarizes a fixture run. Score is Passed/Total, or 1 with no fixtures.
type Report struct {
	Total   int
	Passed  int
	Score   float64
	Details []string
}

// EvaluateOperations loads *.json fixtures from dir and renders each through
// the operation's template in c.
func EvaluateOperations(fsys fs.FS, dir string, c *prompt.Catalog) (Report, error) {
	fixtures, err := loadFixtures(fsys, dir)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Total: len(fixtures), Score: 1}
	if rep.Total == 0 {
		return rep, nil
	}
	for _, fx := range fixtures {
		problems := check(fx, c)
		if len(problems) == 0 {
			rep.Passed++
			continue
		}
		for _, p := range problems {
			rep.Details = append(rep.Details, fx.Name+": "+p)
		}
	}
	rep.Score = float64(rep.Passed) / float64(rep.Total)
	return rep, nil
}

func check(fx Fixture, c *prompt.Catalog) []string {
	op, ok := gateway.Lookup(fx.Operation)
	if !ok {
		return []string{"unknown operation " + fx.Operation}
	}
	out, err := c.Render(op.Prompt, map[string]string{op.Argument: fx.Argument})
	if err != nil {
		return []string{"render error: " + err.Error()}
	}
	var problems []string
	if fx.Expect.Equals != "" && out != fx.Expect.Equals {
		problems = append(problems, fmt.Sprintf("got %q, want %q", out, fx.Expect.Equals))
	}
	for _, s := range fx.Expect.Contains {
		if !strings.Contains(out, s) {
			problems = append(problems, "missing contains: "+s)
		}
	}
	for _, s := range fx.Expect.NotContains {
		if strings.Contains(out, s) {
			problems = append(problems, "unexpected contains: "+s)
		}
	}
	return problems
}

func loadFixtures(fsys fs.FS, dir string) ([]Fixture, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var out []Fixture
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var fx Fixture
		if err := json.Unmarshal(b, &fx); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if fx.Name == "" {
			fx.Name = strings.TrimSuffix(e.Name(), ".json")
		}
		out = append(out, fx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
