package agent

import (
	"context"
	"testing"
)

func named(names ...string) ToolSet {
	out := make(ToolSet, 0, len(names))
	for _, n := range names {
		out = append(out, FuncTool{
			Descriptor: ToolDescriptor{Name: n, Description: n + " tool"},
			Fn:         func(context.Context, map[string]any) (string, error) { return n, nil },
		})
	}
	return out
}

func TestDescribeTool(t *testing.T) {
	d := DescribeTool(named("echo")[0])
	if d.Name != "echo" || d.Description != "echo tool" {
		t.Fatalf("descriptor=%+v", d)
	}
	if DescribeTool(nil).Name != "" {
		t.Fatal("nil tool should describe as empty")
	}
}

func TestToolSet_LookupAndSpecs(t *testing.T) {
	set := named("search_items", "get_factsheet")
	set[0] = FuncTool{Descriptor: ToolDescriptor{Name: "search_items", InputSchema: []byte(`{"type":"object"}`)}}

	if _, ok := set.Lookup("get_factsheet"); !ok {
		t.Fatal("lookup failed")
	}
	if _, ok := set.Lookup("GET_FACTSHEET"); ok {
		t.Fatal("lookup must be exact")
	}
	specs := set.Specs()
	if len(specs) != 2 || specs[0].Name != "search_items" || string(specs[0].Parameters) != `{"type":"object"}` {
		t.Fatalf("specs=%+v", specs)
	}
	if specs[1].Parameters != nil {
		t.Fatalf("missing schema should stay nil, got %s", specs[1].Parameters)
	}
}

func TestToolReportedError(t *testing.T) {
	e := &ToolReportedError{Tool: "x", Message: "not found"}
	if e.Error() != "not found" {
		t.Fatalf("error=%q", e.Error())
	}
	if (&ToolReportedError{Tool: "x"}).Error() != "tool x reported an error" {
		t.Fatal("default message wrong")
	}
}
