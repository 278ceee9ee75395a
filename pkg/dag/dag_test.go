package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestIsAcyclic(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
		want  bool
	}{
		{"empty", nil, true},
		{"chain", []Edge{{"a", "b"}, {"b", "c"}}, true},
		{"diamond", []Edge{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}, true},
		{"parallel", []Edge{{"a", "b"}, {"a", "b"}}, true},
		{"self loop", []Edge{{"a", "a"}}, false},
		{"two cycle", []Edge{{"a", "b"}, {"b", "a"}}, false},
		{"cycle behind chain", []Edge{{"x", "a"}, {"a", "b"}, {"b", "c"}, {"c", "a"}}, false},
		{"empty endpoints skipped", []Edge{{"a", ""}, {"", "a"}, {"a", "b"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAcyclic(tt.edges); got != tt.want {
				t.Errorf("IsAcyclic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromEdgesSkipsEmptyEndpoints(t *testing.T) {
	g := FromEdges([]Edge{{"a", ""}, {"", "b"}, {"c", "d"}})
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestTopologicalSortDeterministic(t *testing.T) {
	g := FromEdges([]Edge{{"a", "c"}, {"b", "c"}, {"c", "d"}, {"b", "e"}})
	got, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort() error = %v", err)
	}
	want := []string{"a", "b", "c", "e", "d"}
	if !slices.Equal(got, want) {
		t.Errorf("TopologicalSort() = %v, want %v", got, want)
	}
}

func TestTopologicalSortCycle(t *testing.T) {
	g := FromEdges([]Edge{{"a", "b"}, {"b", "c"}, {"c", "b"}})
	got, err := g.TopologicalSort()
	if !errors.Is(err, ErrGraphHasCycle) {
		t.Fatalf("error = %v, want ErrGraphHasCycle", err)
	}
	if !slices.Equal(got, []string{"a"}) {
		t.Errorf("partial order = %v, want [a]", got)
	}
}

func TestFindCycle(t *testing.T) {
	if c := FromEdges([]Edge{{"a", "b"}}).FindCycle(); c != nil {
		t.Errorf("FindCycle() = %v, want nil", c)
	}
	c := FromEdges([]Edge{{"a", "a"}}).FindCycle()
	if !slices.Equal(c, []string{"a", "a"}) {
		t.Errorf("FindCycle() = %v, want [a a]", c)
	}
}

func TestAddNodeAndEdge(t *testing.T) {
	g := New()
	if err := g.AddNode(""); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(\"\") = %v, want ErrInvalidNodeID", err)
	}
	_ = g.AddNode("a")
	_ = g.AddNode("b")
	_ = g.AddNode("a")
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if err := g.AddEdge("a", "z"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("AddEdge(a, z) = %v, want ErrUnknownNode", err)
	}
	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("AddEdge(a, b) = %v", err)
	}
	if g.OutDegree("a") != 1 || g.InDegree("b") != 1 {
		t.Errorf("degrees = %d, %d; want 1, 1", g.OutDegree("a"), g.InDegree("b"))
	}
	if !slices.Equal(g.Children("a"), []string{"b"}) || !slices.Equal(g.Parents("b"), []string{"a"}) {
		t.Errorf("Children/Parents mismatch")
	}
	if !slices.Equal(g.Sources(), []string{"a"}) || !slices.Equal(g.Sinks(), []string{"b"}) {
		t.Errorf("Sources() = %v, Sinks() = %v", g.Sources(), g.Sinks())
	}
	if !slices.Equal(g.Nodes(), []string{"a", "b"}) {
		t.Errorf("Nodes() = %v", g.Nodes())
	}
}
