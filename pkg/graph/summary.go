package graph

import (
	"fmt"
	"sort"
	"strings"
)

// summaryDataLimit caps the parameters listed per node.
const summaryDataLimit = 4

// Summary renders a plain-text listing of the pipeline:
//
//	Pipeline summary
//	Nodes (2)
//	- customInput-1 (customInput) | inputName: input, inputType: Text
//	- llm-1 (llm) | model: gpt-4, temperature: 0.7
//
//	Edges (1)
//	- customInput-1:value -> llm-1:system
//
// Parameters are listed in key order, without the id and nodeType entries.
func Summary(s Snapshot) string {
	var b strings.Builder
	b.WriteString("Pipeline summary\n")
	fmt.Fprintf(&b, "Nodes (%d)\n", len(s.Nodes))
	lines := make([]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		lines = append(lines, fmt.Sprintf("- %s (%s)%s", n.ID, n.Type, formatData(n.Data)))
	}
	b.WriteString(strings.Join(lines, "\n"))

	fmt.Fprintf(&b, "\n\nEdges (%d)\n", len(s.Edges))
	lines = lines[:0]
	for _, e := range s.Edges {
		lines = append(lines, fmt.Sprintf("- %s%s -> %s%s", e.Source, handle(e.SourceHandle), e.Target, handle(e.TargetHandle)))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func formatData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "id" || k == "nodeType" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	if len(keys) > summaryDataLimit {
		keys = keys[:summaryDataLimit]
	}
	entries := make([]string, len(keys))
	for i, k := range keys {
		entries[i] = fmt.Sprintf("%s: %v", k, data[k])
	}
	return " | " + strings.Join(entries, ", ")
}

func handle(h string) string {
	if h == "" {
		return ""
	}
	return ":" + h
}
