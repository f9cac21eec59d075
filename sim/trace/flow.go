package trace

// Edge connects two consecutive activities of the process flow.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FlowGraph is the linear process flow observed in a trace.
type FlowGraph struct {
	Nodes []string `json:"nodes"` // activity names in first-seen order
	Edges []Edge   `json:"edges"` // Nodes[i] -> Nodes[i+1]
}

// Flow extracts the process flow from records. Balk and renege records are not
// activities and do not appear as nodes.
func Flow(records []ActivityRecord) FlowGraph {
	g := FlowGraph{Nodes: make([]string, 0)}
	seen := make(map[string]bool)
	for _, r := range records {
		if r.Terminal() || seen[r.Activity] {
			continue
		}
		seen[r.Activity] = true
		g.Nodes = append(g.Nodes, r.Activity)
	}
	for i := 0; i+1 < len(g.Nodes); i++ {
		g.Edges = append(g.Edges, Edge{From: g.Nodes[i], To: g.Nodes[i+1]})
	}
	return g
}
