package mindmap

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"studypilot/internal/model"
)

var (
	rootStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	itemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	enumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
)

// Render draws the map as an indented tree. A node reachable from several
// parents is drawn under the first one only.
func Render(m model.MindMap) string {
	index := make(map[string]int, len(m.Nodes))
	for i, n := range m.Nodes {
		index[n.ID] = i
	}
	children := childIndex(m, index)
	indegree := make([]int, len(m.Nodes))
	for s := range children {
		for _, c := range children[s] {
			indegree[c]++
		}
	}

	seen := make([]bool, len(m.Nodes))
	var build func(i int) *tree.Tree
	build = func(i int) *tree.Tree {
		seen[i] = true
		t := tree.Root(label(m.Nodes[i])).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(enumStyle).
			RootStyle(rootStyle).
			ItemStyle(itemStyle)
		for _, c := range children[i] {
			if seen[c] {
				continue
			}
			if len(children[c]) == 0 {
				seen[c] = true
				t.Child(label(m.Nodes[c]))
				continue
			}
			t.Child(build(c))
		}
		return t
	}

	forest := tree.New().Enumerator(tree.RoundedEnumerator).EnumeratorStyle(enumStyle)
	roots := 0
	for i := range m.Nodes {
		if indegree[i] == 0 && !seen[i] {
			forest.Child(build(i))
			roots++
		}
	}
	for i := range m.Nodes {
		if !seen[i] {
			forest.Child(build(i))
			roots++
		}
	}
	if roots == 0 {
		return ""
	}
	return forest.String()
}

func label(n model.MindMapNode) string {
	if n.Data.Label != "" {
		return n.Data.Label
	}
	return n.ID
}
