// Package mindmap lays out, renders and exports generated concept maps.
package mindmap

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"studypilot/internal/model"
)

// Layered top-to-bottom layout constants.
const (
	NodeWidth  = 250
	NodeHeight = 80
	NodeSep    = 80
	RankSep    = 120
)

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type PlacedNode struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Rank     int      `json:"rank" yaml:"rank"`
	Position Position `json:"position" yaml:"position"`
}

type Layout struct {
	Nodes []PlacedNode        `json:"nodes" yaml:"nodes"`
	Edges []model.MindMapEdge `json:"edges" yaml:"edges"`
}

// Arrange assigns each node a rank and an order within its rank, then
// computes top-left positions. Cycles collapse into one component whose
// members share a rank; edges to unknown nodes and self loops are ignored.
func Arrange(m model.MindMap) (Layout, error) {
	index := make(map[string]int, len(m.Nodes))
	for i, n := range m.Nodes {
		if n.ID == "" {
			return Layout{}, fmt.Errorf("node %d has no id", i)
		}
		if _, dup := index[n.ID]; dup {
			return Layout{}, fmt.Errorf("duplicate node id %q", n.ID)
		}
		index[n.ID] = i
	}

	g := buildGraph(m, index)
	rank, err := assignRanks(g, len(m.Nodes))
	if err != nil {
		return Layout{}, err
	}

	byRank := map[int][]int{}
	maxRank := 0
	for i := range m.Nodes {
		r := rank[i]
		byRank[r] = append(byRank[r], i)
		if r > maxRank {
			maxRank = r
		}
	}

	// Order each rank by the mean position of its parents to keep edges short.
	order := make([]float64, len(m.Nodes))
	for r := 0; r <= maxRank; r++ {
		row := byRank[r]
		for _, i := range row {
			sum, count := 0.0, 0
			parents := g.To(int64(i))
			for parents.Next() {
				p := parents.Node().ID()
				if rank[p] >= r {
					continue
				}
				sum += order[p]
				count++
			}
			if count == 0 {
				order[i] = float64(i)
				continue
			}
			order[i] = sum / float64(count)
		}
		sort.SliceStable(row, func(a, b int) bool {
			return order[row[a]] < order[row[b]]
		})
		for pos, i := range row {
			order[i] = float64(pos)
		}
		byRank[r] = row
	}

	out := Layout{Nodes: make([]PlacedNode, 0, len(m.Nodes)), Edges: m.Edges}
	if out.Edges == nil {
		out.Edges = []model.MindMapEdge{}
	}
	for r := 0; r <= maxRank; r++ {
		row := byRank[r]
		rowWidth := float64(len(row))*NodeWidth + float64(len(row)-1)*NodeSep
		for pos, i := range row {
			cx := -rowWidth/2 + NodeWidth/2 + float64(pos)*(NodeWidth+NodeSep)
			cy := float64(r)*(NodeHeight+RankSep) + NodeHeight/2
			out.Nodes = append(out.Nodes, PlacedNode{
				ID:    m.Nodes[i].ID,
				Label: m.Nodes[i].Data.Label,
				Rank:  r,
				Position: Position{
					X: cx - NodeWidth/2,
					Y: cy - NodeHeight/2,
				},
			})
		}
	}
	return out, nil
}

// buildGraph keys graph nodes by their index in m.Nodes.
func buildGraph(m model.MindMap, index map[string]int) *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for i := range m.Nodes {
		g.AddNode(simple.Node(i))
	}
	for _, e := range m.Edges {
		s, okS := index[e.Source]
		t, okT := index[e.Target]
		if !okS || !okT || s == t {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(s), simple.Node(t)))
	}
	return g
}

// assignRanks condenses strongly connected components into a DAG and ranks
// each component by its longest path from a source component.
func assignRanks(g *simple.DirectedGraph, n int) ([]int, error) {
	component := make([]int64, n)
	cond := simple.NewDirectedGraph()
	for c, scc := range topo.TarjanSCC(g) {
		cond.AddNode(simple.Node(c))
		for _, v := range scc {
			component[v.ID()] = int64(c)
		}
	}
	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge()
		from, to := component[e.From().ID()], component[e.To().ID()]
		if from != to {
			cond.SetEdge(cond.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}

	sorted, err := topo.Sort(cond)
	if err != nil {
		return nil, fmt.Errorf("order mind map components: %w", err)
	}
	depth := make([]int, len(sorted))
	for _, c := range sorted {
		next := cond.From(c.ID())
		for next.Next() {
			s := next.Node().ID()
			if d := depth[c.ID()] + 1; d > depth[s] {
				depth[s] = d
			}
		}
	}

	rank := make([]int, n)
	for i := range rank {
		rank[i] = depth[component[i]]
	}
	return rank, nil
}
