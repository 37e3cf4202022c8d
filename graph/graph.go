// Package graph implements the incremental topological scheduler that
// drives one run: in-degree tracking against a done-set, where a node
// becomes ready the instant every predecessor is done.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/operation"
)

// Graph is the per-run dependency structure over OutputKeys. One node
// per registered descriptor; predecessor edges to every state-type
// dependency (the Plan dependency is always satisfied and carries no
// edge). Build a fresh Graph per run and discard it at run end.
//
// Graph is driven by a single orchestrator goroutine and is not safe
// for concurrent use.
type Graph struct {
	preds map[onward.OutputKey][]onward.OutputKey
	succs map[onward.OutputKey][]onward.OutputKey

	// pending counts undone predecessors per node.
	pending  map[onward.OutputKey]int
	done     map[onward.OutputKey]struct{}
	surfaced map[onward.OutputKey]struct{}
	prepared bool
}

// New builds a Graph from every descriptor in the registry.
func New(reg *operation.Registry) *Graph {
	g := &Graph{
		preds:    make(map[onward.OutputKey][]onward.OutputKey),
		succs:    make(map[onward.OutputKey][]onward.OutputKey),
		pending:  make(map[onward.OutputKey]int),
		done:     make(map[onward.OutputKey]struct{}),
		surfaced: make(map[onward.OutputKey]struct{}),
	}

	for _, d := range reg.Descriptors() {
		key := d.Key()
		g.preds[key] = nil
		for _, dep := range d.Dependencies() {
			if dep.Plan {
				continue
			}
			g.preds[key] = append(g.preds[key], dep.Key)
		}
	}

	return g
}

// Prepare verifies the graph and freezes it for execution. It fails
// with onward.ErrUnknownDependency if an operation depends on a state
// no operation provides, and with onward.ErrCycle if the edge set is
// not acyclic. Prepare must succeed before Ready or MarkDone.
func (g *Graph) Prepare() error {
	for node, preds := range g.preds {
		for _, pred := range preds {
			if _, ok := g.preds[pred]; !ok {
				return fmt.Errorf("%w: %s requires %s", onward.ErrUnknownDependency, node, pred)
			}
			g.pending[node]++
			g.succs[pred] = append(g.succs[pred], node)
		}
	}

	if cycle := g.findCycle(); len(cycle) > 0 {
		return fmt.Errorf("%w: %s", onward.ErrCycle, strings.Join(cycle, ", "))
	}

	g.prepared = true
	return nil
}

// findCycle runs Kahn's algorithm over a scratch copy of the in-degree
// counts and returns the unprocessable nodes, if any.
func (g *Graph) findCycle() []string {
	indeg := make(map[onward.OutputKey]int, len(g.preds))
	var queue []onward.OutputKey
	for node := range g.preds {
		indeg[node] = g.pending[node]
		if indeg[node] == 0 {
			queue = append(queue, node)
		}
	}

	processed := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		processed++
		for _, succ := range g.succs[node] {
			indeg[succ]--
			if indeg[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if processed == len(g.preds) {
		return nil
	}

	var cycle []string
	for node, n := range indeg {
		if n > 0 {
			cycle = append(cycle, node.String())
		}
	}
	sort.Strings(cycle)
	return cycle
}

// Ready returns the nodes whose predecessors are all done and which
// have not been surfaced by a prior call. Each node surfaces exactly
// once; completion is reported separately through MarkDone. No ordering
// is defined within a batch (the returned slice is sorted only to keep
// runs reproducible).
func (g *Graph) Ready() ([]onward.OutputKey, error) {
	if !g.prepared {
		return nil, onward.ErrNotPrepared
	}

	var ready []onward.OutputKey
	for node, n := range g.pending {
		if n != 0 {
			continue
		}
		if _, isDone := g.done[node]; isDone {
			continue
		}
		if _, out := g.surfaced[node]; out {
			continue
		}
		ready = append(ready, node)
	}

	sort.Slice(ready, func(i, j int) bool { return ready[i].String() < ready[j].String() })
	for _, node := range ready {
		g.surfaced[node] = struct{}{}
	}
	return ready, nil
}

// MarkDone records a node's completion, making its dependents eligible
// on the next Ready call. The node must have been surfaced by Ready and
// not be done already.
func (g *Graph) MarkDone(key onward.OutputKey) error {
	if !g.prepared {
		return onward.ErrNotPrepared
	}
	if _, ok := g.surfaced[key]; !ok {
		return fmt.Errorf("graph: node %s was not surfaced as ready", key)
	}
	if _, ok := g.done[key]; ok {
		return fmt.Errorf("graph: node %s already done", key)
	}

	g.done[key] = struct{}{}
	for _, succ := range g.succs[key] {
		g.pending[succ]--
	}
	return nil
}

// Active reports whether any node remains undone.
func (g *Graph) Active() bool {
	return len(g.done) < len(g.preds)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.preds) }
