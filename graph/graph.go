// Package graph implements the in-memory resource graph (C3): a
// directed multigraph of typed edges, rebuilt from store at startup
// and mutated under the same write transaction as its backing rows,
// protected by one sync.RWMutex per §5's shared-resource policy.
package graph

import (
	"fmt"
	"sync"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
)

// Direction selects which side of an edge to traverse.
type Direction int

const (
	Outbound Direction = iota
	Inbound
)

type edgeKey struct {
	src, dst models.ID
	typ      models.EdgeType
}

// Graph is the in-memory resource graph.
type Graph struct {
	mu sync.RWMutex

	nodes map[models.ID]models.ResourceVariant
	out   map[models.ID]map[edgeKey]struct{}
	in    map[models.ID]map[edgeKey]struct{}

	universe *Universe
}

// New builds an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:    map[models.ID]models.ResourceVariant{},
		out:      map[models.ID]map[edgeKey]struct{}{},
		in:       map[models.ID]map[edgeKey]struct{}{},
		universe: NewUniverse(),
	}
}

// Universe returns the secondary (identity, visibility class) index
// maintained alongside the graph (§4.12 FULL).
func (g *Graph) Universe() *Universe { return g.universe }

// AddNode installs id with the given resource variant tag.
func (g *Graph) AddNode(id models.ID, variant models.ResourceVariant) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[id] = variant
}

// RemoveNode deletes id and every edge touching it.
func (g *Graph) RemoveNode(id models.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.nodes, id)
	for ek := range g.out[id] {
		g.unlinkLocked(ek)
	}
	for ek := range g.in[id] {
		g.unlinkLocked(ek)
	}
}

func (g *Graph) unlinkLocked(ek edgeKey) {
	delete(g.out[ek.src], ek)
	delete(g.in[ek.dst], ek)
}

// HasNode reports whether id is currently a live node.
func (g *Graph) HasNode(id models.ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// AddEdge installs a (src, dst, type) edge. Per invariant 1, both
// endpoints must already be live nodes.
func (g *Graph) AddEdge(src, dst models.ID, typ models.EdgeType) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[src]; !ok {
		return merrors.New(merrors.KindValidation, "edge source %s is not a live node", src)
	}
	if _, ok := g.nodes[dst]; !ok {
		return merrors.New(merrors.KindValidation, "edge target %s is not a live node", dst)
	}
	g.addEdgeLocked(src, dst, typ)
	return nil
}

func (g *Graph) addEdgeLocked(src, dst models.ID, typ models.EdgeType) {
	ek := edgeKey{src: src, dst: dst, typ: typ}
	if g.out[src] == nil {
		g.out[src] = map[edgeKey]struct{}{}
	}
	if g.in[dst] == nil {
		g.in[dst] = map[edgeKey]struct{}{}
	}
	g.out[src][ek] = struct{}{}
	g.in[dst][ek] = struct{}{}
}

// RemoveEdge deletes a single (src, dst, type) edge.
func (g *Graph) RemoveEdge(src, dst models.ID, typ models.EdgeType) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unlinkLocked(edgeKey{src: src, dst: dst, typ: typ})
}

// Relations returns every edge touching id in the given direction,
// optionally filtered to a single edge type (pass nil for no filter).
func (g *Graph) Relations(id models.ID, dir Direction, typeFilter *models.EdgeType) []models.Relation {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var set map[edgeKey]struct{}
	if dir == Outbound {
		set = g.out[id]
	} else {
		set = g.in[id]
	}
	out := make([]models.Relation, 0, len(set))
	for ek := range set {
		if typeFilter != nil && ek.typ != *typeFilter {
			continue
		}
		out = append(out, models.Relation{Source: ek.src, Target: ek.dst, Type: ek.typ})
	}
	return out
}

// Children returns id's outbound hierarchy edges whose target is a
// resource node (§4.2).
func (g *Graph) Children(id models.ID) []models.Relation {
	return g.hierarchyEdges(id, Outbound)
}

// Parents returns id's inbound hierarchy edges.
func (g *Graph) Parents(id models.ID) []models.Relation {
	return g.hierarchyEdges(id, Inbound)
}

func (g *Graph) hierarchyEdges(id models.ID, dir Direction) []models.Relation {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var set map[edgeKey]struct{}
	if dir == Outbound {
		set = g.out[id]
	} else {
		set = g.in[id]
	}
	out := make([]models.Relation, 0, len(set))
	for ek := range set {
		if ek.typ.Class() != models.EdgeClassHierarchy {
			continue
		}
		out = append(out, models.Relation{Source: ek.src, Target: ek.dst, Type: ek.typ})
	}
	return out
}

// Descendants returns every resource reachable from id by following
// hierarchy edges transitively, id itself excluded. Used by cascading
// deletes (§3.2 invariant 5) to tombstone a whole subtree.
func (g *Graph) Descendants(id models.ID) []models.ID {
	var out []models.ID
	seen := map[models.ID]struct{}{id: {}}
	queue := []models.ID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, rel := range g.Children(cur) {
			if _, ok := seen[rel.Target]; ok {
				continue
			}
			seen[rel.Target] = struct{}{}
			out = append(out, rel.Target)
			queue = append(queue, rel.Target)
		}
	}
	return out
}

// DocumentLoader supplies the (id, variant) pairs for
// RebuildFromStore's first pass (components/server reads them from
// store's nodes table).
type DocumentLoader func(yield func(id models.ID, variant models.ResourceVariant) error) error

// RelationLoader supplies the relations table rows for the second pass.
type RelationLoader func(yield func(rel models.Relation) error) error

// RebuildFromStore runs the deterministic two-pass load described in
// §4.2: nodes first, then edges, deferring any edge whose endpoint
// isn't loaded yet and retrying it exactly once after the first pass.
func (g *Graph) RebuildFromStore(loadDocs DocumentLoader, loadRelations RelationLoader) error {
	if err := loadDocs(func(id models.ID, variant models.ResourceVariant) error {
		g.AddNode(id, variant)
		return nil
	}); err != nil {
		return merrors.New(merrors.KindDatabaseError, "rebuild graph: load documents", err)
	}

	var deferred []models.Relation
	if err := loadRelations(func(rel models.Relation) error {
		if err := g.AddEdge(rel.Source, rel.Target, rel.Type); err != nil {
			deferred = append(deferred, rel)
		}
		return nil
	}); err != nil {
		return merrors.New(merrors.KindDatabaseError, "rebuild graph: load relations", err)
	}

	var stillMissing []models.Relation
	for _, rel := range deferred {
		if err := g.AddEdge(rel.Source, rel.Target, rel.Type); err != nil {
			stillMissing = append(stillMissing, rel)
		}
	}
	if len(stillMissing) > 0 {
		return merrors.New(merrors.KindDatabaseError,
			fmt.Sprintf("rebuild graph: %d relations reference nodes missing after retry", len(stillMissing)))
	}
	return nil
}
