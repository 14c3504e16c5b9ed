// Package authz implements the authorization engine (C4): a bounded
// breadth-first search over a resource's inbound edges that resolves
// the caller's effective permission level (§4.3).
package authz

import (
	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
)

// Decision is the outcome of Resolve.
type Decision struct {
	Allowed bool
	Cap     models.PermissionLevel
}

// Engine resolves permission decisions against a Graph.
type Engine struct {
	g *graph.Graph
}

// New builds an Engine over g.
func New(g *graph.Graph) *Engine {
	return &Engine{g: g}
}

type visitKey struct {
	node models.ID
	cap  models.PermissionLevel
}

// Resolve decides whether identity (nil for unauthenticated) holds at
// least minLevel on resource, following §4.3's algorithm exactly: a
// bounded BFS over inbound edges with a (node, cap) visited-once
// dedup, cap monotonically non-increasing as it propagates away from
// the target.
func (e *Engine) Resolve(identity *models.ID, resource models.ID, minLevel models.PermissionLevel) Decision {
	if e.g.Universe().IsPublic(resource) && minLevel <= models.PermissionRead {
		return Decision{Allowed: true, Cap: models.PermissionRead}
	}
	if identity == nil {
		return Decision{Allowed: false, Cap: models.PermissionNone}
	}

	type queued = struct {
		node models.ID
		cap  models.PermissionLevel
	}

	best := models.PermissionNone
	visited := map[visitKey]struct{}{}
	queue := []queued{{node: resource, cap: models.PermissionAdmin}}
	visited[visitKey{node: resource, cap: models.PermissionAdmin}] = struct{}{}

	for len(queue) > 0 && best != models.PermissionAdmin {
		cur := queue[0]
		queue = queue[1:]

		for _, rel := range e.g.Relations(cur.node, graph.Inbound, nil) {
			src := rel.Source
			switch rel.Type.Class() {
			case models.EdgeClassHierarchy:
				e.maybeEnqueue(&queue, visited, src, cur.cap)
			case models.EdgeClassPermission:
				effective := minPermission(cur.cap, rel.Type.Level())
				e.maybeEnqueue(&queue, visited, src, effective)
				if identitiesEqual(src, *identity) {
					if effective > best {
						best = effective
					}
				}
			default:
				if rel.Type == models.EdgeSharesPermission {
					e.maybeEnqueue(&queue, visited, src, cur.cap)
				}
				// other semantic edges are ignored by the authorization walk.
			}
		}
	}

	return Decision{Allowed: best >= minLevel, Cap: best}
}

func (e *Engine) maybeEnqueue(queue *[]struct {
	node models.ID
	cap  models.PermissionLevel
}, visited map[visitKey]struct{}, node models.ID, cap models.PermissionLevel) {
	key := visitKey{node: node, cap: cap}
	if _, seen := visited[key]; seen {
		return
	}
	visited[key] = struct{}{}
	*queue = append(*queue, struct {
		node models.ID
		cap  models.PermissionLevel
	}{node: node, cap: cap})
}

func minPermission(a, b models.PermissionLevel) models.PermissionLevel {
	if a < b {
		return a
	}
	return b
}

func identitiesEqual(a, b models.ID) bool {
	return a == b
}
