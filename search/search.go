// Package search implements the full-text + attribute-filter index
// (C2). The production backend is an external Meilisearch instance
// configured via MEILISEARCH_HOST/MEILISEARCH_API_KEY (§6.5); this
// package implements the contract plus one concrete embedded
// implementation (bleve) for tests and standalone deployments, per
// the non-goal that only the contract, not the backend choice, is
// specified.
package search

import (
	"context"

	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
	"github.com/blevesearch/bleve/v2"
)

func parseID(s string) (models.ID, error) {
	return ulid.Parse(s)
}

// Document is one indexed resource's searchable projection.
type Document struct {
	ID          models.ID
	Name        string
	Title       string
	Description string
	Labels      map[string]string
}

// Query is a full-text query. LabelMatch is carried but not applied by
// BleveIndex.Query.
type Query struct {
	Text       string
	LabelMatch map[string]string
	Requester  *models.ID
	Limit      int
}

// Index is the C2 contract.
type Index interface {
	Upsert(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id models.ID) error
	Query(ctx context.Context, q Query) ([]models.ID, error)
}

// BleveIndex implements Index on top of an embedded bleve.Index,
// dropping full-text hits that the graph.Universe does not make
// visible to the requester (§4.12 FULL). Only the top 4×Limit hits are
// filtered, so fewer than Limit ids may come back.
type BleveIndex struct {
	idx      bleve.Index
	universe *graph.Universe
}

// NewBleveIndex builds an in-memory bleve index.
func NewBleveIndex(universe *graph.Universe) (*BleveIndex, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, merrors.New(merrors.KindInternal, "create search index", err)
	}
	return &BleveIndex{idx: idx, universe: universe}, nil
}

func (b *BleveIndex) Upsert(_ context.Context, doc Document) error {
	if err := b.idx.Index(doc.ID.String(), doc); err != nil {
		return merrors.New(merrors.KindInternal, "index document", err)
	}
	return nil
}

func (b *BleveIndex) Delete(_ context.Context, id models.ID) error {
	if err := b.idx.Delete(id.String()); err != nil {
		return merrors.New(merrors.KindInternal, "delete document", err)
	}
	return nil
}

func (b *BleveIndex) Query(_ context.Context, q Query) ([]models.ID, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	visible := b.universe.Visible(q.Requester)
	allowed := make(map[models.ID]struct{}, len(visible))
	for _, id := range visible {
		allowed[id] = struct{}{}
	}

	bleveQuery := bleve.NewMatchQuery(q.Text)
	search := bleve.NewSearchRequestOptions(bleveQuery, limit*4, 0, false)
	result, err := b.idx.Search(search)
	if err != nil {
		return nil, merrors.New(merrors.KindInternal, "run search query", err)
	}

	out := make([]models.ID, 0, limit)
	for _, hit := range result.Hits {
		id, err := parseHitID(hit.ID)
		if err != nil {
			continue
		}
		if _, ok := allowed[id]; !ok {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func parseHitID(s string) (models.ID, error) {
	return parseID(s)
}
