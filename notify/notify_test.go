package notify

import (
	"testing"

	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
	"github.com/stretchr/testify/assert"
)

func TestRoutingKeyJoinsHierarchyWithDots(t *testing.T) {
	a, b := ulid.New(), ulid.New()
	key := RoutingKey([]models.ID{a, b})
	assert.Equal(t, a.String()+"."+b.String(), key)
}

func TestRoutingKeyEmptyHierarchy(t *testing.T) {
	assert.Equal(t, "", RoutingKey(nil))
}

func TestDedupKeyIsStableForSamePair(t *testing.T) {
	id := ulid.New()
	assert.Equal(t, dedupKey("tx-1", id), dedupKey("tx-1", id))
	assert.NotEqual(t, dedupKey("tx-1", id), dedupKey("tx-2", id))
}
