package ulid_test

import (
	"testing"

	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsNotNil(t *testing.T) {
	id := ulid.New()
	assert.False(t, id.IsNil())
}

func TestRoundTripText(t *testing.T) {
	id := ulid.New()
	text, err := id.MarshalText()
	require.NoError(t, err)

	var decoded ulid.ID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, id, decoded)
}

func TestMonotonicOrdering(t *testing.T) {
	a := ulid.New()
	b := ulid.New()
	assert.LessOrEqual(t, ulid.Compare(a, b), 0)
}
