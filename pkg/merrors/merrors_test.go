package merrors_test

import (
	"errors"
	"testing"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndStatusCode(t *testing.T) {
	err := merrors.New(merrors.KindNotFound, "resource %s missing", "abc")
	require.Error(t, err)
	assert.Equal(t, 404, merrors.StatusCode(err))
	assert.False(t, merrors.Retriable(err))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := merrors.Wrap(merrors.KindUnavailable, cause)
	assert.True(t, merrors.Retriable(err))
	assert.True(t, errors.Is(err, cause))
}

func TestKindOfUnknownError(t *testing.T) {
	assert.Equal(t, merrors.KindInternal, merrors.KindOf(errors.New("plain")))
	assert.Equal(t, merrors.KindUnknown, merrors.KindOf(nil))
}

func TestFatalDatabaseDoesNotExist(t *testing.T) {
	err := merrors.New(merrors.KindDatabaseDoesNotExist, "database does not exist")
	assert.True(t, merrors.Fatal(err))
	assert.False(t, merrors.Retriable(err))
}

func TestDatabaseErrorIsRetriableNotFatal(t *testing.T) {
	err := merrors.New(merrors.KindDatabaseError, "disk hiccup")
	assert.True(t, merrors.Retriable(err))
	assert.False(t, merrors.Fatal(err))
	assert.Equal(t, 500, merrors.StatusCode(err))
}

func TestUnauthorizedStatusCode(t *testing.T) {
	err := merrors.New(merrors.KindUnauthorized, "no bearer token")
	assert.Equal(t, 401, merrors.StatusCode(err))
	assert.False(t, merrors.Retriable(err))
}

func TestTransactionFailureStatusCode(t *testing.T) {
	err := merrors.New(merrors.KindTransactionFailure, "rule %s failed", "r1")
	assert.Equal(t, 400, merrors.StatusCode(err))
	assert.False(t, merrors.Retriable(err))
}
