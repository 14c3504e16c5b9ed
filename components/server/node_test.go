package server_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ArunaStorage/aruna-sub004/components/server"
	"github.com/ArunaStorage/aruna-sub004/pkg/mlog"
	"github.com/stretchr/testify/require"
)

// testLogger discards everything; node construction logs readiness and
// warnings but tests don't assert on log content.
type testLogger struct{}

func (testLogger) Info(args ...any)             {}
func (testLogger) Infof(string, ...any)         {}
func (testLogger) Error(args ...any)            {}
func (testLogger) Errorf(string, ...any)        {}
func (testLogger) Warn(args ...any)             {}
func (testLogger) Warnf(string, ...any)         {}
func (testLogger) Debug(args ...any)            {}
func (testLogger) Debugf(string, ...any)        {}
func (testLogger) WithFields(kv ...any) mlog.Logger { return testLogger{} }

func TestNewBootstrapsSingleNode(t *testing.T) {
	cfg := server.Config{
		NodeID:       "node-1",
		BindAddr:     "127.0.0.1:0",
		DataDir:      filepath.Join(t.TempDir(), "data"),
		Bootstrap:    true,
		ApplyTimeout: time.Second,
		// Leave AMQPURL empty: New must tolerate no broker and simply
		// leave Notifier nil rather than fail construction.
	}

	n, err := server.New(context.Background(), cfg, testLogger{})
	require.NoError(t, err)
	require.NotNil(t, n.Store)
	require.NotNil(t, n.Graph)
	require.NotNil(t, n.Authz)
	require.NotNil(t, n.Tokens)
	require.NotNil(t, n.Executor)
	require.NotNil(t, n.Raft)
	require.NotNil(t, n.Search)
	require.Nil(t, n.Notifier)

	require.NoError(t, n.Close())
}

func TestNewRebuildsGraphAfterRestart(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	cfg := server.Config{
		NodeID:       "node-1",
		BindAddr:     "127.0.0.1:0",
		DataDir:      dataDir,
		Bootstrap:    true,
		ApplyTimeout: time.Second,
	}

	n1, err := server.New(context.Background(), cfg, testLogger{})
	require.NoError(t, err)
	require.NoError(t, n1.Close())

	n2, err := server.New(context.Background(), cfg, testLogger{})
	require.NoError(t, err)
	require.NotNil(t, n2.Graph)
	require.NoError(t, n2.Close())
}
