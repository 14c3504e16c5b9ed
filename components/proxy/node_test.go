package proxy_test

import (
	"path/filepath"
	"testing"

	"github.com/ArunaStorage/aruna-sub004/components/proxy"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) proxy.Config {
	t.Helper()
	return proxy.Config{
		BindAddr:        "127.0.0.1:0",
		StorageRoot:     filepath.Join(t.TempDir(), "objects"),
		BucketTemplate:  "{ProjectId}-bucket/{DatasetId}/{ObjectId}",
		ProxyPrivateKey: "a-test-private-key-that-is-long-enough",
	}
}

func TestNewWiresAllComponents(t *testing.T) {
	n, err := proxy.New(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, n.Backend)
	require.NotNil(t, n.Presigner)
	require.NotNil(t, n.Finalizer)
	require.NotNil(t, n.Rules)
	require.NotNil(t, n.Puller)
	require.NotNil(t, n.Receiver)
}

func TestNewRejectsInvalidBucketTemplate(t *testing.T) {
	cfg := testConfig(t)
	cfg.BucketTemplate = "{Unbalanced"
	_, err := proxy.New(cfg)
	require.Error(t, err)
}

func TestNewDerivesDistinctAccessKeysPerPrivateKey(t *testing.T) {
	cfg1 := testConfig(t)
	cfg2 := testConfig(t)
	cfg2.ProxyPrivateKey = "a-different-test-private-key-value"

	n1, err := proxy.New(cfg1)
	require.NoError(t, err)
	n2, err := proxy.New(cfg2)
	require.NoError(t, err)

	require.NotEqual(t, n1.Presigner.Credentials.AccessKeyID, n2.Presigner.Credentials.AccessKeyID)
}
