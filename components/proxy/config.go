// Package proxy wires the data-plane components (backend, pipeline,
// control, replication) into a running data proxy node.
package proxy

import "time"

// Config is the data proxy's environment-driven configuration.
type Config struct {
	BindAddr        string        `env:"BIND_ADDR" envDefault:"127.0.0.1:7100"`
	StorageRoot     string        `env:"STORAGE_ROOT" envDefault:"./data/objects"`
	BucketTemplate  string        `env:"BUCKET_TEMPLATE" envDefault:"{ProjectId}-bucket/{DatasetId}/{ObjectId}"`
	ProxyPrivateKey string        `env:"PROXY_PRIVATE_KEY,required"`
	PresignTTL      time.Duration `env:"PRESIGN_TTL" envDefault:"168h"`
	Development     bool          `env:"DEVELOPMENT" envDefault:"false"`
}
