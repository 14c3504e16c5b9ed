package proxy

import (
	"crypto/sha256"

	"github.com/ArunaStorage/aruna-sub004/components/proxy/backend"
	"github.com/ArunaStorage/aruna-sub004/components/proxy/control"
	"github.com/ArunaStorage/aruna-sub004/components/proxy/replication"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/aws/aws-sdk-go-v2/aws"
)

// Node is one data-proxy replica: a storage backend, the control-plane
// glue (presigning, finalization, per-target rules), and the
// replication engine, all built on the streaming pipeline (C10).
type Node struct {
	Backend   backend.Backend
	Presigner *control.Presigner
	Finalizer *control.Finalizer
	Rules     *control.RuleSet
	Puller    *replication.Puller
	Receiver  *replication.Receiver
}

// New constructs a Node from cfg, defaulting to a filesystem backend
// rooted at cfg.StorageRoot; a production deployment swaps in
// backend.NewS3Backend without touching the rest of the wiring.
func New(cfg Config) (*Node, error) {
	tmpl, err := backend.CompileTemplate(cfg.BucketTemplate)
	if err != nil {
		return nil, merrors.New(merrors.KindValidation, "compile bucket template", err)
	}
	fs := backend.NewFilesystemBackend(cfg.StorageRoot, tmpl)

	key := sha256.Sum256([]byte(cfg.ProxyPrivateKey))

	presigner := control.NewPresigner(aws.Credentials{
		AccessKeyID:     control.DeriveAccessKey("proxy", key[:]),
		SecretAccessKey: cfg.ProxyPrivateKey,
	})

	finalizer := &control.Finalizer{Key: key}
	rules := control.NewRuleSet()

	return &Node{
		Backend:   fs,
		Presigner: presigner,
		Finalizer: finalizer,
		Rules:     rules,
		Puller:    &replication.Puller{Backend: fs},
		Receiver:  &replication.Receiver{Backend: fs},
	}, nil
}
