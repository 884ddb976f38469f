package handlers

import (
	"context"

	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/manifest"
	"github.com/marmos91/offlinecache/pkg/runtime"
)

// Runtime is the part of *runtime.Runtime the control plane drives.
type Runtime interface {
	Status() runtime.Status
	Ready() bool
	Healthcheck(ctx context.Context) error
	Register(ctx context.Context, m *manifest.Manifest) (*runtime.VersionInfo, error)
	PostMessage(ctx context.Context, msg string) error
	Reset(ctx context.Context) error
	Entries(ctx context.Context, partition string) ([]cachestore.RequestKey, error)
}

var _ Runtime = (*runtime.Runtime)(nil)
