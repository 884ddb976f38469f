package runtime

import (
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/marmos91/offlinecache/pkg/coordinator"
)

// State is the lifecycle state of a coordinator version.
type State string

const (
	StateInstalling State = "installing"
	StateInstalled  State = "installed" // waiting for activation
	StateActivating State = "activating"
	StateActivated  State = "activated"
	StateRedundant  State = "redundant"
)

// version is one registered coordinator. Fields other than coord are guarded
// by Runtime.stateMu.
type version struct {
	id          string
	digest      digest.Digest
	coord       *coordinator.Coordinator
	state       State
	skipWaiting bool
	registered  time.Time
	installed   time.Time
	activated   time.Time
	resumed     bool
}

// VersionInfo is a snapshot of a coordinator version.
type VersionInfo struct {
	ID           string     `json:"id" yaml:"id"`
	Digest       string     `json:"digest" yaml:"digest"`
	State        State      `json:"state" yaml:"state"`
	Resources    int        `json:"resources" yaml:"resources"`
	Core         int        `json:"core" yaml:"core"`
	Resumed      bool       `json:"resumed,omitempty" yaml:"resumed,omitempty"`
	RegisteredAt time.Time  `json:"registered_at" yaml:"registered_at"`
	InstalledAt  *time.Time `json:"installed_at,omitempty" yaml:"installed_at,omitempty"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty" yaml:"activated_at,omitempty"`
}

func (v *version) info() *VersionInfo {
	if v == nil {
		return nil
	}
	m := v.coord.Manifest()
	info := &VersionInfo{
		ID:           v.id,
		Digest:       v.digest.String(),
		State:        v.state,
		Resources:    len(m.Resources),
		Core:         len(m.Core),
		Resumed:      v.resumed,
		RegisteredAt: v.registered,
	}
	if !v.installed.IsZero() {
		t := v.installed
		info.InstalledAt = &t
	}
	if !v.activated.IsZero() {
		t := v.activated
		info.ActivatedAt = &t
	}
	return info
}

// Status is a snapshot of the runtime.
type Status struct {
	Origin              string                 `json:"origin" yaml:"origin"`
	Controlled          bool                   `json:"controlled" yaml:"controlled"`
	Active              *VersionInfo           `json:"active,omitempty" yaml:"active,omitempty"`
	Waiting             *VersionInfo           `json:"waiting,omitempty" yaml:"waiting,omitempty"`
	Partitions          coordinator.Partitions `json:"partitions" yaml:"partitions"`
	LastActivationError string                 `json:"last_activation_error,omitempty" yaml:"last_activation_error,omitempty"`
}

// versionHost is the coordinator.Host handed to one version.
type versionHost struct {
	rt *Runtime
	v  *version
}

func (h *versionHost) SkipWaiting() {
	h.rt.stateMu.Lock()
	h.v.skipWaiting = true
	h.rt.stateMu.Unlock()
}

func (h *versionHost) Claim() {
	h.rt.stateMu.Lock()
	h.rt.controlled = true
	h.rt.stateMu.Unlock()
}
