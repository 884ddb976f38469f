package coordinator

import "time"

// Lifecycle phases reported to Metrics.ObservePhase.
const (
	PhaseInstall         = "install"
	PhaseActivate        = "activate"
	PhaseDownloadOffline = "download_offline"
)

// Metrics receives coordinator observations. Implementations must be safe for
// concurrent use. A nil Metrics disables collection.
type Metrics interface {
	// ObserveFetch records a handled fetch by outcome (a Source, or "error").
	ObserveFetch(outcome string, duration time.Duration)

	// ObserveDeclined records a fetch the coordinator did not handle.
	ObserveDeclined()

	// ObservePhase records a lifecycle phase and whether it succeeded.
	ObservePhase(phase string, success bool, duration time.Duration)

	// ObserveReconcile records the outcome of an activation.
	ObserveReconcile(retained, evicted, promoted int)

	// ObserveDownloaded records resources added by an offline download.
	ObserveDownloaded(count int)
}
