package queue

import "log/slog"

// newLogger returns the pool's base structured logger, tagged with the
// process identity so multi-pod deployments can tell tasks apart.
func newLogger(podID string) *slog.Logger {
	return slog.With("pod_id", podID)
}
