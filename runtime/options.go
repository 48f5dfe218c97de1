package runtime

import "go.uber.org/zap"

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for lifecycle and disposal events.
// Defaults to the package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.log = l
		}
	}
}
