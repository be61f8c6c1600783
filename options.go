package s3put

import (
	"io"
	"time"
)

type UploaderOption func(*uploader)

// WithOutput sets where progress and completion lines are written.
// Default is os.Stdout.
func WithOutput(w io.Writer) UploaderOption {
	return func(u *uploader) {
		if w != nil {
			u.out = w
		}
	}
}

// WithErrorOutput sets where failure diagnostics are written.
// Default is os.Stderr.
func WithErrorOutput(w io.Writer) UploaderOption {
	return func(u *uploader) {
		if w != nil {
			u.errOut = w
		}
	}
}

// WithGate shares g between uploaders, so that their transfers are
// serialized together and one failure aborts them all.
// Default is a gate owned by the uploader.
func WithGate(g *Gate) UploaderOption {
	return func(u *uploader) {
		if g != nil {
			u.gate = g
		}
	}
}

// WithOutcomeCallback sets the callback called with the outcome of every
// resolved file. Default is none.
func WithOutcomeCallback(cb OutcomeCallback) UploaderOption {
	return func(u *uploader) {
		u.onOutcome = cb
	}
}

// WithWorkDir sets the directory specifiers are resolved in.
// Default is the process working directory.
func WithWorkDir(dir string) UploaderOption {
	return func(u *uploader) {
		u.resolver.WorkDir = dir
	}
}

// WithClock sets the clock transfers are timed with. Default is time.Now.
func WithClock(now func() time.Time) UploaderOption {
	return func(u *uploader) {
		if now != nil {
			u.now = now
		}
	}
}
