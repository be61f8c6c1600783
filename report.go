package s3put

import (
	"fmt"
	"io"
	"math"
	"time"
)

// OutcomeCallback is called once for every resolved file, after its upload
// settled or was skipped.
type OutcomeCallback func(outcome Outcome)

// OutcomeStatus is an enum that represents how an upload ended
type OutcomeStatus int

const (
	// OutcomeStatusCompleted is the status of an object stored successfully
	OutcomeStatusCompleted OutcomeStatus = iota
	// OutcomeStatusSkipped is the status of an upload abandoned because the
	// gate was aborted by a failed upload
	OutcomeStatusSkipped
	// OutcomeStatusFailed is the status of an upload the store failed
	OutcomeStatusFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeStatusCompleted:
		return "completed"
	case OutcomeStatusSkipped:
		return "skipped"
	case OutcomeStatusFailed:
		return "failed"
	}
	return fmt.Sprintf("OutcomeStatus(%d)", int(s))
}

// Outcome describes the upload of one resolved file.
type Outcome struct {
	Status OutcomeStatus

	// File is the path as produced by resolution
	File string
	// Bucket and Key locate the object
	Bucket string
	Key    string
	// ACL is the permission level applied, "private" when none is set
	ACL string
	// Size is the number of bytes read from the file
	Size int64

	// Location is the URL of the stored object
	Location string
	// BytesTransferred is the number of bytes the store sent
	BytesTransferred int64
	// Duration is the wall-clock time of the transfer
	Duration time.Duration
	// Throughput is Size per second of Duration
	Throughput int64

	// Error is the failure (when Status is OutcomeStatusFailed)
	Error error

	StartAt  time.Time
	FinishAt time.Time
}

// throughput is bytes per second over elapsed, rounded. Elapsed is floored
// at a millisecond.
func throughput(bytes int64, elapsed time.Duration) int64 {
	seconds := math.Max(elapsed.Seconds(), time.Millisecond.Seconds())
	return int64(math.Round(float64(bytes) / seconds))
}

func printStarted(w io.Writer, o Outcome) {
	_, _ = fmt.Fprintf(w, "\nUploading: %s \n\t Size: %s \n\t To: s3://%s/%s \n\t Permissions: %s\n",
		o.File, FormatBytes(float64(o.Size), 1), o.Bucket, o.Key, o.ACL)
}

func printCompleted(w io.Writer, o Outcome) {
	_, _ = fmt.Fprintf(w, "Completed: %s \n\t Speed: %s/s\n",
		o.Location, FormatBytes(float64(o.Throughput), 0))
}

func printFailed(w io.Writer, err *TransferError) {
	_, _ = fmt.Fprintln(w, "FAILED!")
	_, _ = fmt.Fprintln(w, err.Error())
	_, _ = fmt.Fprintln(w, "Error name:", err.Name())
	_, _ = fmt.Fprintln(w, "Error message:", err.Message())
	_, _ = fmt.Fprintln(w, "Stack trace:", err.Trace())
}
