package pipeline

// Code classifies the outcome of one stage handler invocation.
type Code int

const (
	// Success every unit of work in the message succeeded
	Success Code = iota
	// Partial the job completed with a failed subset (tolerated)
	Partial
	// HardFailure the job is unrecoverable; route to the dead queue
	HardFailure
	// BadMessage malformed payload; report and drop, never retry
	BadMessage
	// TransientFailure infra error (db, bus); redeliver and retry
	TransientFailure
)

// Result is the structured outcome a stage handler returns to its
// consumer driver, which decides ack / drop / dead-letter / requeue.
type Result struct {
	Code    Code
	VideoID uint
	Err     error
	// FailedPresets labels that failed inside a Partial result
	FailedPresets []string
}

// Completed true when the job produced its handoff (full or partial)
func (r Result) Completed() bool {
	return r.Code == Success || r.Code == Partial
}

// Succeed build a Success result
func Succeed(videoID uint) Result {
	return Result{Code: Success, VideoID: videoID}
}

// PartialSuccess build a Partial result carrying the failed subset
func PartialSuccess(videoID uint, failed []string) Result {
	return Result{Code: Partial, VideoID: videoID, FailedPresets: failed}
}

// Fail build a HardFailure result
func Fail(videoID uint, err error) Result {
	return Result{Code: HardFailure, VideoID: videoID, Err: err}
}

// Reject build a BadMessage result
func Reject(err error) Result {
	return Result{Code: BadMessage, Err: err}
}

// Retry build a TransientFailure result
func Retry(videoID uint, err error) Result {
	return Result{Code: TransientFailure, VideoID: videoID, Err: err}
}
