package mindmap2pdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline stages.
//
// ErrNavigation matches every navigation failure: errors.Is reports true for
// it on both ErrNavigationTimeout and ErrSourceUnreachable.
var (
	ErrSessionLaunch     = errors.New("failed to launch browser session")
	ErrNavigation        = errors.New("source document failed to load")
	ErrNavigationTimeout = error(&navigationFailure{"source document did not load in time"})
	ErrSourceUnreachable = error(&navigationFailure{"source document could not be loaded"})
	ErrMeasure           = errors.New("failed to measure diagram")
	ErrNormalize         = errors.New("failed to normalize canvas")
	ErrRender            = errors.New("PDF rendering failed")
	ErrPoolClosed        = errors.New("session pool is closed")
	ErrInvalidAssetPath  = errors.New("invalid asset path")

	// Job validation errors.
	ErrInvalidJob         = errors.New("invalid export job")
	ErrEmptySource        = errors.New("source document cannot be empty")
	ErrEmptyOutput        = errors.New("output path cannot be empty")
	ErrInvalidPadding     = errors.New("invalid padding")
	ErrInvalidStrategy    = errors.New("invalid normalization strategy")
	ErrInvalidSettleMode  = errors.New("invalid settle mode")
	ErrInvalidCanvasSize  = errors.New("invalid canvas size")
	ErrInvalidPreview     = errors.New("invalid preview settings")
	ErrInvalidTheme       = errors.New("invalid theme")
	ErrInvalidSelector    = errors.New("invalid selector")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrUnsupportedPreview = errors.New("unsupported preview format")
)

// navigationFailure is a navigation sentinel that also matches ErrNavigation.
type navigationFailure struct {
	msg string
}

func (e *navigationFailure) Error() string { return e.msg }

func (e *navigationFailure) Is(target error) bool { return target == ErrNavigation }

// Stage identifies the pipeline step a job was executing.
type Stage string

// Pipeline stages, in execution order.
const (
	StageValidate  Stage = "validate"
	StageAcquire   Stage = "acquire"
	StageNavigate  Stage = "navigate"
	StageSettle    Stage = "settle"
	StageMeasure   Stage = "measure"
	StageNormalize Stage = "normalize"
	StageRender    Stage = "render"
)

// StageError reports a fatal job error together with the stage that failed.
type StageError struct {
	Stage Stage
	JobID string
	Err   error
}

func (e *StageError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("job %s: %s: %v", e.JobID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage recorded in err, or "" if err carries none.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
