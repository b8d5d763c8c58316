package stage

import (
	"errors"
	"fmt"
)

// Stage errors.
var (
	// ErrStageNotFound is returned when a stage id is unknown.
	ErrStageNotFound = errors.New("stage not found")

	// ErrNotImplemented is returned by stage operations without behaviour.
	ErrNotImplemented = errors.New("not implemented")

	// ErrEmptyScene is returned when exporting a scene without stages.
	ErrEmptyScene = errors.New("scene has no stages")

	// ErrDuplicateStage is returned when adding a stage whose id is taken.
	ErrDuplicateStage = errors.New("stage id already in use")

	// ErrNotAStage is returned when the stage plugin produces another type.
	ErrNotAStage = errors.New("stage plugin did not produce a stage")

	// ErrNoCurrentStage is returned by operations that need a selected stage.
	ErrNoCurrentStage = errors.New("no stage is selected")
)

// NotFoundError reports a stage id that is not part of the scene.
type NotFoundError struct {
	StageID string
}

// Error implements error.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("stage %q: %v", e.StageID, ErrStageNotFound)
}

// Unwrap returns ErrStageNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrStageNotFound
}
