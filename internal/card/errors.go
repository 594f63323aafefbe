package card

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSelection is returned when an export is requested without records.
	ErrNoSelection = errors.New("no records selected")

	// ErrNoCardSurfaces is returned when rendering produced nothing to export.
	ErrNoCardSurfaces = errors.New("no card surfaces found")
)

// RenderError reports a card whose bitmap could not be captured.
type RenderError struct {
	RecordID string
	Err      error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("render card %s: %v", e.RecordID, e.Err)
	}
	return fmt.Sprintf("render card %s", e.RecordID)
}

func (e *RenderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
