package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCharacter: a place without character at an empty depth.
	ErrMissingCharacter = errors.New("missing character id on first placement")
	// ErrCharacterMismatch: a non-move place names a different character.
	ErrCharacterMismatch = errors.New("character id mismatch without move")
	// ErrUnplacedDepth: a remove at a depth that was never placed.
	ErrUnplacedDepth = errors.New("no object was ever placed at depth")
	// ErrFrameCount: Finish saw a different number of advanced frames.
	ErrFrameCount = errors.New("frame count mismatch")
	// ErrFinished: the builder was used after Finish.
	ErrFinished = errors.New("builder already finished")
)

// Error is returned by every Builder operation. Err is one of the
// sentinel errors above, or a lowering error for DoAction.
type Error struct {
	Op    string
	Depth Depth
	Frame Frame
	// Want and Got are set for ErrCharacterMismatch (character ids) and
	// ErrFrameCount (frame counts).
	Want, Got int
	Err       error
}

func (e *Error) Error() string {
	var where string
	switch e.Op {
	case opPlace, opRemove:
		where = fmt.Sprintf("%s depth %d frame %d", e.Op, e.Depth, e.Frame)
	default:
		where = fmt.Sprintf("%s frame %d", e.Op, e.Frame)
	}

	switch {
	case errors.Is(e.Err, ErrCharacterMismatch):
		return fmt.Sprintf("timeline: %s: %v (have %d, record %d)", where, e.Err, e.Want, e.Got)
	case errors.Is(e.Err, ErrFrameCount):
		return fmt.Sprintf("timeline: %s: %v (expected %d, found %d)", where, e.Err, e.Want, e.Got)
	}
	return fmt.Sprintf("timeline: %s: %v", where, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	opPlace  = "place_object"
	opRemove = "remove_object"
	opAction = "do_action"
	opFinish = "finish"
)
