package timeline

import (
	"math"

	"github.com/ivlev/swf2js/internal/avm1"
	"github.com/ivlev/swf2js/internal/geom"
)

// Place is a PlaceObject record. Nil fields were absent in the record.
type Place struct {
	Depth     Depth
	Character *CharacterID
	Matrix    *geom.Matrix
	Name      *string
	Move      bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLowerer makes the builder track DoAction blocks, lowering them
// with l. Without it DoAction records are ignored.
func WithLowerer(l avm1.Lowerer) Option {
	return func(b *Builder) { b.lowerer = l }
}

// WithoutNames drops instance names from placed objects.
func WithoutNames() Option {
	return func(b *Builder) { b.names = false }
}

// Builder consumes records in tag-stream order. It is not safe for
// concurrent use.
type Builder struct {
	tl       *Timeline
	current  Frame
	advanced int
	finished bool

	lowerer avm1.Lowerer
	names   bool
}

// NewBuilder returns a builder positioned at frame 0.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		tl: &Timeline{
			layers:  make(map[Depth]*Layer),
			actions: make(map[Frame][]*avm1.Code),
		},
		names: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CurrentFrame is the frame records are being applied to.
func (b *Builder) CurrentFrame() Frame {
	return b.current
}

// PlaceObject inserts or updates the object at p.Depth for the current
// frame. State from the most recent earlier frame is carried forward
// unless the current frame already has an entry. Nothing is modified when
// an error is returned.
func (b *Builder) PlaceObject(p Place) error {
	if b.finished {
		return b.fail(opPlace, p.Depth, ErrFinished)
	}

	layer, ok := b.tl.layers[p.Depth]
	if !ok {
		layer = newLayer()
	}

	var obj *Object
	if e, ok := layer.frames.Get(entry{frame: b.current}); ok {
		obj = e.obj
	} else if e, ok := layer.latest(b.current); ok {
		obj = e.obj
	}

	var next Object
	switch {
	case obj != nil:
		next = *obj
	case p.Character != nil:
		next = NewObject(*p.Character)
	default:
		return b.fail(opPlace, p.Depth, ErrMissingCharacter)
	}

	if p.Character != nil {
		if p.Move {
			next = NewObject(*p.Character)
		} else if next.Character != *p.Character {
			err := b.fail(opPlace, p.Depth, ErrCharacterMismatch)
			err.Want, err.Got = int(next.Character), int(*p.Character)
			return err
		}
	}
	if p.Matrix != nil {
		next.Matrix = *p.Matrix
	}
	if p.Name != nil && b.names {
		next.Name, next.HasName = *p.Name, true
	}

	layer.frames.ReplaceOrInsert(entry{frame: b.current, obj: &next})
	b.tl.layers[p.Depth] = layer
	return nil
}

// RemoveObject clears depth d at the current frame, replacing any entry
// already recorded for this frame.
func (b *Builder) RemoveObject(d Depth) error {
	if b.finished {
		return b.fail(opRemove, d, ErrFinished)
	}

	layer, ok := b.tl.layers[d]
	if !ok {
		return b.fail(opRemove, d, ErrUnplacedDepth)
	}
	layer.frames.ReplaceOrInsert(entry{frame: b.current})
	return nil
}

// DoAction lowers raw and appends it to the current frame's blocks.
func (b *Builder) DoAction(raw []byte) error {
	if b.finished {
		return b.fail(opAction, 0, ErrFinished)
	}
	if b.lowerer == nil {
		return nil
	}

	code, err := b.lowerer.Lower(raw)
	if err != nil {
		return b.fail(opAction, 0, err)
	}
	b.tl.actions[b.current] = append(b.tl.actions[b.current], code)
	return nil
}

// AdvanceFrame moves to the next frame. Past the last representable
// frame the position stays put, but the advance is still counted, so
// Finish reports the mismatch.
func (b *Builder) AdvanceFrame() {
	b.advanced++
	if b.current < math.MaxUint16 {
		b.current++
	}
}

// Finish checks that exactly expected frames were advanced and returns
// the timeline. A mismatch is an error: a truncated timeline is
// inconsistent with its own frame count. The builder is unusable
// afterwards.
func (b *Builder) Finish(expected Frame) (*Timeline, error) {
	if b.finished {
		return nil, b.fail(opFinish, 0, ErrFinished)
	}
	b.finished = true

	if b.advanced != int(expected) {
		err := b.fail(opFinish, 0, ErrFrameCount)
		err.Want, err.Got = int(expected), b.advanced
		return nil, err
	}

	b.tl.frameCount = expected
	return b.tl, nil
}

func (b *Builder) fail(op string, d Depth, err error) *Error {
	return &Error{Op: op, Depth: d, Frame: b.current, Err: err}
}
