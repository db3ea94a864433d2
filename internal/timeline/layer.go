// Package timeline reconstructs the per-frame display list of a movie
// from its sparse stream of place and remove records.
package timeline

import (
	"github.com/google/btree"

	"github.com/ivlev/swf2js/internal/geom"
)

// Depth is a stacking slot on the display list.
type Depth uint16

// Frame is a 0-based frame index.
type Frame uint16

// CharacterID references a character in the movie dictionary.
type CharacterID uint16

// Object is the state of one display-list slot at one point in time.
type Object struct {
	Character CharacterID
	Matrix    geom.Matrix
	Name      string
	HasName   bool
}

// NewObject returns a character at the identity transform with no name.
func NewObject(character CharacterID) Object {
	return Object{Character: character, Matrix: geom.Identity()}
}

// Change is one history entry of a Layer. A nil Object means the slot
// was cleared at Frame.
type Change struct {
	Frame  Frame
	Object *Object
}

type entry struct {
	frame Frame
	obj   *Object
}

func lessEntry(a, b entry) bool { return a.frame < b.frame }

// Layer is the sparse history of one depth, keyed by frame.
type Layer struct {
	frames *btree.BTreeG[entry]
}

func newLayer() *Layer {
	return &Layer{frames: btree.NewG(8, lessEntry)}
}

// latest returns the entry with the greatest frame <= f.
func (l *Layer) latest(f Frame) (entry, bool) {
	var found entry
	var ok bool
	l.frames.DescendLessOrEqual(entry{frame: f}, func(e entry) bool {
		found, ok = e, true
		return false
	})
	return found, ok
}

// ObjectAt returns the effective object at frame f: the entry with the
// greatest frame <= f, unless there is none or it is a removal.
func (l *Layer) ObjectAt(f Frame) (Object, bool) {
	e, ok := l.latest(f)
	if !ok || e.obj == nil {
		return Object{}, false
	}
	return *e.obj, true
}

// ChangedAt reports whether the layer has an entry exactly at f.
func (l *Layer) ChangedAt(f Frame) bool {
	return l.frames.Has(entry{frame: f})
}

// Len is the number of history entries.
func (l *Layer) Len() int {
	return l.frames.Len()
}

// Changes returns the history in frame order. Objects are copies.
func (l *Layer) Changes() []Change {
	changes := make([]Change, 0, l.frames.Len())
	l.frames.Ascend(func(e entry) bool {
		c := Change{Frame: e.frame}
		if e.obj != nil {
			obj := *e.obj
			c.Object = &obj
		}
		changes = append(changes, c)
		return true
	})
	return changes
}
