package timeline

import (
	"sort"

	"github.com/ivlev/swf2js/internal/avm1"
)

// Timeline is the finished, read-only result of a Builder.
type Timeline struct {
	layers     map[Depth]*Layer
	actions    map[Frame][]*avm1.Code
	frameCount Frame
}

// Placed is an effective object together with its depth.
type Placed struct {
	Depth  Depth
	Object Object
}

// FrameCount is the number of frames stamped by Finish.
func (t *Timeline) FrameCount() Frame {
	return t.frameCount
}

// Depths returns every depth that was ever placed, ascending.
func (t *Timeline) Depths() []Depth {
	depths := make([]Depth, 0, len(t.layers))
	for d := range t.layers {
		depths = append(depths, d)
	}
	sort.Slice(depths, func(i, j int) bool { return depths[i] < depths[j] })
	return depths
}

// Layer returns the history of depth d, or nil if nothing was placed there.
func (t *Timeline) Layer(d Depth) *Layer {
	return t.layers[d]
}

// ObjectAt returns the effective object at depth d and frame f.
func (t *Timeline) ObjectAt(d Depth, f Frame) (Object, bool) {
	layer, ok := t.layers[d]
	if !ok {
		return Object{}, false
	}
	return layer.ObjectAt(f)
}

// DisplayList returns the objects visible at frame f in stacking order.
func (t *Timeline) DisplayList(f Frame) []Placed {
	var list []Placed
	for _, d := range t.Depths() {
		if obj, ok := t.layers[d].ObjectAt(f); ok {
			list = append(list, Placed{Depth: d, Object: obj})
		}
	}
	return list
}

// ActionFrames returns the frames that carry action blocks, ascending.
func (t *Timeline) ActionFrames() []Frame {
	frames := make([]Frame, 0, len(t.actions))
	for f := range t.actions {
		frames = append(frames, f)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	return frames
}

// ActionsAt returns the blocks attached to frame f in encounter order.
func (t *Timeline) ActionsAt(f Frame) []*avm1.Code {
	return t.actions[f]
}
