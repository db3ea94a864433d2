package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/swf2js/internal/geom"
	"github.com/ivlev/swf2js/internal/timeline"
)

// Dump is the YAML form of a timeline, for inspection.
type Dump struct {
	Version    string       `yaml:"version"`
	FrameCount int          `yaml:"frame_count"`
	Layers     []LayerDump  `yaml:"layers"`
	Actions    []ActionDump `yaml:"actions,omitempty"`
}

// LayerDump is the sparse history of one depth.
type LayerDump struct {
	Depth   int          `yaml:"depth"`
	Changes []ChangeDump `yaml:"changes"`
}

// ChangeDump is one history entry. Removed entries carry no object.
type ChangeDump struct {
	Frame     int          `yaml:"frame"`
	Removed   bool         `yaml:"removed,omitempty"`
	Character *int         `yaml:"character,omitempty"`
	Matrix    *geom.Matrix `yaml:"matrix,omitempty"`
	Name      *string      `yaml:"name,omitempty"`
}

// ActionDump lists the IR of each block attached to a frame.
type ActionDump struct {
	Frame  int        `yaml:"frame"`
	Blocks [][]string `yaml:"blocks"`
}

// NewDump converts tl. Identity matrices are omitted.
func NewDump(tl *timeline.Timeline) *Dump {
	d := &Dump{Version: "1.0", FrameCount: int(tl.FrameCount())}

	for _, depth := range tl.Depths() {
		ld := LayerDump{Depth: int(depth)}
		for _, c := range tl.Layer(depth).Changes() {
			cd := ChangeDump{Frame: int(c.Frame)}
			if c.Object == nil {
				cd.Removed = true
			} else {
				character := int(c.Object.Character)
				cd.Character = &character
				if !c.Object.Matrix.IsIdentity() {
					m := c.Object.Matrix
					cd.Matrix = &m
				}
				if c.Object.HasName {
					name := c.Object.Name
					cd.Name = &name
				}
			}
			ld.Changes = append(ld.Changes, cd)
		}
		d.Layers = append(d.Layers, ld)
	}

	for _, f := range tl.ActionFrames() {
		ad := ActionDump{Frame: int(f)}
		for _, code := range tl.ActionsAt(f) {
			ops := make([]string, len(code.Ops))
			for i, op := range code.Ops {
				ops[i] = op.String()
			}
			ad.Blocks = append(ad.Blocks, ops)
		}
		d.Actions = append(d.Actions, ad)
	}

	return d
}

// WriteTimeline writes the YAML dump of tl to w.
func WriteTimeline(w io.Writer, tl *timeline.Timeline) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDump(tl)); err != nil {
		return err
	}
	return enc.Close()
}
