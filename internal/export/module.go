package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ivlev/swf2js/internal/geom"
	"github.com/ivlev/swf2js/internal/js"
	"github.com/ivlev/swf2js/internal/timeline"
)

// Module renders the timeline as an ES module. Layers keep their sparse
// form: per depth, a list of [frame, object] pairs where null marks a
// removal. Matrices are [a, b, c, d, tx, ty] with translation in twips.
func Module(tl *timeline.Timeline, funcs []FrameFunc) js.Code {
	var b strings.Builder

	b.WriteString("export default {\n")
	fmt.Fprintf(&b, "  frameCount: %d,\n", tl.FrameCount())

	b.WriteString("  layers: {\n")
	for _, d := range tl.Depths() {
		fmt.Fprintf(&b, "    %d: [\n", d)
		for _, c := range tl.Layer(d).Changes() {
			fmt.Fprintf(&b, "      [%d, %s],\n", c.Frame, objectLiteral(c.Object))
		}
		b.WriteString("    ],\n")
	}
	b.WriteString("  },\n")

	b.WriteString("  actions: {\n")
	for _, f := range funcs {
		fmt.Fprintf(&b, "    %d: %s,\n", f.Frame, js.Indent(js.Indent(f.Code)))
	}
	b.WriteString("  },\n")

	b.WriteString("};\n")
	return js.Code(b.String())
}

// WriteModule writes Module(tl, funcs) to w.
func WriteModule(w io.Writer, tl *timeline.Timeline, funcs []FrameFunc) error {
	_, err := io.WriteString(w, string(Module(tl, funcs)))
	return err
}

func objectLiteral(obj *timeline.Object) js.Code {
	if obj == nil {
		return js.Null
	}
	lit := fmt.Sprintf("{character: %d, matrix: %s", obj.Character, matrixLiteral(obj.Matrix))
	if obj.HasName {
		lit += ", name: " + string(js.String(obj.Name))
	}
	return js.Code(lit + "}")
}

func matrixLiteral(m geom.Matrix) js.Code {
	return js.Concat("[",
		js.Float64(m.ScaleX.Float64()), ", ",
		js.Float64(m.RotateSkew0.Float64()), ", ",
		js.Float64(m.RotateSkew1.Float64()), ", ",
		js.Float64(m.ScaleY.Float64()), ", ",
		js.Int(int64(m.TranslateX)), ", ",
		js.Int(int64(m.TranslateY)),
		"]")
}
