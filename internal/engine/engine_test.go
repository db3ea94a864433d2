package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/swf2js/internal/config"
	"github.com/ivlev/swf2js/internal/geom"
	"github.com/ivlev/swf2js/internal/source"
	"github.com/ivlev/swf2js/internal/timeline"
)

// y = x; stop
var setYFromX = source.Bytecode{
	0x96, 0x06, 0x00, 0x00, 'y', 0x00, 0x00, 'x', 0x00,
	0x1C,
	0x1D,
	0x07,
	0x00,
}

func u16(v uint16) *uint16 { return &v }

func str(s string) *string { return &s }

func testMovie() *source.Movie {
	m := geom.Matrix{ScaleX: geom.One, ScaleY: geom.One, TranslateX: 200}
	return &source.Movie{
		Head: source.Header{Version: 6, FrameCount: 3, FrameRate: 12, Width: 320, Height: 240},
		TagList: []source.Tag{
			{Place: &source.PlaceObject{Depth: 3, Character: u16(7), Name: str("hero")}},
			{Action: setYFromX},
			{ShowFrame: true},
			{Place: &source.PlaceObject{Depth: 3, Matrix: &m}},
			{ShowFrame: true},
			{Remove: &source.RemoveObject{Depth: 3}},
			{ShowFrame: true},
		},
	}
}

func TestBuild(t *testing.T) {
	p := NewProject(&config.Config{}, testMovie())
	tl, err := p.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if tl.FrameCount() != 3 {
		t.Errorf("Expected 3 frames, got %d", tl.FrameCount())
	}
	obj, ok := tl.ObjectAt(3, 1)
	if !ok || obj.Character != 7 || obj.Matrix.TranslateX != 200 || obj.Name != "hero" {
		t.Errorf("Unexpected object at frame 1: %+v", obj)
	}
	if _, ok := tl.ObjectAt(3, 2); ok {
		t.Error("Expected depth 3 to be empty at frame 2")
	}
	if blocks := tl.ActionsAt(0); len(blocks) != 1 || len(blocks[0].Ops) != 3 {
		t.Errorf("Unexpected actions at frame 0: %v", blocks)
	}
}

func TestBuildSceneOnly(t *testing.T) {
	p := NewProject(&config.Config{SceneOnly: true}, testMovie())
	tl, err := p.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(tl.ActionFrames()) != 0 {
		t.Error("Expected no actions in scene-only mode")
	}
	if obj, _ := tl.ObjectAt(3, 0); obj.HasName {
		t.Error("Expected no names in scene-only mode")
	}
}

func TestBuildErrors(t *testing.T) {
	t.Run("unplaced removal", func(t *testing.T) {
		m := testMovie()
		m.TagList = append([]source.Tag{{Remove: &source.RemoveObject{Depth: 9}}}, m.TagList...)

		_, err := NewProject(&config.Config{}, m).Build()
		if !errors.Is(err, timeline.ErrUnplacedDepth) {
			t.Fatalf("Expected ErrUnplacedDepth, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "tag 0:") {
			t.Errorf("Expected error to name tag 0: %v", err)
		}
	})

	t.Run("frame count", func(t *testing.T) {
		m := testMovie()
		m.Head.FrameCount = 4

		_, err := NewProject(&config.Config{}, m).Build()
		if !errors.Is(err, timeline.ErrFrameCount) {
			t.Fatalf("Expected ErrFrameCount, got %v", err)
		}
	})

	t.Run("unsupported bytecode", func(t *testing.T) {
		m := testMovie()
		m.TagList[1].Action = source.Bytecode{0x99, 0x02, 0x00, 0x00, 0x00}

		_, err := NewProject(&config.Config{}, m).Build()
		if err == nil || !strings.Contains(err.Error(), "Jump") {
			t.Fatalf("Expected Jump to be rejected, got %v", err)
		}
	})
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	moviePath := filepath.Join(dir, "movie.yaml")
	if err := source.WriteMovie(testMovie(), moviePath); err != nil {
		t.Fatalf("WriteMovie failed: %v", err)
	}
	movie, err := source.ReadMovie(moviePath)
	if err != nil {
		t.Fatalf("ReadMovie failed: %v", err)
	}

	cfg := &config.Config{
		InputPath:    moviePath,
		OutputPath:   filepath.Join(dir, "out", "movie.js"),
		TimelinePath: filepath.Join(dir, "out", "timeline.yaml"),
		Workers:      2,
		Check:        true,
		ShowStats:    true,
		BuildVersion: "test",
	}
	if err := NewProject(cfg, movie).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	module := string(out)
	for _, want := range []string{
		"frameCount: 3,",
		`var _0 = rt.getVar("x");`,
		`rt.setVar("y", _0);`,
		"rt.stop();",
		`name: "hero"`,
	} {
		if !strings.Contains(module, want) {
			t.Errorf("Module is missing %q:\n%s", want, module)
		}
	}

	dump, err := os.ReadFile(cfg.TimelinePath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(dump), "frame_count: 3") {
		t.Errorf("Unexpected timeline dump:\n%s", dump)
	}
}
