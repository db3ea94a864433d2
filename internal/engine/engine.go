package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/swf2js/internal/avm1"
	"github.com/ivlev/swf2js/internal/config"
	"github.com/ivlev/swf2js/internal/export"
	"github.com/ivlev/swf2js/internal/js"
	"github.com/ivlev/swf2js/internal/source"
	"github.com/ivlev/swf2js/internal/system"
	"github.com/ivlev/swf2js/internal/timeline"
)

type Project struct {
	Config *config.Config
	Source source.Source
	Lower  avm1.Lowerer
}

func NewProject(cfg *config.Config, src source.Source) *Project {
	return &Project{
		Config: cfg,
		Source: src,
		Lower:  avm1.Bytecode,
	}
}

// Build feeds every tag to a timeline builder and finishes it against
// the header's frame count.
func (p *Project) Build() (*timeline.Timeline, error) {
	var opts []timeline.Option
	if p.Config.SceneOnly {
		opts = append(opts, timeline.WithoutNames())
	} else {
		opts = append(opts, timeline.WithLowerer(p.Lower))
	}
	b := timeline.NewBuilder(opts...)

	for i, tag := range p.Source.Tags() {
		if err := apply(b, tag); err != nil {
			return nil, fmt.Errorf("tag %d: %w", i, err)
		}
	}

	return b.Finish(timeline.Frame(p.Source.Header().FrameCount))
}

func apply(b *timeline.Builder, tag source.Tag) error {
	switch {
	case tag.ShowFrame:
		b.AdvanceFrame()
		return nil
	case tag.Place != nil:
		return b.PlaceObject(placeRecord(tag.Place))
	case tag.Remove != nil:
		return b.RemoveObject(timeline.Depth(tag.Remove.Depth))
	case tag.Action != nil:
		return b.DoAction(tag.Action)
	}
	return fmt.Errorf("empty tag")
}

func placeRecord(p *source.PlaceObject) timeline.Place {
	rec := timeline.Place{
		Depth:  timeline.Depth(p.Depth),
		Matrix: p.Matrix,
		Name:   p.Name,
		Move:   p.Move,
	}
	if p.Character != nil {
		id := timeline.CharacterID(*p.Character)
		rec.Character = &id
	}
	return rec
}

// Run builds the timeline, compiles its actions and writes the outputs.
func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()

	h := p.Source.Header()
	fmt.Println("--- [SWF2JS] ---")
	fmt.Printf("[*] Movie: %s | Version: %d | Frames: %d @ %.2f FPS | %dx%d\n",
		p.Config.InputPath, h.Version, h.FrameCount, h.FrameRate, h.Width, h.Height)
	fmt.Println("----------------")

	tl, err := p.Build()
	if err != nil {
		return fmt.Errorf("build timeline: %w", err)
	}
	buildEnd := time.Now()
	fmt.Printf("[*] Timeline: %d layers, %d frames with actions\n", len(tl.Depths()), len(tl.ActionFrames()))

	funcs, err := export.Frames(ctx, tl, p.Config.Workers)
	if err != nil {
		return fmt.Errorf("compile actions: %w", err)
	}
	compileEnd := time.Now()

	if p.Config.Check {
		for _, f := range funcs {
			if err := js.Check(f.Code); err != nil {
				return fmt.Errorf("frame %d: generated code does not parse: %w", f.Frame, err)
			}
		}
		fmt.Printf("[*] Checked %d functions\n", len(funcs))
	}

	if err := writeFile(p.Config.OutputPath, func(f *os.File) error {
		return export.WriteModule(f, tl, funcs)
	}); err != nil {
		return fmt.Errorf("write module: %w", err)
	}

	if p.Config.TimelinePath != "" {
		if err := writeFile(p.Config.TimelinePath, func(f *os.File) error {
			return export.WriteTimeline(f, tl)
		}); err != nil {
			return fmt.Errorf("write timeline: %w", err)
		}
		fmt.Printf("[*] Timeline written: %s\n", p.Config.TimelinePath)
	}

	if p.Config.ShowStats {
		p.report(startTime, buildEnd, compileEnd, len(funcs))
	}

	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (p *Project) report(start, buildEnd, compileEnd time.Time, funcs int) {
	total := time.Since(start)
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.3fs\n"+
			"Timeline: %.3fs\n"+
			"Compile (%d workers): %.3fs\n"+
			"Functions: %d\n",
		p.Config.BuildVersion, total.Seconds(),
		buildEnd.Sub(start).Seconds(),
		p.Config.Workers, compileEnd.Sub(buildEnd).Seconds(),
		funcs,
	)

	stats, err := system.CurrentProcessStats()
	if err == nil {
		report += fmt.Sprintf("RSS: %.1f MiB | Threads: %d | CPU: %.1f%%\n",
			float64(stats.RSS)/(1<<20), stats.Threads, stats.CPUPercent)
	} else {
		report += fmt.Sprintf("Process stats unavailable: %v\n", err)
	}

	fmt.Print(report + "----------------------------\n")
}
