package export

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/swf2js/internal/js"
	"github.com/ivlev/swf2js/internal/timeline"
)

// FrameFunc is the compiled action function of one frame.
type FrameFunc struct {
	Frame timeline.Frame
	Code  js.Code
}

// Frames compiles the actions of every frame, up to workers at a time.
// Frames share nothing, so each goroutine writes only its own slot.
// The result is in frame order.
func Frames(ctx context.Context, tl *timeline.Timeline, workers int) ([]FrameFunc, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	frames := tl.ActionFrames()
	out := make([]FrameFunc, len(frames))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range frames {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			code, err := Function(tl.ActionsAt(f))
			if err != nil {
				return fmt.Errorf("frame %d: %w", f, err)
			}
			out[i] = FrameFunc{Frame: f, Code: code}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
