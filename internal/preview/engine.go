package preview

import (
	"context"
	"fmt"

	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// EngineThumbnails produces thumbnails through a rendering engine. Each
// request builds a scratch timeline holding only the source file and
// destroys it afterwards, so it never disturbs the editing timeline.
type EngineThumbnails struct {
	Engine render.Engine
	FPS    float64
}

// Thumbnail implements ThumbnailProducer.
func (p EngineThumbnails) Thumbnail(ctx context.Context, path string, timeMs int64, width, height int) (render.Frame, error) {
	if err := ctx.Err(); err != nil {
		return render.Frame{}, err
	}
	fps := p.FPS
	if fps <= 0 {
		fps = 30
	}

	tl, err := p.Engine.CreateTimeline(width, height, fps)
	if err != nil {
		return render.Frame{}, fmt.Errorf("create scratch timeline: %w", err)
	}
	defer p.Engine.DestroyTimeline(tl)

	track, err := p.Engine.AddTrack(tl, timeline.Video)
	if err != nil {
		return render.Frame{}, fmt.Errorf("add scratch track: %w", err)
	}
	if _, err := p.Engine.AddClip(tl, track, path, 0, timeMs+1); err != nil {
		return render.Frame{}, fmt.Errorf("add %s: %w", path, err)
	}
	return p.Engine.RenderFrame(tl, timeMs)
}
