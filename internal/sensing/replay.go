package sensing

import (
	"context"

	"github.com/kdimtricp/triakustika/internal/models"
)

// Replay runs one complete session on a manually stepped controller, ticking
// until a tick yields no frame (the stream is exhausted) or ctx is done. It
// returns the features and the number of frames sampled.
func Replay(ctx context.Context, c *Controller, scheduler *ManualScheduler) (models.FeatureTriple, int, error) {
	if err := c.Start(ctx); err != nil {
		return models.FeatureTriple{}, 0, err
	}

	frames := 0
	for ctx.Err() == nil {
		if !scheduler.Tick() {
			break
		}
		n := c.Status().Frames
		if n == frames {
			break
		}
		frames = n
	}

	features, err := c.Stop()
	if err != nil {
		return models.FeatureTriple{}, frames, err
	}
	return features, frames, ctx.Err()
}
