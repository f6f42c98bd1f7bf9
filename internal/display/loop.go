package display

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/skyward/skytrack/internal/astro"
	"github.com/skyward/skytrack/internal/config"
	"github.com/skyward/skytrack/internal/engine"
	"github.com/skyward/skytrack/internal/mirror"
)

// clearScreen homes the cursor and erases the whole screen, so each frame
// is drawn from the top of a blank terminal.
const clearScreen = "\033[H\033[2J"

// Loop is the UI consumer: once a second it copies the published snapshot,
// merges it through the smoothing cache, renders a frame, and hands the
// frame to the terminal and the mirror server. It never waits on the
// compute side.
type Loop struct {
	state    *engine.State
	smoother *engine.Smoother
	frames   *mirror.FrameStore
	clock    *astro.Clock
	cfg      func() config.Config
	total    func() int
	out      io.Writer
	logger   *slog.Logger
}

// NewLoop creates the render loop. out is the terminal writer (nil
// disables terminal output, keeping only the mirror feed).
func NewLoop(state *engine.State, frames *mirror.FrameStore, clock *astro.Clock,
	cfg func() config.Config, total func() int, out io.Writer, logger *slog.Logger) *Loop {
	return &Loop{
		state:    state,
		smoother: engine.NewSmoother(0),
		frames:   frames,
		clock:    clock,
		cfg:      cfg,
		total:    total,
		out:      out,
		logger:   logger,
	}
}

// Run renders frames until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("render loop stopped")
			return
		case <-ticker.C:
			l.renderOnce()
		}
	}
}

func (l *Loop) renderOnce() {
	snap := l.state.Read()
	cfg := l.cfg()

	rows := l.smoother.Merge(snap.Rows, time.Now(), cfg.EffectiveMaxObjects())
	frame := Render(rows, cfg, l.total(), l.clock.Display())

	l.frames.Set(frame)
	if l.out != nil {
		fmt.Fprint(l.out, clearScreen+frame)
	}
}
