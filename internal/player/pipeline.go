package player

import (
	"time"

	"github.com/miekas/podradio/internal/feed"
)

// Pipeline is a handle to one live transcoding subprocess. Kill is idempotent
// and safe to call after the subprocess has already exited.
type Pipeline interface {
	Kill()
}

// StartRequest describes one playback segment: a source URL, a start offset,
// and the one-shot callbacks the controller uses to track the segment.
type StartRequest struct {
	URL    string
	Offset time.Duration

	// OnStarted fires once, when the first audio bytes arrive. This is
	// distinct from "process spawned", which can precede real audio by
	// seconds on slow remote sources.
	OnStarted func()

	// OnFinished fires once when the stream ends: nil on natural
	// end-of-stream, non-nil on a pipeline error. A killed pipeline may
	// still fire this; the controller discards it by segment generation.
	OnFinished func(err error)
}

// PipelineFactory spawns transcoding pipelines. The ffmpeg implementation
// lives in internal/ffmpeg; tests inject fakes.
type PipelineFactory interface {
	Start(req StartRequest) (Pipeline, error)
}

// Notifier receives playback announcements. All methods are best-effort and
// must not call back into the controller.
type Notifier interface {
	NowPlaying(ep feed.Episode, offset time.Duration)
	Paused(reason string)
}
