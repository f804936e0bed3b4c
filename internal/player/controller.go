package player

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/miekas/podradio/internal/feed"
	"github.com/miekas/podradio/internal/queue"
)

// Recorder receives play-history events. Implementations must not call back
// into the controller.
type Recorder interface {
	Record(title, url, outcome string, offset time.Duration)
}

// Outcome values passed to the Recorder.
const (
	OutcomeStarted   = "started"
	OutcomeCompleted = "completed"
	OutcomeError     = "error"
	OutcomeTimeout   = "timeout"
	OutcomeSkipped   = "skipped"
)

// Config tunes the controller's timers.
type Config struct {
	// WatchdogWindow bounds how long a segment may sit in Starting before
	// the episode is abandoned. Tuned high for slow remote sources.
	WatchdogWindow time.Duration
	// StaleThreshold is the maximum paused-empty duration after which a
	// resume restarts the episode from zero instead of seeking.
	StaleThreshold time.Duration
	// RetryDelay is the backoff before rescheduling playback after a
	// pipeline failure or watchdog timeout.
	RetryDelay time.Duration
}

// Controller owns the playback state machine. It selects episodes, starts and
// stops pipelines, tracks the resume offset, and reacts to end-of-stream,
// pipeline errors and the watchdog. It never inspects channel membership
// itself; the presence gate drives it through StartOrResume/PauseForEmpty.
//
// Every armed timer is owned by exactly one segment: timers capture the
// segment generation and no-op if the generation has moved on, and they are
// cancelled whenever the segment ends for any reason.
type Controller struct {
	log     zerolog.Logger
	queue   *queue.Queue
	factory PipelineFactory
	cfg     Config

	notify  Notifier // optional
	history Recorder // optional

	now func() time.Time // swapped in tests

	mu            sync.Mutex
	status        Status
	current       *feed.Episode
	resumeOffset  time.Duration
	segmentStart  time.Time
	pausedAt      time.Time
	pipeline      Pipeline
	generation    uint64
	startInFlight bool
	pendingDone   *doneEvent
	watchdog      *time.Timer
	retry         *time.Timer
	closed        bool
}

// doneEvent parks a pipeline completion that arrived while its start call was
// still in flight; it is replayed once the start bookkeeping finishes.
type doneEvent struct {
	err error
}

// New creates a controller in the waiting-for-listener state.
func New(log zerolog.Logger, q *queue.Queue, factory PipelineFactory, cfg Config) *Controller {
	return &Controller{
		log:     log.With().Str("component", "player").Logger(),
		queue:   q,
		factory: factory,
		cfg:     cfg,
		now:     time.Now,
		status:  StatusWaitingForListener,
	}
}

// SetNotifier installs the announcement sink. Call before the first event.
func (c *Controller) SetNotifier(n Notifier) { c.notify = n }

// SetRecorder installs the play-history sink. Call before the first event.
func (c *Controller) SetRecorder(r Recorder) { c.history = r }

// Status returns the current state machine status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// NowPlaying returns the current episode and the playback position.
func (c *Controller) NowPlaying() (feed.Episode, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return feed.Episode{}, 0, errors.New("nothing has played yet")
	}
	return *c.current, c.positionLocked(), nil
}

// positionLocked computes resumeOffset plus elapsed wall time while playing.
func (c *Controller) positionLocked() time.Duration {
	if c.status == StatusPlaying {
		return c.resumeOffset + c.now().Sub(c.segmentStart)
	}
	return c.resumeOffset
}

// StartOrResume reacts to a listener joining an empty channel. Cold start,
// resume-or-restart from a presence pause (staleness rule), or plain unpause
// from a manual pause. No-op in any other state.
func (c *Controller) StartOrResume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	switch c.status {
	case StatusWaitingForListener:
		c.log.Info().Msg("first listener joined, starting playback")
		c.startSegmentLocked("cold start")
	case StatusPausedEmpty:
		if c.now().Sub(c.pausedAt) > c.cfg.StaleThreshold {
			c.log.Info().Dur("paused_for", c.now().Sub(c.pausedAt)).Msg("pause went stale, restarting episode from zero")
			c.resumeOffset = 0
		}
		c.startSegmentLocked("listener rejoined")
	case StatusPausedManual:
		// Manual pauses keep their offset and ignore staleness.
		c.startSegmentLocked("listener rejoined after manual pause")
	}
}

// PauseForEmpty reacts to the channel emptying out. Accumulates elapsed time
// into the resume offset and releases the pipeline; the queue cursor and the
// offset are preserved. A concurrent manual pause is converted to a presence
// pause so the staleness rule applies on the next join.
func (c *Controller) PauseForEmpty() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	switch c.status {
	case StatusPlaying:
		c.resumeOffset += c.now().Sub(c.segmentStart)
	case StatusStarting, StatusTransitioning, StatusPausedManual:
		// Nothing accumulated: no audio was flowing.
	default:
		return
	}

	c.endSegmentLocked()
	c.status = StatusPausedEmpty
	c.pausedAt = c.now()
	c.log.Info().Dur("resume_offset", c.resumeOffset).Msg("channel empty, playback paused")
	if c.notify != nil {
		c.notify.Paused("channel empty")
	}
}

// Pause suspends playback on explicit request, preserving the offset.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("player is shut down")
	}

	switch c.status {
	case StatusPlaying:
		c.resumeOffset += c.now().Sub(c.segmentStart)
	case StatusStarting:
		// Pausing before first bytes keeps whatever offset was requested.
	case StatusPausedEmpty, StatusPausedManual:
		return errors.New("playback is already paused")
	default:
		return errors.Errorf("cannot pause while %s", c.status)
	}

	c.endSegmentLocked()
	c.status = StatusPausedManual
	c.pausedAt = c.now()
	c.log.Info().Dur("resume_offset", c.resumeOffset).Msg("playback paused manually")
	if c.notify != nil {
		c.notify.Paused("paused by request")
	}
	return nil
}

// Resume restarts playback from the saved offset after a pause. The staleness
// rule applies only to presence pauses.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("player is shut down")
	}

	switch c.status {
	case StatusPausedManual:
		c.startSegmentLocked("manual resume")
	case StatusPausedEmpty:
		if c.now().Sub(c.pausedAt) > c.cfg.StaleThreshold {
			c.resumeOffset = 0
		}
		c.startSegmentLocked("manual resume from empty pause")
	case StatusPlaying, StatusStarting:
		return errors.New("playback is not paused")
	case StatusWaitingForListener:
		return errors.New("waiting for the first listener")
	default:
		return errors.Errorf("cannot resume while %s", c.status)
	}
	return nil
}

// Skip abandons the current episode: the queue advances and the offset resets
// to zero. While paused the cursor and offset still move, but playback stays
// suspended until the next resume trigger.
func (c *Controller) Skip() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("player is shut down")
	}
	if c.queue.Len() == 0 {
		return errors.New("episode queue is empty")
	}
	if c.status == StatusWaitingForListener {
		return errors.New("waiting for the first listener")
	}

	if c.current != nil {
		c.recordLocked(*c.current, OutcomeSkipped)
	}
	c.queue.Advance()
	c.resumeOffset = 0

	switch c.status {
	case StatusPausedEmpty, StatusPausedManual:
		// Stay paused; the new cursor and zero offset take effect on the
		// next resume trigger.
	default:
		c.startSegmentLocked("skip")
	}
	return nil
}

// Restart replays the current episode from the beginning: the offset resets
// to zero and the queue cursor stays put.
func (c *Controller) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("player is shut down")
	}
	if c.queue.Len() == 0 {
		return errors.New("episode queue is empty")
	}
	if c.status == StatusWaitingForListener {
		return errors.New("waiting for the first listener")
	}

	c.resumeOffset = 0
	switch c.status {
	case StatusPausedEmpty, StatusPausedManual:
		// Stay paused; the reset offset takes effect on the next resume.
	default:
		c.startSegmentLocked("restart")
	}
	return nil
}

// Shutdown cancels all timers and kills any live pipeline. The controller
// rejects all events afterwards.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.endSegmentLocked()
	c.log.Info().Msg("player shut down")
}

// endSegmentLocked tears down the current segment: clears every armed timer,
// kills the live pipeline, and bumps the generation so any in-flight callback
// belonging to the old segment becomes a no-op.
func (c *Controller) endSegmentLocked() {
	c.clearTimersLocked()
	if c.pipeline != nil {
		c.pipeline.Kill()
		c.pipeline = nil
	}
	c.pendingDone = nil
	c.generation++
}

func (c *Controller) clearTimersLocked() {
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

// startSegmentLocked begins one playback attempt at the current queue cursor
// and resume offset. Concurrent starts are dropped, not queued: at most one
// start is ever in flight, which keeps two pipelines from racing into the
// same voice sink.
func (c *Controller) startSegmentLocked(reason string) {
	if c.closed {
		return
	}
	if c.startInFlight {
		c.log.Warn().Str("reason", reason).Msg("start already in flight, dropping request")
		return
	}

	c.endSegmentLocked()

	ep, ok := c.queue.Current()
	if !ok {
		c.log.Warn().Msg("episode queue is empty, retrying later")
		c.scheduleRetryLocked()
		return
	}

	gen := c.generation
	c.status = StatusStarting
	c.current = &ep
	c.startInFlight = true
	offset := c.resumeOffset

	c.log.Info().
		Str("episode", ep.Title).
		Dur("offset", offset).
		Str("reason", reason).
		Uint64("segment", gen).
		Msg("starting segment")

	c.watchdog = time.AfterFunc(c.cfg.WatchdogWindow, func() {
		c.onWatchdog(gen)
	})

	go c.spawn(gen, ep, offset)
}

// spawn runs the (possibly slow) pipeline start outside the lock.
func (c *Controller) spawn(gen uint64, ep feed.Episode, offset time.Duration) {
	p, err := c.factory.Start(StartRequest{
		URL:    ep.URL,
		Offset: offset,
		OnStarted: func() {
			c.onPipelineStarted(gen)
		},
		OnFinished: func(err error) {
			c.onPipelineDone(gen, err)
		},
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	c.startInFlight = false

	if gen != c.generation || c.closed {
		// The segment ended while the start was in flight.
		if p != nil {
			p.Kill()
		}
		return
	}

	if err != nil {
		c.log.Error().Err(err).Str("episode", ep.Title).Msg("pipeline start failed, advancing")
		c.recordLocked(ep, OutcomeError)
		c.advanceAndRetryLocked()
		return
	}

	c.pipeline = p

	// A completion may have raced the start bookkeeping; replay it now.
	if c.pendingDone != nil {
		done := c.pendingDone
		c.pendingDone = nil
		c.handleDoneLocked(done.err)
	}
}

// onPipelineStarted handles the one-time first-bytes signal.
func (c *Controller) onPipelineStarted(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.generation || c.status != StatusStarting {
		return
	}

	c.clearTimersLocked()
	c.status = StatusPlaying
	c.segmentStart = c.now()

	ep := *c.current
	c.log.Info().Str("episode", ep.Title).Dur("offset", c.resumeOffset).Msg("audio flowing")
	c.recordLocked(ep, OutcomeStarted)
	if c.notify != nil {
		c.notify.NowPlaying(ep, c.resumeOffset)
	}
}

// onPipelineDone handles natural end-of-stream and mid-stream errors. A nil
// error while playing is a clean advance; anything else is an error advance
// with a retry backoff. Stale generations (killed pipelines) are ignored.
func (c *Controller) onPipelineDone(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.generation {
		return
	}

	if c.startInFlight {
		// The pipeline finished before its own start call returned; park
		// the event until the bookkeeping completes.
		c.pendingDone = &doneEvent{err: err}
		return
	}

	c.handleDoneLocked(err)
}

func (c *Controller) handleDoneLocked(err error) {
	ep := c.current

	if err == nil && c.status == StatusPlaying {
		c.log.Info().Str("episode", ep.Title).Msg("episode completed")
		c.recordLocked(*ep, OutcomeCompleted)
		c.endSegmentLocked()
		c.resumeOffset = 0
		c.queue.Advance()
		c.status = StatusTransitioning
		c.startSegmentLocked("next episode")
		return
	}

	// Stream error, or EOF before any audio arrived (start failure).
	if err != nil {
		c.log.Error().Err(err).Str("episode", ep.Title).Msg("pipeline error, advancing")
	} else {
		c.log.Warn().Str("episode", ep.Title).Msg("stream ended before audio arrived, advancing")
	}
	c.recordLocked(*ep, OutcomeError)
	c.advanceAndRetryLocked()
}

// onWatchdog fires when a segment produced no audio inside the window. It is
// a no-op if the segment already transitioned out of Starting; a concurrent
// presence pause always wins this race.
func (c *Controller) onWatchdog(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.generation || c.status != StatusStarting {
		return
	}

	ep := c.current
	c.log.Warn().
		Str("episode", ep.Title).
		Dur("window", c.cfg.WatchdogWindow).
		Msg("no audio within watchdog window, advancing")
	c.recordLocked(*ep, OutcomeTimeout)
	c.advanceAndRetryLocked()
}

// advanceAndRetryLocked is the shared failure recovery: reset the offset,
// advance the queue, and reschedule playback after the backoff.
func (c *Controller) advanceAndRetryLocked() {
	c.endSegmentLocked()
	c.resumeOffset = 0
	c.queue.Advance()
	c.scheduleRetryLocked()
}

// scheduleRetryLocked arms the retry timer for the upcoming segment. The
// timer carries the post-teardown generation so any other transition in the
// meantime invalidates it.
func (c *Controller) scheduleRetryLocked() {
	c.status = StatusTransitioning
	gen := c.generation
	c.retry = time.AfterFunc(c.cfg.RetryDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.generation || c.status != StatusTransitioning {
			return
		}
		if c.startInFlight {
			// A hung start from a dead segment still occupies the slot;
			// try again after another backoff instead of stalling.
			c.scheduleRetryLocked()
			return
		}
		c.startSegmentLocked("retry")
	})
}

func (c *Controller) recordLocked(ep feed.Episode, outcome string) {
	if c.history == nil {
		return
	}
	c.history.Record(ep.Title, ep.URL, outcome, c.resumeOffset)
}
