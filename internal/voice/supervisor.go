package voice

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// silenceFrame is the opus silence payload used for keep-alives.
var silenceFrame = []byte{0xF8, 0xFF, 0xFE}

// Config tunes the supervisor's recovery and keep-alive behavior.
type Config struct {
	GuildID   string
	ChannelID string

	// GraceWindow is how long a dropped connection may recover in place
	// before the supervisor tears it down and rejoins.
	GraceWindow time.Duration
	// RejoinDelay is the fixed wait before a full rejoin attempt.
	RejoinDelay time.Duration
	// KeepAliveInterval paces the best-effort silence keep-alive while idle.
	KeepAliveInterval time.Duration
}

// Supervisor owns the voice connection lifecycle: it joins once, watches for
// disconnects, recovers in place within a grace window or rejoins after a
// fixed delay, and keeps the network path warm while idle. The playback
// pipeline only ever sees the supervisor, never the raw connection.
type Supervisor struct {
	log     zerolog.Logger
	session *discordgo.Session
	cfg     Config

	mu sync.Mutex
	vc *discordgo.VoiceConnection

	done      chan struct{}
	closeOnce sync.Once
}

// NewSupervisor creates a supervisor; call Connect before Run.
func NewSupervisor(log zerolog.Logger, session *discordgo.Session, cfg Config) *Supervisor {
	return &Supervisor{
		log:     log.With().Str("component", "voice").Logger(),
		session: session,
		cfg:     cfg,
		done:    make(chan struct{}),
	}
}

// Connect joins the configured voice channel with retries and waits for the
// connection to become ready. Failure here is fatal to the caller.
func (s *Supervisor) Connect() error {
	vc, err := s.join()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.vc = vc
	s.mu.Unlock()
	return nil
}

func (s *Supervisor) join() (*discordgo.VoiceConnection, error) {
	var vc *discordgo.VoiceConnection
	var err error

	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		vc, err = s.session.ChannelVoiceJoin(s.cfg.GuildID, s.cfg.ChannelID, false, true)
		if err == nil {
			break
		}
		s.log.Warn().Err(err).Int("attempt", i+1).Msg("voice join failed")
		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "joining voice channel after %d attempts", maxRetries)
	}

	// Wait for the connection to report ready.
	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			vc.Disconnect()
			return nil, errors.New("voice connection timed out waiting for ready")
		case <-ticker.C:
			if vc.Ready {
				s.log.Info().Str("channel", s.cfg.ChannelID).Msg("voice connection ready")
				return vc, nil
			}
		}
	}
}

// Run watches the connection and keeps it alive. Blocks until Close.
func (s *Supervisor) Run() {
	monitor := time.NewTicker(5 * time.Second)
	defer monitor.Stop()
	keepAlive := time.NewTicker(s.cfg.KeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-monitor.C:
			s.checkConnection()
		case <-keepAlive.C:
			s.sendKeepAlive()
		}
	}
}

// checkConnection gives a dropped connection the grace window to recover in
// place, then tears down and rejoins after the fixed delay.
func (s *Supervisor) checkConnection() {
	if s.Ready() {
		return
	}

	s.log.Warn().Dur("grace", s.cfg.GraceWindow).Msg("voice connection not ready, waiting for in-place recovery")

	deadline := time.Now().Add(s.cfg.GraceWindow)
	for time.Now().Before(deadline) {
		select {
		case <-s.done:
			return
		case <-time.After(500 * time.Millisecond):
		}
		if s.Ready() {
			s.log.Info().Msg("voice connection recovered in place")
			return
		}
	}

	s.log.Warn().Dur("delay", s.cfg.RejoinDelay).Msg("in-place recovery failed, rejoining")

	s.mu.Lock()
	if s.vc != nil {
		s.vc.Disconnect()
		s.vc = nil
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return
	case <-time.After(s.cfg.RejoinDelay):
	}

	vc, err := s.join()
	if err != nil {
		// The monitor tick will drive another attempt.
		s.log.Error().Err(err).Msg("voice rejoin failed")
		return
	}

	s.mu.Lock()
	s.vc = vc
	s.mu.Unlock()
}

// sendKeepAlive pushes a few silence frames through the connection to refresh
// the network path while idle. Best-effort; failures are swallowed.
func (s *Supervisor) sendKeepAlive() {
	s.mu.Lock()
	vc := s.vc
	s.mu.Unlock()

	if vc == nil || !vc.Ready {
		return
	}

	for i := 0; i < 5; i++ {
		select {
		case vc.OpusSend <- silenceFrame:
		default:
			return // pipeline is busy streaming, nothing to keep alive
		}
	}
}

// OpusSend returns the channel the pipeline writes opus frames into. When no
// connection is live it returns a drain channel so writers never block on a
// nil channel forever.
func (s *Supervisor) OpusSend() chan<- []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vc == nil {
		return discard
	}
	return s.vc.OpusSend
}

// discard swallows frames written while no connection is live.
var discard = newDiscardChannel()

func newDiscardChannel() chan []byte {
	ch := make(chan []byte, 16)
	go func() {
		for range ch {
		}
	}()
	return ch
}

// Speaking toggles the speaking flag, best-effort.
func (s *Supervisor) Speaking(on bool) {
	s.mu.Lock()
	vc := s.vc
	s.mu.Unlock()

	if vc == nil {
		return
	}
	if err := vc.Speaking(on); err != nil {
		s.log.Debug().Err(err).Msg("speaking update failed")
	}
}

// Ready reports whether the voice connection is live.
func (s *Supervisor) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vc != nil && s.vc.Ready
}

// Close disconnects and stops the supervisor.
func (s *Supervisor) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.vc != nil {
			s.vc.Disconnect()
			s.vc = nil
		}
	})
}
