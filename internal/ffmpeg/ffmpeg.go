package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"layeh.com/gopus"

	"github.com/miekas/podradio/internal/player"
)

const (
	sampleRate = 48000
	channels   = 2
	frameSize  = 960                      // 20ms at 48kHz
	frameBytes = frameSize * channels * 2 // s16le
	sendWindow = 100 * time.Millisecond   // max wait on a full opus channel
)

// Sink is the voice transport the transcoder writes into. Satisfied by
// *voice.Supervisor.
type Sink interface {
	OpusSend() chan<- []byte
	Speaking(on bool)
	Ready() bool
}

// Transcoder spawns one ffmpeg subprocess per playback segment and streams
// its PCM output as opus frames into the voice sink. Implements
// player.PipelineFactory.
type Transcoder struct {
	log     zerolog.Logger
	binary  string
	bitrate int
	sink    Sink
}

// NewTranscoder creates a transcoder writing into the given sink.
func NewTranscoder(log zerolog.Logger, binary string, bitrate int, sink Sink) *Transcoder {
	return &Transcoder{
		log:     log.With().Str("component", "ffmpeg").Logger(),
		binary:  binary,
		bitrate: bitrate,
		sink:    sink,
	}
}

// Start spawns ffmpeg for one segment. The start offset is applied as an
// input-side seek (-ss before -i): podcast enclosures are CBR mp3/aac where
// input seeking is accurate enough, and it reaches first byte fast enough to
// stay well inside the watchdog window. Output-side seeking would decode and
// discard the prefix, which on an hour-long episode can exceed the window.
func (t *Transcoder) Start(req player.StartRequest) (player.Pipeline, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
	}
	if req.Offset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", req.Offset.Seconds()))
	}
	args = append(args,
		"-i", req.URL,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(sampleRate),
		"-ac", fmt.Sprint(channels),
		"-bufsize", "64k",
		"pipe:1",
	)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, t.binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "creating stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "creating stderr pipe")
	}

	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "creating opus encoder")
	}
	encoder.SetBitrate(t.bitrate)

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, errors.Wrap(err, "starting ffmpeg")
	}

	p := &process{cmd: cmd, cancel: cancel}

	go t.drainStderr(stderr)
	go t.stream(p, stdout, encoder, req)

	return p, nil
}

// drainStderr consumes ffmpeg diagnostics. They are logged, never parsed for
// control decisions.
func (t *Transcoder) drainStderr(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		t.log.Debug().Str("ffmpeg", scanner.Text()).Msg("transcoder output")
	}
}

// stream reads PCM frames, encodes them to opus and pushes them to the sink.
// The first successful read fires OnStarted; the terminal condition fires
// OnFinished exactly once.
func (t *Transcoder) stream(p *process, stdout io.ReadCloser, encoder *gopus.Encoder, req player.StartRequest) {
	var finishErr error
	defer func() {
		t.sink.Speaking(false)
		p.Kill()
		if req.OnFinished != nil {
			req.OnFinished(finishErr)
		}
	}()

	buf := make([]byte, frameBytes)
	started := false

	for {
		n, err := io.ReadFull(stdout, buf)
		if err == io.EOF {
			return // natural end of stream
		}
		if err == io.ErrUnexpectedEOF && n > 0 {
			// Final partial frame: pad with silence and flush it below.
			for i := n; i < frameBytes; i++ {
				buf[i] = 0
			}
			err = nil
		}
		if err != nil {
			if !started {
				finishErr = errors.Wrap(err, "stream ended before first frame")
			} else {
				finishErr = errors.Wrap(err, "reading pcm stream")
			}
			return
		}

		if !started {
			started = true
			t.sink.Speaking(true)
			if req.OnStarted != nil {
				req.OnStarted()
			}
		}

		opusFrame, err := encoder.Encode(bytesToInt16(buf), frameSize, frameBytes)
		if err != nil {
			t.log.Warn().Err(err).Msg("opus encode failed, dropping frame")
			continue
		}

		select {
		case t.sink.OpusSend() <- opusFrame:
		case <-time.After(sendWindow):
			// Voice sink stalled; drop the frame rather than block the
			// subprocess pipe.
		}

		if p.killed() {
			return
		}
	}
}

// process is the handle for one live ffmpeg subprocess.
type process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	once   sync.Once
	mu     sync.Mutex
	dead   bool
}

// Kill forcibly terminates the subprocess and releases its pipes. Idempotent
// and safe to call after the process has already exited.
func (p *process) Kill() {
	p.once.Do(func() {
		p.mu.Lock()
		p.dead = true
		p.mu.Unlock()

		p.cancel()
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		go p.cmd.Wait() // reap without blocking the caller
	})
}

func (p *process) killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dead
}

func bytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}
