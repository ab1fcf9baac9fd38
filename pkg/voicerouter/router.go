package voicerouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"AgriVoice/pkg/command"

	"github.com/sirupsen/logrus"
)

type State int

const (
	Idle State = iota
	Listening
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultClipTimeout is the recording window used by the clip-upload providers.
const DefaultClipTimeout = 4 * time.Second

type Option func(*Router)

// WithTimeout bounds every session. Zero leaves termination to the
// transcriber's own end-of-speech detection.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		r.timeout = d
	}
}

func WithSpeaker(s Speaker) Option {
	return func(r *Router) {
		r.speaker = s
	}
}

func WithNotifier(n Notifier) Option {
	return func(r *Router) {
		r.notifier = n
	}
}

// Router listens for one utterance at a time and turns it into a navigation.
type Router struct {
	log         *logrus.Logger
	source      AudioSource
	transcriber Transcriber
	navigator   Navigator
	speaker     Speaker
	notifier    Notifier
	matcher     command.IMatcher
	timeout     time.Duration

	mu      sync.Mutex
	state   State
	session uint64
	capture io.ReadCloser
	cancel  context.CancelFunc
	timer   *time.Timer
	wg      sync.WaitGroup
}

func New(
	log *logrus.Logger,
	source AudioSource,
	transcriber Transcriber,
	navigator Navigator,
	matcher command.IMatcher,
	opts ...Option,
) (*Router, error) {
	if log == nil {
		return nil, errors.New("voicerouter: logger is required")
	}
	if source == nil || transcriber == nil || navigator == nil || matcher == nil {
		return nil, errors.New("voicerouter: source, transcriber, navigator and matcher are required")
	}

	r := &Router{
		log:         log,
		source:      source,
		transcriber: transcriber,
		navigator:   navigator,
		matcher:     matcher,
		speaker:     SpeakerFunc(func(string) {}),
		notifier:    NotifierFunc(func(string) {}),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// StartListening opens the audio source and starts a session. Calling it while
// a session is active is a no-op.
func (r *Router) StartListening(ctx context.Context) error {
	r.mu.Lock()
	if r.state == Listening {
		id := r.session
		r.mu.Unlock()
		r.log.WithFields(logrus.Fields{
			"session": id,
		}).Debug("Already listening, ignoring start request")
		return nil
	}

	capture, err := r.source.Open(ctx)
	if err != nil {
		r.mu.Unlock()
		r.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Failed to open audio source")
		r.notifier.Notify(msgPermissionDenied)
		return &PermissionError{Err: err}
	}

	var sessionCtx context.Context
	var cancel context.CancelFunc
	if r.timeout > 0 {
		sessionCtx, cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		sessionCtx, cancel = context.WithCancel(ctx)
	}

	r.session++
	id := r.session
	r.state = Listening
	r.capture = capture
	r.cancel = cancel
	if r.timeout > 0 {
		// the transcriber may ignore ctx; the session still ends on time
		r.timer = time.AfterFunc(r.timeout, func() { r.expire(id) })
	}
	r.wg.Add(1)
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"session": id,
		"timeout": r.timeout.String(),
	}).Info("Listening started")

	go r.run(sessionCtx, id, capture)

	return nil
}

// StopListening ends the active session. Whatever the transcriber still
// delivers for it is dropped.
func (r *Router) StopListening() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Listening {
		return
	}

	r.log.WithFields(logrus.Fields{
		"session": r.session,
	}).Info("Listening stopped")
	r.releaseLocked()
}

// Wait blocks until the goroutines of all started sessions have returned,
// including their dispatch.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Close stops any active session and waits for its goroutine to return.
func (r *Router) Close() {
	r.StopListening()
	r.wg.Wait()
}

// HandleTranscript matches one transcript and performs the navigation and
// confirmation. An unmatched transcript is ignored.
func (r *Router) HandleTranscript(transcript string) (command.Match, bool) {
	text := strings.ToLower(strings.TrimSpace(transcript))

	match, ok := r.matcher.Match(text)
	if !ok {
		r.log.WithFields(logrus.Fields{
			"transcript": text,
		}).Info("No command matched")
		return command.Match{}, false
	}

	r.log.WithFields(logrus.Fields{
		"transcript": text,
		"page_id":    match.Route.PageID,
		"path":       match.Route.Path,
		"keyword":    match.Keyword,
	}).Info("Command matched")

	r.navigator.Navigate(match.Route.Path)
	if match.Route.Confirmation != "" {
		r.speaker.Speak(match.Route.Confirmation)
	}

	return match, true
}

func (r *Router) run(ctx context.Context, id uint64, capture io.Reader) {
	defer r.wg.Done()

	transcript, err := r.transcriber.Recognize(ctx, capture)
	r.finish(id, transcript, err, ctx.Err())
}

func (r *Router) finish(id uint64, transcript string, err error, ctxErr error) {
	r.mu.Lock()
	if id != r.session || r.state != Listening {
		r.mu.Unlock()
		r.log.WithFields(logrus.Fields{
			"session": id,
		}).Debug("Discarding result of finished session")
		return
	}
	r.releaseLocked()
	r.mu.Unlock()

	switch {
	case err == nil:
		r.HandleTranscript(transcript)
	case errors.Is(ctxErr, context.DeadlineExceeded):
		r.log.WithFields(logrus.Fields{
			"session": id,
			"timeout": r.timeout.String(),
		}).Info("Listening timed out without a transcript")
	case errors.Is(ctxErr, context.Canceled):
		r.log.WithFields(logrus.Fields{
			"session": id,
		}).Info("Listening cancelled by caller")
	default:
		r.log.WithFields(logrus.Fields{
			"session": id,
			"error":   fmt.Errorf("%w: %w", ErrRecognitionFailure, err).Error(),
		}).Error("Speech recognition failed")
		r.notifier.Notify(msgRecognitionFailure)
	}
}

func (r *Router) expire(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != r.session || r.state != Listening {
		return
	}

	r.log.WithFields(logrus.Fields{
		"session": id,
		"timeout": r.timeout.String(),
	}).Info("Listening timed out without a transcript")
	r.releaseLocked()
}

func (r *Router) releaseLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.capture != nil {
		if err := r.capture.Close(); err != nil {
			r.log.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Debug("Failed to close capture")
		}
		r.capture = nil
	}
	r.state = Idle
}
