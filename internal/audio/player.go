// Package audio plays the notification cue with layered fallbacks. The
// actual sound device lives on the client; the player owns the fallback
// strategy and reports whether any cue was scheduled, never an error.
package audio

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// Tone parameters shared by the fallback paths. The unlock tone is near
// silent: it exists to wake the iOS audio subsystem, not to be heard.
const (
	cueFrequency    = 830.0
	cueDuration     = 150 * time.Millisecond
	cueGain         = 0.2
	unlockFrequency = 440.0
	unlockDuration  = 30 * time.Millisecond
	unlockGain      = 0.01

	fullVolume    = 0.7
	reducedVolume = 0.3

	// iOS refuses playback without a recent user gesture.
	interactionWindow = 5 * time.Minute
)

// Element is a playable audio element, already primed (muted-autoplay
// warmed) at construction. Play blocks until playback starts or fails.
type Element interface {
	Play(ctx context.Context, volume float64) error
}

// Backend abstracts the client audio surface: cached element playback
// plus Web-Audio tone synthesis.
type Backend interface {
	NewElement(ctx context.Context) (Element, error)
	SynthesizeTone(ctx context.Context, frequency float64, duration time.Duration, gain float64) error
}

// Player plays the notification cue, choosing the fallback path from
// the environment the client reports at play time.
type Player struct {
	backend Backend
	kv      kvstore.Store
	logger  *zap.Logger

	playbackTimeout time.Duration
	cacheDuration   time.Duration

	mu       sync.Mutex
	cached   Element
	cachedAt time.Time
}

// NewPlayer creates a new audio cue player.
func NewPlayer(backend Backend, kv kvstore.Store, playbackTimeout, cacheDuration time.Duration, logger *zap.Logger) *Player {
	return &Player{
		backend:         backend,
		kv:              kv,
		logger:          logger,
		playbackTimeout: playbackTimeout,
		cacheDuration:   cacheDuration,
	}
}

// Play attempts to produce an audible cue. It reports whether some cue
// was scheduled; audibility is outside this system's control (autoplay
// policy). All failure paths terminate in false, never a panic or error.
func (p *Player) Play(ctx context.Context, env platform.Env) bool {
	if platform.IsIOSPWA(env) {
		return p.playIOSPWA(ctx)
	}
	return p.playStandard(ctx)
}

// playIOSPWA plays through the primed element, unlocking the audio
// subsystem with a near-silent tone and retrying at reduced volume when
// the first attempt is rejected.
func (p *Player) playIOSPWA(ctx context.Context) bool {
	element := p.element(ctx)
	if element == nil {
		return false
	}

	if err := p.playWithTimeout(ctx, element, fullVolume); err == nil {
		return true
	}

	if !p.recentInteraction(ctx) {
		// No recent gesture, the unlock tone cannot help.
		p.logger.Debug("audio cue skipped, no recent user interaction")
		return false
	}

	if err := p.backend.SynthesizeTone(ctx, unlockFrequency, unlockDuration, unlockGain); err != nil {
		p.logger.Debug("audio unlock tone failed", zap.Error(err))
		return false
	}

	if err := p.playWithTimeout(ctx, element, reducedVolume); err != nil {
		p.logger.Debug("audio cue retry failed", zap.Error(err))
		return false
	}
	return true
}

// playStandard attempts element playback bounded by the playback
// timeout, then falls back to a synthesized sine cue. The synthesized
// path is fire-and-forget: once scheduled it counts as success.
func (p *Player) playStandard(ctx context.Context) bool {
	if element := p.element(ctx); element != nil {
		if err := p.playWithTimeout(ctx, element, fullVolume); err == nil {
			return true
		}
	}

	if err := p.backend.SynthesizeTone(ctx, cueFrequency, cueDuration, cueGain); err != nil {
		p.logger.Debug("audio tone fallback failed", zap.Error(err))
		return false
	}
	return true
}

func (p *Player) playWithTimeout(ctx context.Context, element Element, volume float64) error {
	playCtx, cancel := context.WithTimeout(ctx, p.playbackTimeout)
	defer cancel()
	return element.Play(playCtx, volume)
}

// element returns the cached element, constructing and priming a fresh
// one when the single cache slot is empty or expired.
func (p *Player) element(ctx context.Context) Element {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && time.Since(p.cachedAt) < p.cacheDuration {
		return p.cached
	}

	element, err := p.backend.NewElement(ctx)
	if err != nil {
		p.logger.Debug("audio element construction failed", zap.Error(err))
		p.cached = nil
		return nil
	}
	p.cached = element
	p.cachedAt = time.Now()
	return element
}

// recentInteraction reports whether the device registered a user gesture
// recently enough for audio unlock to be worth attempting.
func (p *Player) recentInteraction(ctx context.Context) bool {
	value, ok, err := p.kv.Get(ctx, kvstore.KeyLastInteractionTime)
	if err != nil || !ok {
		return false
	}
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false
	}
	last := time.UnixMilli(millis)
	return time.Since(last) < interactionWindow
}
