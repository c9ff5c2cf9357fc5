package push

import (
	"context"
	"fmt"
	"time"

	"github.com/bryancris/tasqi-sub001/internal/audio"
)

// AudioBridge adapts the event stream into an audio backend: play and
// tone commands are published for the connected client shell to
// execute. Fire-and-forget like every other event, so playback outcome
// is optimistic; the player's timeouts bound the cost of being wrong.
type AudioBridge struct {
	events *EventPublisher
	userID string
}

// NewAudioBridge creates an audio backend publishing cue commands for
// one user's devices.
func NewAudioBridge(events *EventPublisher, userID string) *AudioBridge {
	return &AudioBridge{
		events: events,
		userID: userID,
	}
}

// NewElement returns an element whose playback publishes a play command.
func (b *AudioBridge) NewElement(ctx context.Context) (audio.Element, error) {
	if b.events == nil {
		return nil, fmt.Errorf("no event stream for audio commands")
	}
	return &bridgeElement{bridge: b}, nil
}

// SynthesizeTone publishes a tone command.
func (b *AudioBridge) SynthesizeTone(ctx context.Context, frequency float64, duration time.Duration, gain float64) error {
	if b.events == nil {
		return fmt.Errorf("no event stream for audio commands")
	}
	b.events.Publish(Event{
		Kind:   "audio_tone",
		UserID: b.userID,
	})
	return nil
}

type bridgeElement struct {
	bridge *AudioBridge
}

func (e *bridgeElement) Play(ctx context.Context, volume float64) error {
	e.bridge.events.Publish(Event{
		Kind:   "audio_play",
		UserID: e.bridge.userID,
	})
	return nil
}
