package push

import (
	"fmt"
	"strings"
)

// InteractionBridge adapts the event stream into the overlay guard's
// interaction surfaces: install/remove commands for capturing event
// blockers and mount/unmount commands for the transparent shield. The
// client shell executes them; removal commands ride the same stream, so
// a dropped message is bounded by the guard's fallback timers on the
// client side as well.
type InteractionBridge struct {
	events *EventPublisher
	userID string
}

// NewInteractionBridge creates an interaction surface for one user.
func NewInteractionBridge(events *EventPublisher, userID string) *InteractionBridge {
	return &InteractionBridge{
		events: events,
		userID: userID,
	}
}

// InstallCapture publishes the blocker install command and returns a
// remover publishing the matching removal.
func (b *InteractionBridge) InstallCapture(events []string) (func(), error) {
	if b.events == nil {
		return nil, fmt.Errorf("no event stream for interaction commands")
	}
	b.events.Publish(Event{
		Kind:   "blockers_install",
		UserID: b.userID,
		Title:  strings.Join(events, ","),
	})
	return func() {
		b.events.Publish(Event{
			Kind:   "blockers_remove",
			UserID: b.userID,
		})
	}, nil
}

// Mount publishes the shield mount command and returns the unmounter.
func (b *InteractionBridge) Mount() (func(), error) {
	if b.events == nil {
		return nil, fmt.Errorf("no event stream for interaction commands")
	}
	b.events.Publish(Event{
		Kind:   "shield_mount",
		UserID: b.userID,
	})
	return func() {
		b.events.Publish(Event{
			Kind:   "shield_unmount",
			UserID: b.userID,
		})
	}, nil
}
