package overlay

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/config"
	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// Event types blocked during a risky teardown window. Touch events are
// added only on iOS installed apps, where they are the primary input.
var (
	blockedEvents      = []string{"click", "mousedown", "mouseup", "pointerdown", "pointerup"}
	blockedTouchEvents = []string{"touchstart", "touchend"}
)

// Ancestry markers that must never trigger a sheet's outside-click
// close: calendars and popovers render nested inside the sheet but hit
// outside its DOM box.
var protectedAncestors = []string{
	"[data-calendar]",
	"[data-popover]",
	"[data-radix-popper-content-wrapper]",
	".rdp",
}

// EventTap installs capturing, default-preventing listeners for the
// given event types on the client document. The remover must be safe to
// call more than once.
type EventTap interface {
	InstallCapture(events []string) (remove func(), err error)
}

// ShieldMounter mounts the transparent full-viewport element that
// blocks pointer events aimed at interactive cards while letting
// recognized controls through. Optional; nil disables the shield layer.
type ShieldMounter interface {
	Mount() (unmount func(), err error)
}

// Node is a minimal DOM target for ancestry checks.
type Node interface {
	Closest(selector string) bool
}

// Guard wraps dismissible panels so their teardown cannot leak ghost
// interactions. All state lives in the injected Coordination context.
type Guard struct {
	coord  *Coordination
	tap    EventTap
	shield ShieldMounter
	cfg    config.OverlayConfig
	logger *zap.Logger
}

// NewGuard creates a guard over the given interaction surfaces.
func NewGuard(coord *Coordination, tap EventTap, shield ShieldMounter, cfg config.OverlayConfig, logger *zap.Logger) *Guard {
	return &Guard{
		coord:  coord,
		tap:    tap,
		shield: shield,
		cfg:    cfg,
		logger: logger,
	}
}

// ShouldClose reports whether an outside-pointer-down may close the
// panel. Targets inside calendar or popover ancestry must not.
func (g *Guard) ShouldClose(target Node) bool {
	if target == nil {
		return true
	}
	for _, marker := range protectedAncestors {
		if target.Closest(marker) {
			return false
		}
	}
	return true
}

// Protect installs the event blockers (and shield, when configured) for
// a closing sharing-related panel and schedules their removal after the
// platform delay, with a hard fallback at twice that delay in case the
// primary timer is skipped. The returned cleanup is idempotent and
// cancels both timers; every timer handle is released on cleanup.
func (g *Guard) Protect(env platform.Env, panelID string) func() {
	g.coord.MarkClosing(panelID)

	events := blockedEvents
	delay := g.cfg.WebDelay
	if platform.IsIOSPWA(env) {
		events = append(append([]string{}, blockedEvents...), blockedTouchEvents...)
		delay = g.cfg.IOSPWADelay
	}

	removeTap, err := g.tap.InstallCapture(events)
	if err != nil {
		g.logger.Warn("Failed to install event blockers", zap.Error(err))
		removeTap = func() {}
	}

	unmountShield := func() {}
	if g.shield != nil {
		unmount, err := g.shield.Mount()
		if err != nil {
			g.logger.Debug("Shield mount failed", zap.Error(err))
		} else {
			g.coord.ShieldMounted()
			shieldOnce := sync.Once{}
			unmountShield = func() {
				shieldOnce.Do(func() {
					unmount()
					g.coord.ShieldRemoved()
				})
			}
		}
	}

	// The cleanup closure can run on a timer goroutine, so the handle
	// writes below must be synchronized with its reads.
	var once sync.Once
	var timerMu sync.Mutex
	var primary, fallback *time.Timer
	cleanup := func() {
		once.Do(func() {
			timerMu.Lock()
			p, f := primary, fallback
			timerMu.Unlock()
			if p != nil {
				p.Stop()
			}
			if f != nil {
				f.Stop()
			}
			removeTap()
			unmountShield()
			g.coord.ClearClosing(panelID)
		})
	}

	timerMu.Lock()
	primary = time.AfterFunc(delay, cleanup)
	fallback = time.AfterFunc(2*delay, cleanup)
	timerMu.Unlock()

	g.logger.Debug("Teardown protection installed",
		zap.String("panel_id", panelID),
		zap.Duration("delay", delay),
		zap.Int("events", len(events)))

	return cleanup
}
