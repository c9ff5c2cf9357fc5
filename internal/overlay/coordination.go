// Package overlay prevents a closing sheet or dialog from leaking
// pointer events into interactive elements underneath it, a teardown
// quirk most severe on installed iOS apps.
package overlay

import (
	"sync"
	"time"

	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// Coordination is the explicit shared-state context every guard
// instance receives. Its flags are advisory coordination signals, not
// locks: correctness rests on conservative timeouts, not mutual
// exclusion. One instance per process, injected, never ambient.
type Coordination struct {
	mu             sync.Mutex
	panels         map[string]time.Time
	closingSheetID string
	closingAt      time.Time
	activeShields  int
}

// NewCoordination creates the coordination context and registers its
// reset as a platform protection hook, so a stuck flag from a previous
// session can be cleared at module load.
func NewCoordination() *Coordination {
	c := &Coordination{
		panels: make(map[string]time.Time),
	}
	platform.RegisterResetHook(c.Reset)
	return c
}

// RegisterPanel records a mounted dismissible panel.
func (c *Coordination) RegisterPanel(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panels[id] = time.Now()
}

// UnregisterPanel removes a panel on unmount.
func (c *Coordination) UnregisterPanel(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.panels, id)
}

// PanelCount reports the mounted panel count.
func (c *Coordination) PanelCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.panels)
}

// MarkClosing flags a sharing sheet as mid-close.
func (c *Coordination) MarkClosing(panelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closingSheetID = panelID
	c.closingAt = time.Now()
}

// ClearClosing drops the closing flag if panelID still owns it. Another
// panel may have taken the flag since; its own timers clear it.
func (c *Coordination) ClearClosing(panelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closingSheetID == panelID {
		c.closingSheetID = ""
		c.closingAt = time.Time{}
	}
}

// Closing reports whether any sharing sheet is mid-close, and since when.
func (c *Coordination) Closing() (bool, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closingSheetID != "", c.closingAt
}

// ShieldMounted increments the active shield counter.
func (c *Coordination) ShieldMounted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeShields++
}

// ShieldRemoved decrements the active shield counter.
func (c *Coordination) ShieldRemoved() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeShields > 0 {
		c.activeShields--
	}
}

// ActiveShields reports the mounted shield count.
func (c *Coordination) ActiveShields() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeShields
}

// Reset forcibly clears every flag. Escape hatch for stuck state.
func (c *Coordination) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closingSheetID = ""
	c.closingAt = time.Time{}
	c.activeShields = 0
	c.panels = make(map[string]time.Time)
}
