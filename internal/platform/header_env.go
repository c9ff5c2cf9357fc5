package platform

import (
	"net/http"
	"strconv"
)

// Client environment headers. The PWA shell mirrors its navigator/window
// state into these on every request so server-side decisions track the
// live client environment.
const (
	HeaderDisplayMode = "X-Display-Mode"
	HeaderPlatform    = "X-Platform"
	HeaderTouchPoints = "X-Touch-Points"
	HeaderOnline      = "X-Client-Online"
	HeaderFocused     = "X-Client-Focused"
	HeaderTimeZone    = "X-Timezone"
)

// HeaderEnv is an Env built from client-reported request headers.
type HeaderEnv struct {
	userAgent   string
	displayMode string
	platform    string
	touchPoints int
	online      bool
	focused     bool
	timeZone    string
}

// FromRequest builds an environment snapshot from request headers.
// Missing headers degrade to browser-window defaults: online, focused,
// browser display mode, UTC.
func FromRequest(r *http.Request) *HeaderEnv {
	env := &HeaderEnv{
		userAgent:   r.UserAgent(),
		displayMode: r.Header.Get(HeaderDisplayMode),
		platform:    r.Header.Get(HeaderPlatform),
		online:      r.Header.Get(HeaderOnline) != "false",
		focused:     r.Header.Get(HeaderFocused) != "false",
		timeZone:    r.Header.Get(HeaderTimeZone),
	}
	if points, err := strconv.Atoi(r.Header.Get(HeaderTouchPoints)); err == nil {
		env.touchPoints = points
	}
	if env.timeZone == "" {
		env.timeZone = "UTC"
	}
	return env
}

func (e *HeaderEnv) UserAgent() string   { return e.userAgent }
func (e *HeaderEnv) Standalone() bool    { return e.displayMode == "standalone" }
func (e *HeaderEnv) Platform() string    { return e.platform }
func (e *HeaderEnv) MaxTouchPoints() int { return e.touchPoints }
func (e *HeaderEnv) Online() bool        { return e.online }
func (e *HeaderEnv) Focused() bool       { return e.focused }
func (e *HeaderEnv) TimeZone() string    { return e.timeZone }
