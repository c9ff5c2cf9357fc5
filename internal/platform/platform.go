package platform

import (
	"strings"
	"sync"
)

// Env exposes the runtime environment a connected client reports. All
// detection predicates read through this interface so core logic never
// touches transport concerns directly and tests can fake any platform.
type Env interface {
	UserAgent() string
	// Standalone reports whether the app runs installed to a home screen
	// (display-mode: standalone) rather than inside browser chrome.
	Standalone() bool
	Platform() string
	MaxTouchPoints() int
	Online() bool
	Focused() bool
	TimeZone() string
}

// Classification is the derived platform shape. It is computed on demand
// and never cached: display mode and orientation can change at runtime.
type Classification struct {
	IOS     bool `json:"isIOS"`
	PWA     bool `json:"isPWA"`
	Android bool `json:"isAndroid"`
	Mobile  bool `json:"isMobile"`
}

// Classify computes the full classification for an environment.
func Classify(env Env) Classification {
	return Classification{
		IOS:     IsIOS(env),
		PWA:     IsPWA(env),
		Android: IsAndroid(env),
		Mobile:  IsMobileDevice(env),
	}
}

// IsIOS reports whether the client runs on an iOS device, including
// iPadOS masquerading as macOS with a touch screen.
func IsIOS(env Env) bool {
	if env == nil {
		return false
	}
	ua := strings.ToLower(env.UserAgent())
	if strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ipod") {
		return true
	}
	return strings.Contains(strings.ToLower(env.Platform()), "mac") && env.MaxTouchPoints() > 1
}

// IsAndroid reports whether the client runs on Android.
func IsAndroid(env Env) bool {
	if env == nil {
		return false
	}
	return strings.Contains(strings.ToLower(env.UserAgent()), "android")
}

// IsPWA reports whether the app runs installed (standalone display mode).
func IsPWA(env Env) bool {
	if env == nil {
		return false
	}
	return env.Standalone()
}

// IsMobileDevice reports whether the client is any mobile device.
func IsMobileDevice(env Env) bool {
	if env == nil {
		return false
	}
	if IsIOS(env) || IsAndroid(env) {
		return true
	}
	ua := strings.ToLower(env.UserAgent())
	for _, marker := range []string{"mobile", "webos", "blackberry", "windows phone"} {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// IsIOSPWA reports an installed home-screen app on iOS, the platform with
// no real web push support.
func IsIOSPWA(env Env) bool {
	return IsIOS(env) && IsPWA(env)
}

// IsAndroidPWA reports an installed home-screen app on Android.
func IsAndroidPWA(env Env) bool {
	return IsAndroid(env) && IsPWA(env)
}

// SubscriptionPlatform maps an environment onto the platform identifier
// used in subscription and device-token rows.
func SubscriptionPlatform(env Env) string {
	switch {
	case IsIOSPWA(env):
		return "ios-pwa"
	case IsAndroidPWA(env):
		return "android-pwa"
	default:
		return "web"
	}
}

var (
	resetMu    sync.Mutex
	resetHooks []func()
)

// RegisterResetHook registers a function run by ResetProtections. The
// overlay coordination context registers its flag reset here so stuck
// protection state can be cleared without an import cycle.
func RegisterResetHook(hook func()) {
	resetMu.Lock()
	defer resetMu.Unlock()
	resetHooks = append(resetHooks, hook)
}

// ResetProtections forcibly clears every registered cross-component
// protection flag. Escape hatch for stuck state, not part of detection.
func ResetProtections() {
	resetMu.Lock()
	hooks := make([]func(), len(resetHooks))
	copy(hooks, resetHooks)
	resetMu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}
