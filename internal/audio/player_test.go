package audio

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/kvstore"
)

type fakeEnv struct {
	ios bool
	pwa bool
}

func (e fakeEnv) UserAgent() string {
	if e.ios {
		return "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"
	}
	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
}
func (e fakeEnv) Standalone() bool    { return e.pwa }
func (e fakeEnv) Platform() string    { return "" }
func (e fakeEnv) MaxTouchPoints() int { return 0 }
func (e fakeEnv) Online() bool        { return true }
func (e fakeEnv) Focused() bool       { return true }
func (e fakeEnv) TimeZone() string    { return "UTC" }

type fakeElement struct {
	errs    []error
	volumes []float64
}

func (e *fakeElement) Play(ctx context.Context, volume float64) error {
	e.volumes = append(e.volumes, volume)
	if len(e.errs) == 0 {
		return nil
	}
	err := e.errs[0]
	e.errs = e.errs[1:]
	return err
}

type fakeBackend struct {
	element     *fakeElement
	elementErr  error
	toneErr     error
	constructed int
	tones       []float64
}

func (b *fakeBackend) NewElement(ctx context.Context) (Element, error) {
	b.constructed++
	if b.elementErr != nil {
		return nil, b.elementErr
	}
	return b.element, nil
}

func (b *fakeBackend) SynthesizeTone(ctx context.Context, frequency float64, duration time.Duration, gain float64) error {
	b.tones = append(b.tones, frequency)
	return b.toneErr
}

func newTestPlayer(backend *fakeBackend, kv kvstore.Store) *Player {
	return NewPlayer(backend, kv, 50*time.Millisecond, time.Minute, zap.NewNop())
}

func stampInteraction(t *testing.T, kv kvstore.Store, at time.Time) {
	t.Helper()
	err := kv.Set(context.Background(), kvstore.KeyLastInteractionTime, strconv.FormatInt(at.UnixMilli(), 10))
	assert.NoError(t, err)
}

func TestPlayStandardElementSuccess(t *testing.T) {
	backend := &fakeBackend{element: &fakeElement{}}
	player := newTestPlayer(backend, kvstore.NewMemoryStore())

	assert.True(t, player.Play(context.Background(), fakeEnv{}))
	assert.Equal(t, []float64{fullVolume}, backend.element.volumes)
	assert.Empty(t, backend.tones)
}

func TestPlayStandardFallsBackToTone(t *testing.T) {
	backend := &fakeBackend{element: &fakeElement{errs: []error{errors.New("blocked")}}}
	player := newTestPlayer(backend, kvstore.NewMemoryStore())

	assert.True(t, player.Play(context.Background(), fakeEnv{}))
	assert.Equal(t, []float64{cueFrequency}, backend.tones)
}

func TestPlayStandardAllPathsFail(t *testing.T) {
	backend := &fakeBackend{
		element: &fakeElement{errs: []error{errors.New("blocked")}},
		toneErr: errors.New("no audio context"),
	}
	player := newTestPlayer(backend, kvstore.NewMemoryStore())

	assert.False(t, player.Play(context.Background(), fakeEnv{}))
}

func TestPlayIOSPWAUnlockChain(t *testing.T) {
	backend := &fakeBackend{element: &fakeElement{errs: []error{errors.New("not allowed")}}}
	kv := kvstore.NewMemoryStore()
	stampInteraction(t, kv, time.Now())
	player := newTestPlayer(backend, kv)

	assert.True(t, player.Play(context.Background(), fakeEnv{ios: true, pwa: true}))

	// Full volume rejected, unlock tone played, reduced retry succeeded.
	assert.Equal(t, []float64{fullVolume, reducedVolume}, backend.element.volumes)
	assert.Equal(t, []float64{unlockFrequency}, backend.tones)
}

func TestPlayIOSPWASkipsUnlockWithoutRecentInteraction(t *testing.T) {
	backend := &fakeBackend{element: &fakeElement{errs: []error{errors.New("not allowed")}}}
	kv := kvstore.NewMemoryStore()
	stampInteraction(t, kv, time.Now().Add(-10*time.Minute))
	player := newTestPlayer(backend, kv)

	assert.False(t, player.Play(context.Background(), fakeEnv{ios: true, pwa: true}))
	assert.Empty(t, backend.tones)
	assert.Equal(t, []float64{fullVolume}, backend.element.volumes)
}

func TestPlayIOSPWANoElement(t *testing.T) {
	backend := &fakeBackend{elementErr: errors.New("construction failed")}
	player := newTestPlayer(backend, kvstore.NewMemoryStore())

	assert.False(t, player.Play(context.Background(), fakeEnv{ios: true, pwa: true}))
}

func TestElementCacheReuse(t *testing.T) {
	backend := &fakeBackend{element: &fakeElement{}}
	player := newTestPlayer(backend, kvstore.NewMemoryStore())

	player.Play(context.Background(), fakeEnv{})
	player.Play(context.Background(), fakeEnv{})

	assert.Equal(t, 1, backend.constructed)
}

func TestElementCacheExpiry(t *testing.T) {
	backend := &fakeBackend{element: &fakeElement{}}
	player := NewPlayer(backend, kvstore.NewMemoryStore(), 50*time.Millisecond, time.Nanosecond, zap.NewNop())

	player.Play(context.Background(), fakeEnv{})
	time.Sleep(time.Millisecond)
	player.Play(context.Background(), fakeEnv{})

	assert.Equal(t, 2, backend.constructed)
}
