package frontend

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const deviceSampleRate = 48000

// ringBufferCapacity is ~170ms at 48kHz stereo 16-bit.
const ringBufferCapacity = 32768

// playerBufferSize is oto's internal buffer, ~50ms.
const playerBufferSize = 19200

// oto context singleton
var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
)

// ensureOtoContext initializes the oto audio context on first use.
func ensureOtoContext() (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   deviceSampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-readyChan
	})
	return otoCtx, otoInitErr
}

// Audio plays core audio through oto. The core's sample rate is resampled
// to the fixed device rate. PushSamples and SetSampleRate run on the core
// thread; oto pulls from the ring buffer on its own goroutine.
type Audio struct {
	player *oto.Player
	ring   *ringBuffer
	res    resampler
	bytes  []byte
}

// NewAudio opens the audio device. The volume is applied before playback
// starts so a muted session never pops.
func NewAudio(volume float64) (*Audio, error) {
	ctx, err := ensureOtoContext()
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	rb := newRingBuffer(ringBufferCapacity)
	player := ctx.NewPlayer(rb)
	player.SetBufferSize(playerBufferSize)
	player.SetVolume(clampVolume(volume))
	player.Play()

	return &Audio{
		player: player,
		ring:   rb,
		bytes:  make([]byte, 0, 4096),
	}, nil
}

// SetSampleRate implements hostapi.AudioSink.
func (a *Audio) SetSampleRate(rate float64) {
	a.res.setRate(rate, deviceSampleRate)
}

// PushSamples implements hostapi.AudioSink.
func (a *Audio) PushSamples(samples []float32) {
	out := a.res.process(samples)
	if len(out) == 0 {
		return
	}
	a.bytes = appendInt16LE(a.bytes[:0], out)
	a.ring.Write(a.bytes)
}

// BufferOccupancy implements hostapi.AudioBufferReporter. The level covers
// the ring buffer and oto's internal buffer.
func (a *Audio) BufferOccupancy() (uint, bool) {
	level := a.ring.Buffered() + a.player.BufferedSize()
	return occupancyPercent(level, ringBufferCapacity+playerBufferSize), a.ring.takeUnderrun()
}

// ClearQueue implements hostapi.AudioQueueClearer. It runs on the core
// thread, like PushSamples.
func (a *Audio) ClearQueue() {
	a.ring.Clear()
	a.res.reset()
}

// Close stops playback.
func (a *Audio) Close() {
	if a.ring != nil {
		a.ring.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
}

func clampVolume(vol float64) float64 {
	if vol < 0 {
		return 0
	}
	if vol > 2.0 {
		return 2.0
	}
	return vol
}

func occupancyPercent(level, capacity int) uint {
	if capacity <= 0 || level <= 0 {
		return 0
	}
	pct := level * 100 / capacity
	if pct > 100 {
		pct = 100
	}
	return uint(pct)
}

func appendInt16LE(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = append(dst, byte(s), byte(s>>8))
	}
	return dst
}
