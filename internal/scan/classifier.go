// Package scan disambiguates the three input modalities that feed a POS
// terminal's single text channel: hardware barcode scanner bursts, human
// typing, and paste. Scanner-origin input is never auto-submitted; the device
// sends its own terminator. Human-origin input auto-submits after a quiet
// window once the buffer looks like a product code.
package scan

import (
	"strings"
	"sync"
	"time"
)

// Origin classifies where buffered input came from.
type Origin string

const (
	// OriginScanner marks bursts whose inter-append timing implies a
	// hardware device rather than a human typist.
	OriginScanner Origin = "scanner"
	// OriginHuman marks typed or pasted input.
	OriginHuman Origin = "human"
)

// Config holds the classifier's tunable timing thresholds. The burst
// threshold is a heuristic with no derivation beyond observation, so it is
// configuration rather than a constant.
type Config struct {
	// BurstThreshold is the inter-append delta below which input is
	// classified as scanner-origin.
	BurstThreshold time.Duration
	// QuietWindow is how long human-origin input must stay untouched
	// before it auto-submits.
	QuietWindow time.Duration
	// MinLength is the minimum buffer length eligible for auto-submit.
	MinLength int
}

// DefaultConfig returns the defaults used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		BurstThreshold: 30 * time.Millisecond,
		QuietWindow:    500 * time.Millisecond,
		MinLength:      4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BurstThreshold <= 0 {
		c.BurstThreshold = d.BurstThreshold
	}
	if c.QuietWindow <= 0 {
		c.QuietWindow = d.QuietWindow
	}
	if c.MinLength <= 0 {
		c.MinLength = d.MinLength
	}
	return c
}

// SubmitFunc receives the normalized buffer content when the classifier
// decides to submit.
type SubmitFunc func(code string, origin Origin)

// Classifier turns a stream of character-append events into discrete submit
// events. All methods are safe for concurrent use; the submit callback is
// invoked without the internal lock held.
type Classifier struct {
	cfg    Config
	submit SubmitFunc

	now       func() time.Time
	afterFunc func(time.Duration, func()) *time.Timer

	mu         sync.Mutex
	buf        strings.Builder
	lastAppend time.Time
	scanner    bool
	gen        uint64
	timer      *time.Timer
}

// New creates a Classifier that calls submit on every submit decision.
func New(cfg Config, submit SubmitFunc) *Classifier {
	return &Classifier{
		cfg:       cfg.withDefaults(),
		submit:    submit,
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// Append records a chunk of characters arriving on the input channel,
// timestamped at arrival. A chunk following the previous append by less than
// the burst threshold marks the whole buffer scanner-origin; scanner-origin
// buffers are never auto-submitted. Every append supersedes any pending
// quiet-window task.
func (c *Classifier) Append(chunk string) {
	c.AppendAt(chunk, time.Time{})
}

// AppendAt is Append with an explicit capture timestamp. Remote terminals
// supply the time the characters were captured so transport jitter cannot
// flip burst classification; a zero timestamp falls back to arrival time.
func (c *Classifier) AppendAt(chunk string, at time.Time) {
	if chunk == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if at.IsZero() {
		at = c.now()
	}
	if c.buf.Len() > 0 && at.Sub(c.lastAppend) < c.cfg.BurstThreshold {
		c.scanner = true
	}
	c.buf.WriteString(chunk)
	c.lastAppend = at

	// A new append always invalidates the pending timer, whether or not a
	// new one is armed. One buffer, at most one submit.
	c.gen++
	c.stopTimerLocked()

	if c.scanner {
		return
	}
	code := Normalize(c.buf.String())
	if !c.eligible(code) {
		return
	}

	gen := c.gen
	c.timer = c.afterFunc(c.cfg.QuietWindow, func() {
		c.fire(gen)
	})
}

// Terminate handles an explicit terminator event: the buffer submits
// synchronously regardless of classification. An empty buffer is a no-op.
func (c *Classifier) Terminate() {
	c.mu.Lock()
	code := Normalize(c.buf.String())
	origin := OriginHuman
	if c.scanner {
		origin = OriginScanner
	}
	c.resetLocked()
	c.mu.Unlock()

	if code == "" {
		return
	}
	c.submit(code, origin)
}

// Reset clears the buffer and any pending submit. Callers use it after a
// failed lookup so stale input never blocks the next scan.
func (c *Classifier) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

// fire is the quiet-window callback. The generation check makes a superseded
// task a deterministic no-op even if its timer already fired.
func (c *Classifier) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	code := Normalize(c.buf.String())
	c.resetLocked()
	c.mu.Unlock()

	if code == "" {
		return
	}
	c.submit(code, OriginHuman)
}

func (c *Classifier) resetLocked() {
	c.buf.Reset()
	c.scanner = false
	c.gen++
	c.stopTimerLocked()
}

func (c *Classifier) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// eligible reports whether a normalized code may auto-submit: minimum length
// and a restricted alphanumeric alphabet.
func (c *Classifier) eligible(code string) bool {
	if len(code) < c.cfg.MinLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_':
		default:
			return false
		}
	}
	return true
}

// Normalize trims surrounding whitespace and case-folds a raw buffer to the
// canonical form handed to the resolver.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
