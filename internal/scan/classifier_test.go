package scan

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduler captures quiet-window tasks so tests fire them by hand.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func (f *fakeScheduler) afterFunc(_ time.Duration, fn func()) *time.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, fn)
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func (f *fakeScheduler) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func (f *fakeScheduler) fireAll() {
	f.mu.Lock()
	tasks := f.tasks
	f.tasks = nil
	f.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

type capture struct {
	codes   []string
	origins []Origin
}

func (c *capture) submit(code string, origin Origin) {
	c.codes = append(c.codes, code)
	c.origins = append(c.origins, origin)
}

func newTestClassifier(t *testing.T) (*Classifier, *fakeScheduler, *capture, func(time.Duration)) {
	t.Helper()

	var (
		sched fakeScheduler
		got   capture
	)
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	c := New(Config{
		BurstThreshold: 30 * time.Millisecond,
		QuietWindow:    500 * time.Millisecond,
		MinLength:      4,
	}, got.submit)
	c.now = func() time.Time { return clock }
	c.afterFunc = sched.afterFunc

	advance := func(d time.Duration) { clock = clock.Add(d) }
	return c, &sched, &got, advance
}

func TestClassifier_ScannerBurstNeverAutoSubmits(t *testing.T) {
	// 8 characters at 10ms intervals: scanner-origin, no timer fallback.
	c, sched, got, advance := newTestClassifier(t)

	for _, ch := range "88412700" {
		c.Append(string(ch))
		advance(10 * time.Millisecond)
	}

	sched.fireAll()
	assert.Empty(t, got.codes, "scanner burst must not auto-submit")

	// The scanner's own terminator submits synchronously.
	c.Terminate()
	require.Equal(t, []string{"88412700"}, got.codes)
	assert.Equal(t, OriginScanner, got.origins[0])
}

func TestClassifier_TypedCodeAutoSubmitsOnce(t *testing.T) {
	// Keystrokes over 50ms apart: human-origin, auto-submit after the
	// quiet window, exactly once.
	c, sched, got, advance := newTestClassifier(t)

	for _, ch := range "PRD-0001" {
		c.Append(string(ch))
		advance(80 * time.Millisecond)
	}

	sched.fireAll()
	require.Equal(t, []string{"PRD-0001"}, got.codes)
	assert.Equal(t, OriginHuman, got.origins[0])

	// Stale tasks from earlier keystrokes were superseded: nothing else
	// fires, and the buffer is already clear.
	sched.fireAll()
	c.Terminate()
	assert.Len(t, got.codes, 1)
}

func TestClassifier_NewAppendSupersedesPendingTask(t *testing.T) {
	c, sched, got, advance := newTestClassifier(t)

	c.Append("PRD-000")
	advance(100 * time.Millisecond)
	firstTask := sched.pending()
	require.Positive(t, firstTask)

	// A later keystroke reschedules; firing the stale task is a no-op.
	c.Append("1")
	sched.fireAll()

	require.Equal(t, []string{"PRD-0001"}, got.codes)
}

func TestClassifier_TerminatorCancelsPendingTimer(t *testing.T) {
	c, sched, got, advance := newTestClassifier(t)

	c.Append("PRD-0001")
	advance(time.Millisecond)
	c.Terminate()

	require.Equal(t, []string{"PRD-0001"}, got.codes)

	// The quiet-window task for the same buffer must not fire a second
	// submit.
	sched.fireAll()
	assert.Len(t, got.codes, 1)
}

func TestClassifier_ShortOrInvalidBufferNotScheduled(t *testing.T) {
	c, sched, _, advance := newTestClassifier(t)

	c.Append("AB1")
	advance(time.Second)
	assert.Zero(t, sched.pending(), "below min length")

	c.Reset()
	c.Append("he llo!")
	assert.Zero(t, sched.pending(), "invalid alphabet")
}

func TestClassifier_PasteIsHumanEligible(t *testing.T) {
	// A single multi-character chunk with no preceding append has no burst
	// delta; it is treated as human input and auto-submits.
	c, sched, got, _ := newTestClassifier(t)

	c.Append("PRD-0042")
	sched.fireAll()

	require.Equal(t, []string{"PRD-0042"}, got.codes)
	assert.Equal(t, OriginHuman, got.origins[0])
}

func TestClassifier_AppendAtUsesCaptureTimestamps(t *testing.T) {
	// Characters captured 10ms apart on the device but delivered with wild
	// transport jitter: the supplied timestamps classify, arrival time does
	// not.
	c, sched, got, advance := newTestClassifier(t)

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, ch := range "88412700" {
		c.AppendAt(string(ch), at)
		at = at.Add(10 * time.Millisecond)
		advance(250 * time.Millisecond)
	}

	sched.fireAll()
	assert.Empty(t, got.codes, "jittered delivery must not defeat burst detection")

	c.Terminate()
	require.Equal(t, []string{"88412700"}, got.codes)
	assert.Equal(t, OriginScanner, got.origins[0])
}

func TestClassifier_AppendAtZeroFallsBackToArrival(t *testing.T) {
	c, sched, got, advance := newTestClassifier(t)

	for _, ch := range "PRD-0001" {
		c.AppendAt(string(ch), time.Time{})
		advance(80 * time.Millisecond)
	}

	sched.fireAll()
	require.Equal(t, []string{"PRD-0001"}, got.codes)
	assert.Equal(t, OriginHuman, got.origins[0])
}

func TestClassifier_SubmitNormalizes(t *testing.T) {
	c, _, got, _ := newTestClassifier(t)

	c.Append("  prd-0001 ")
	c.Terminate()

	require.Equal(t, []string{"PRD-0001"}, got.codes)
}

func TestClassifier_ResetClearsBufferAndTimer(t *testing.T) {
	c, sched, got, _ := newTestClassifier(t)

	c.Append("PRD-0001")
	c.Reset()
	sched.fireAll()
	c.Terminate()

	assert.Empty(t, got.codes)
}

func TestClassifier_EmptyTerminateIsNoop(t *testing.T) {
	c, _, got, _ := newTestClassifier(t)
	c.Terminate()
	assert.Empty(t, got.codes)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "PRD-0001", Normalize(" prd-0001\n"))
	assert.Equal(t, "", Normalize("   "))
}
