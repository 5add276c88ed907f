package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	r.calls = append(r.calls, v)
	r.mu.Unlock()
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncer_CommitsLatestAfterQuietPeriod(t *testing.T) {
	rec := &recorder{}
	d := New(40*time.Millisecond, rec.record)

	for _, s := range []string{"m", "mi", "mil", "milk"} {
		d.Trigger(s)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Empty(t, rec.get(), "nothing fires while typing")

	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []string{"milk"}, rec.get())
	assert.False(t, d.Pending())
}

func TestDebouncer_WaitsFullDelayAfterLastTrigger(t *testing.T) {
	rec := &recorder{}
	d := New(100*time.Millisecond, rec.record)

	start := time.Now()
	d.Trigger("a")
	time.Sleep(60 * time.Millisecond)
	d.Trigger("ab")

	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 2*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 160*time.Millisecond)
	assert.Equal(t, []string{"ab"}, rec.get())
}

func TestDebouncer_FlushRunsImmediatelyOnce(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.record)

	assert.False(t, d.Flush())
	d.Trigger("now")
	assert.True(t, d.Pending())
	assert.True(t, d.Flush())
	assert.False(t, d.Flush())
	assert.Equal(t, []string{"now"}, rec.get())
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.record)

	d.Trigger("gone")
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.get())

	d.Trigger("back")
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"back"}, rec.get())
}
