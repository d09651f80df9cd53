package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock — виртуальное время: таймеры срабатывают только по Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	ch       chan time.Time
	deadline time.Time
	done     bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTimer{ch: make(chan time.Time, 1), deadline: c.now.Add(d)}
	c.timers = append(c.timers, ft)
	return ft
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []*fakeTimer
	for _, ft := range c.timers {
		if !ft.done && !ft.deadline.After(now) {
			ft.done = true
			due = append(due, ft)
		}
	}
	c.mu.Unlock()

	for _, ft := range due {
		ft.ch <- now
	}
}

func (c *fakeClock) activeTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ft := range c.timers {
		if !ft.done {
			n++
		}
	}
	return n
}

func (ft *fakeTimer) C() <-chan time.Time { return ft.ch }

func (ft *fakeTimer) Stop() bool {
	if ft.done {
		return false
	}
	ft.done = true
	return true
}

// waitForTimer дожидается, пока цикл контроллера взведет таймер: Set
// синхронно передает значение, но arm происходит уже в горутине цикла.
func waitForTimer(t *testing.T, clock *fakeClock) {
	t.Helper()
	require.Eventually(t, func() bool { return clock.activeTimers() > 0 },
		time.Second, time.Millisecond)
}

func TestControllerSavesLastValueOnce(t *testing.T) {
	clock := newFakeClock()
	saves := make(chan int, 10)

	c := New(func(_ context.Context, v int) error {
		saves <- v
		return nil
	}, WithDelay[int](2*time.Second), WithClock[int](clock))
	defer c.Close()

	c.Set(1)
	c.Set(2)
	c.Set(3)

	waitForTimer(t, clock)
	clock.Advance(2 * time.Second)

	select {
	case v := <-saves:
		assert.Equal(t, 3, v)
	case <-time.After(time.Second):
		t.Fatal("expected a save after the debounce delay")
	}

	// Ровно одно сохранение: промежуточные значения не пишутся.
	clock.Advance(10 * time.Second)
	select {
	case v := <-saves:
		t.Fatalf("unexpected extra save: %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestControllerNoTimerBeforeDelay(t *testing.T) {
	clock := newFakeClock()
	saves := make(chan string, 1)

	c := New(func(_ context.Context, v string) error {
		saves <- v
		return nil
	}, WithDelay[string](2*time.Second), WithClock[string](clock))
	defer c.Close()

	c.Set("draft")
	waitForTimer(t, clock)

	clock.Advance(time.Second)
	select {
	case <-saves:
		t.Fatal("saved before the debounce delay elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(time.Second)
	select {
	case v := <-saves:
		assert.Equal(t, "draft", v)
	case <-time.After(time.Second):
		t.Fatal("expected a save after the full delay")
	}
}

func TestControllerDedupesUnchangedValue(t *testing.T) {
	clock := newFakeClock()
	saves := make(chan int, 10)

	c := New(func(_ context.Context, v int) error {
		saves <- v
		return nil
	}, WithDelay[int](time.Second), WithClock[int](clock))
	defer c.Close()

	c.Set(7)
	waitForTimer(t, clock)
	clock.Advance(time.Second)
	require.Equal(t, 7, <-saves)

	require.Eventually(t, func() bool {
		state := c.State()
		return !state.Saving && !state.LastSaved.IsZero()
	}, time.Second, time.Millisecond)

	// Повторная отправка того же значения таймер не взводит.
	c.Set(7)
	clock.Advance(10 * time.Second)
	select {
	case v := <-saves:
		t.Fatalf("unexpected save of unchanged value: %d", v)
	case <-time.After(50 * time.Millisecond):
	}

	// Новое значение снова проходит.
	c.Set(8)
	waitForTimer(t, clock)
	clock.Advance(time.Second)
	assert.Equal(t, 8, <-saves)
}

func TestControllerRetainsValueOnError(t *testing.T) {
	clock := newFakeClock()
	saveErr := errors.New("store unavailable")

	var mu sync.Mutex
	fail := true
	var attempts []int

	c := New(func(_ context.Context, v int) error {
		mu.Lock()
		defer mu.Unlock()
		attempts = append(attempts, v)
		if fail {
			return saveErr
		}
		return nil
	}, WithDelay[int](time.Second), WithClock[int](clock))
	defer c.Close()

	c.Set(5)
	waitForTimer(t, clock)
	clock.Advance(time.Second)

	require.Eventually(t, func() bool {
		return errors.Is(c.State().Err, saveErr)
	}, time.Second, time.Millisecond)

	// Авторетраев нет: время идет, попытка одна.
	clock.Advance(30 * time.Second)
	mu.Lock()
	require.Equal(t, []int{5}, attempts)
	fail = false
	mu.Unlock()

	// Flush повторяет удержанное значение.
	c.Flush()

	require.Eventually(t, func() bool {
		state := c.State()
		return state.Err == nil && !state.LastSaved.IsZero()
	}, time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, []int{5, 5}, attempts)
	mu.Unlock()
}

func TestControllerRemembersNewestDuringInFlightSave(t *testing.T) {
	clock := newFakeClock()
	release := make(chan struct{})
	saves := make(chan int, 10)

	c := New(func(_ context.Context, v int) error {
		saves <- v
		<-release
		return nil
	}, WithDelay[int](time.Second), WithClock[int](clock))
	defer c.Close()

	c.Set(1)
	waitForTimer(t, clock)
	clock.Advance(time.Second)
	require.Equal(t, 1, <-saves)

	// Пока запись в полете, приходит новое значение: оно запоминается,
	// текущая запись довершается.
	c.Set(2)
	close(release)

	waitForTimer(t, clock)
	clock.Advance(time.Second)
	assert.Equal(t, 2, <-saves)
}

func TestControllerDedupesValueSetDuringInFlightSave(t *testing.T) {
	clock := newFakeClock()
	release := make(chan struct{})
	saves := make(chan int, 10)

	c := New(func(_ context.Context, v int) error {
		saves <- v
		<-release
		return nil
	}, WithDelay[int](time.Second), WithClock[int](clock))
	defer c.Close()

	c.Set(1)
	waitForTimer(t, clock)
	clock.Advance(time.Second)
	require.Equal(t, 1, <-saves)

	// Пока запись в полете, приходит то же самое значение: после завершения
	// записи оно равно последнему сохраненному и новый цикл не взводится.
	c.Set(1)
	close(release)

	require.Eventually(t, func() bool { return !c.State().Saving },
		time.Second, time.Millisecond)
	assert.Zero(t, clock.activeTimers())

	clock.Advance(10 * time.Second)
	select {
	case v := <-saves:
		t.Fatalf("unexpected duplicate save: %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestControllerFlushBeforeTimer(t *testing.T) {
	clock := newFakeClock()
	saves := make(chan int, 1)

	c := New(func(_ context.Context, v int) error {
		saves <- v
		return nil
	}, WithDelay[int](time.Hour), WithClock[int](clock))
	defer c.Close()

	c.Set(9)
	waitForTimer(t, clock)
	c.Flush()

	select {
	case v := <-saves:
		assert.Equal(t, 9, v)
	case <-time.After(time.Second):
		t.Fatal("flush should save immediately")
	}
}

func TestControllerCloseWaitsForInFlightSave(t *testing.T) {
	clock := newFakeClock()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	c := New(func(_ context.Context, v int) error {
		close(started)
		<-release
		return nil
	}, WithDelay[int](time.Second), WithClock[int](clock))

	c.Set(1)
	waitForTimer(t, clock)
	clock.Advance(time.Second)
	<-started

	go func() {
		c.Close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Close returned before the in-flight save finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the save finished")
	}
}
