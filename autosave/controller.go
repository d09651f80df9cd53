// Package autosave реализует отложенное автосохранение произвольного
// значения формы: дебаунс, дедупликация неизмененного состояния и
// наблюдаемый статус сохранения.
package autosave

import (
	"context"
	"reflect"
	"sync"
	"time"
)

const defaultDelay = 2 * time.Second

// State — наблюдаемый статус контроллера.
type State struct {
	Saving    bool
	LastSaved time.Time // нулевое значение — еще ни разу не сохранялись
	Err       error
}

type Option[V any] func(*Controller[V])

func WithDelay[V any](d time.Duration) Option[V] {
	return func(c *Controller[V]) { c.delay = d }
}

func WithClock[V any](clock Clock) Option[V] {
	return func(c *Controller[V]) { c.clock = clock }
}

// WithEqual подменяет проверку "значение не изменилось" (по умолчанию
// reflect.DeepEqual).
func WithEqual[V any](eq func(a, b V) bool) Option[V] {
	return func(c *Controller[V]) { c.equal = eq }
}

// Controller — машина состояний idle → pendingSave → saving → idle/error.
//
// Правила переходов:
//   - каждое изменение значения перевзводит таймер; сохраняется только
//     последнее значение, очереди нет;
//   - значение, равное последнему успешно сохраненному, таймер не взводит;
//   - пока идет сохранение, новое значение запоминается, текущая запись
//     довершается; свежий цикл дебаунса стартует после ее завершения;
//   - при ошибке записи значение удерживается для повтора при следующем
//     изменении или ручном Flush; автоматических ретраев нет.
type Controller[V any] struct {
	persist func(context.Context, V) error
	delay   time.Duration
	clock   Clock
	equal   func(a, b V) bool

	changes chan V
	flush   chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mu    sync.Mutex
	state State
}

func New[V any](persist func(context.Context, V) error, opts ...Option[V]) *Controller[V] {
	c := &Controller[V]{
		persist: persist,
		delay:   defaultDelay,
		clock:   RealClock(),
		equal:   func(a, b V) bool { return reflect.DeepEqual(a, b) },
		changes: make(chan V),
		flush:   make(chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.run()
	return c
}

// Set сообщает контроллеру новое значение формы.
func (c *Controller[V]) Set(value V) {
	select {
	case c.changes <- value:
	case <-c.done:
	}
}

// Flush запрашивает немедленное сохранение, минуя таймер. В запись,
// которая уже в полете, не вмешивается.
func (c *Controller[V]) Flush() {
	select {
	case c.flush <- struct{}{}:
	case <-c.done:
	}
}

// State возвращает текущий наблюдаемый статус.
func (c *Controller[V]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close снимает таймеры, дожидается завершения записи в полете и
// останавливает контроллер. Обязателен при демонтаже владельца.
func (c *Controller[V]) Close() {
	c.once.Do(func() { close(c.done) })
	<-c.stopped
}

type saveResult[V any] struct {
	value V
	err   error
}

func (c *Controller[V]) run() {
	defer close(c.stopped)

	var (
		pending    V
		hasPending bool
		lastSaved  V
		hasSaved   bool

		timer  Timer
		timerC <-chan time.Time

		inFlight <-chan saveResult[V]
	)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}
	arm := func() {
		stopTimer()
		timer = c.clock.NewTimer(c.delay)
		timerC = timer.C()
	}
	fire := func() {
		value := pending
		hasPending = false
		stopTimer()
		c.setState(func(s *State) { s.Saving = true })
		results := make(chan saveResult[V], 1)
		inFlight = results
		go func() {
			results <- saveResult[V]{value: value, err: c.persist(context.Background(), value)}
		}()
	}

	for {
		select {
		case value := <-c.changes:
			if hasSaved && c.equal(value, lastSaved) {
				// Эффекты любят перепосылать то же состояние; лишнюю запись
				// не планируем.
				continue
			}
			pending = value
			hasPending = true
			if inFlight == nil {
				arm()
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if hasPending && inFlight == nil {
				fire()
			}

		case <-c.flush:
			if hasPending && inFlight == nil {
				fire()
			}

		case res := <-inFlight:
			inFlight = nil
			if res.err != nil {
				c.setState(func(s *State) {
					s.Saving = false
					s.Err = res.err
				})
				if hasPending {
					arm()
				} else {
					// Удерживаем неудавшееся значение: повтор случится при
					// следующем изменении или Flush, без авторетрая.
					pending = res.value
					hasPending = true
				}
				continue
			}
			lastSaved = res.value
			hasSaved = true
			c.setState(func(s *State) {
				s.Saving = false
				s.Err = nil
				s.LastSaved = c.clock.Now()
			})
			if hasPending {
				if c.equal(pending, lastSaved) {
					// Пока шла запись, форма вернулась к только что
					// сохраненному состоянию: перевзводить нечего.
					hasPending = false
				} else {
					arm()
				}
			}

		case <-c.done:
			stopTimer()
			if inFlight != nil {
				res := <-inFlight
				c.setState(func(s *State) {
					s.Saving = false
					if res.err != nil {
						s.Err = res.err
					} else {
						s.Err = nil
						s.LastSaved = c.clock.Now()
					}
				})
			}
			return
		}
	}
}

func (c *Controller[V]) setState(mutate func(*State)) {
	c.mu.Lock()
	mutate(&c.state)
	c.mu.Unlock()
}
