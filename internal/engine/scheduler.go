package engine

import (
	"context"
	"sync"
	"time"
)

// Scheduler - структурированный планировщик отложенных задач
//
// Замена fire-and-forget таймеров: каждая задача резолюции/перехода
// регистрируется в WaitGroup, shutdown отменяет ожидающие таймеры и
// детерминированно дожидается выполняющихся задач.
//
// Использование:
//
//	sched := NewScheduler()
//	sched.AfterFunc(100*time.Millisecond, func() { ... })
//	sched.Shutdown(ctx) // отмена + ожидание
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewScheduler создает новый планировщик
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context возвращает базовый контекст планировщика
//
// Задачи используют его как родителя для своих таймаутов:
// shutdown отменяет и запросы к внешним зависимостям.
func (s *Scheduler) Context() context.Context {
	return s.ctx
}

// AfterFunc планирует выполнение fn через delay
//
// Возвращает false если планировщик уже остановлен (задача не
// запланирована). Ожидающий таймер отменяется при shutdown -
// fn в этом случае не вызывается.
func (s *Scheduler) AfterFunc(delay time.Duration, fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			fn()
		case <-s.ctx.Done():
		}
	}()

	return true
}

// Go запускает fn немедленно под учетом планировщика
func (s *Scheduler) Go(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		fn()
	}()

	return true
}

// Shutdown отменяет ожидающие задачи и дожидается выполняющихся
//
// Возвращает ctx.Err() если ожидание превысило дедлайн контекста.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
