// Package scheduler delivers periodic callbacks against a simulation clock.
package scheduler

import (
	"container/heap"
	"sync"
)

// Token identifies a registered callback. The zero Token is never issued.
type Token uint64

// Handler is invoked with the time the callback was due.
type Handler func(at float64)

type callback struct {
	token    Token
	interval float64
	due      float64
	handler  Handler
	index    int // heap index, -1 once removed
}

// callbackHeap orders callbacks by due time, then registration order.
type callbackHeap []*callback

func (h callbackHeap) Len() int { return len(h) }
func (h callbackHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].token < h[j].token
}
func (h callbackHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *callbackHeap) Push(x any) {
	c := x.(*callback)
	c.index = len(*h)
	*h = append(*h, c)
}

func (h *callbackHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.index = -1
	*h = old[0 : n-1]
	return c
}

// Scheduler is a priority queue of periodic callbacks. Callbacks fire from
// whichever goroutine calls Advance, one at a time; Register and Unregister
// are safe to call from any goroutine, including from inside a handler.
type Scheduler struct {
	mu      sync.Mutex
	queue   callbackHeap
	byToken map[Token]*callback
	next    Token
	now     float64
}

// New creates a scheduler whose clock starts at start.
func New(start float64) *Scheduler {
	return &Scheduler{
		byToken: make(map[Token]*callback),
		now:     start,
	}
}

// Register schedules h every interval time units, first firing one interval
// from the current clock. It panics if interval is not positive.
func (s *Scheduler) Register(interval float64, h Handler) Token {
	if interval <= 0 {
		panic("scheduler: non-positive interval")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	c := &callback{
		token:    s.next,
		interval: interval,
		due:      s.now + interval,
		handler:  h,
	}
	heap.Push(&s.queue, c)
	s.byToken[c.token] = c
	return c.token
}

// Unregister cancels a callback. It reports whether the token was live.
// A dispatch already in flight on another goroutine may still complete;
// no dispatch starts after Unregister returns.
func (s *Scheduler) Unregister(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byToken[t]
	if !ok {
		return false
	}
	delete(s.byToken, t)
	if c.index >= 0 {
		heap.Remove(&s.queue, c.index)
	}
	return true
}

// Advance moves the clock to now and fires every callback due at or before
// it, in due order. A callback that fell several intervals behind fires once
// per missed interval. It returns the number of handler invocations.
func (s *Scheduler) Advance(now float64) int {
	fired := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].due > now {
			if now > s.now {
				s.now = now
			}
			s.mu.Unlock()
			return fired
		}
		c := s.queue[0]
		at := c.due
		s.now = at
		c.due += c.interval
		heap.Fix(&s.queue, 0)
		s.mu.Unlock()

		c.handler(at)
		fired++
	}
}

// Now returns the scheduler clock.
func (s *Scheduler) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Len returns the number of registered callbacks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
