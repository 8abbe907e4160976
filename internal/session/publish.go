package session

import "sync"

// publisher fans state snapshots out to subscribers. Subscribers run on the
// goroutine that changed the state, after the state lock is released.
type publisher[T any] struct {
	mu   sync.Mutex
	subs map[int]func(T)
	next int
}

func (p *publisher[T]) subscribe(fn func(T)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs == nil {
		p.subs = make(map[int]func(T))
	}
	id := p.next
	p.next++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *publisher[T]) publish(v T) {
	p.mu.Lock()
	fns := make([]func(T), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}
