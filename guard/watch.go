package guard

import (
	"sync"

	"github.com/MrEthical07/goBoard/session"
)

// Watcher holds the live decision for one rendered view.
type Watcher struct {
	policy      Policy
	src         Source
	onChange    func(State)
	unsubscribe func()

	mu    sync.Mutex
	state State
}

// Watch evaluates p now and again on every session change. onChange runs only when the
// state differs from the previous one. Call Stop when the view goes away.
func Watch(p Policy, src Source, onChange func(State)) *Watcher {
	w := &Watcher{
		policy:   p,
		src:      src,
		onChange: onChange,
	}
	// Subscribing first means a change racing with the initial evaluation is either
	// read by Evaluate or delivered to observe afterwards.
	w.mu.Lock()
	w.unsubscribe = src.Subscribe(w.observe)
	w.state = Evaluate(p, src)
	w.mu.Unlock()
	return w
}

func (w *Watcher) observe(sess session.Session) {
	// Subscribers only run after Initialize, so the source is ready here.
	next := Decide(w.policy, sess, true)

	w.mu.Lock()
	if next == w.state {
		w.mu.Unlock()
		return
	}
	w.state = next
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(next)
	}
}

// State returns the latest decision.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Stop detaches the watcher from the source. Safe to call more than once.
func (w *Watcher) Stop() {
	w.unsubscribe()
}
