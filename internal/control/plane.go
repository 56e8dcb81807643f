// Package control implements the stop/pause coordination the BFS Engine
// and Orchestrator poll during a crawl, plus the OS signal and
// control-file front ends that drive it. Grounded on spec.md §4.7's
// "message passing with two atomically readable flags and a condition
// variable" design note.
package control

import "sync"

// Plane coordinates cooperative stop/pause across the engine's
// goroutines. All methods are safe for concurrent use.
type Plane struct {
	mu         sync.Mutex
	cond       *sync.Cond
	stop       bool
	stopReason string
	paused     bool
	pauseReason string
}

// NewPlane returns a Plane with neither stop nor pause requested.
func NewPlane() *Plane {
	p := &Plane{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// RequestStop latches a stop request and clears any pending pause, per
// spec.md §4.7: flips stop_requested once, then clears pause. Once set
// stop cannot be cleared — a crawl run is stopped for good.
func (p *Plane) RequestStop(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop = true
	p.stopReason = reason
	p.paused = false
	p.pauseReason = ""
	p.cond.Broadcast() // wake any goroutine blocked in WaitIfPaused
}

// ShouldStop reports whether a stop has been requested, and why.
func (p *Plane) ShouldStop() (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop, p.stopReason
}

// RequestPause latches a pause request.
func (p *Plane) RequestPause(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	p.pauseReason = reason
}

// ClearPause clears a pause request and wakes any goroutine blocked in
// WaitIfPaused.
func (p *Plane) ClearPause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	p.pauseReason = ""
	p.cond.Broadcast()
}

// TogglePause flips the current pause state, returning the new state.
func (p *Plane) TogglePause(reason string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = !p.paused
	if p.paused {
		p.pauseReason = reason
	} else {
		p.pauseReason = ""
	}
	p.cond.Broadcast()
	return p.paused
}

// IsPaused reports the current pause state.
func (p *Plane) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// WaitIfPaused blocks the calling goroutine while paused is true,
// returning immediately if a stop has since been requested.
func (p *Plane) WaitIfPaused() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.paused && !p.stop {
		p.cond.Wait()
	}
}
