package util

import (
	"fmt"
	"sync"
	"time"
)

var waitInitialTimeout = 10 * time.Second

// Waiter tracks the age of the last successful update and waits for the first one
type Waiter struct {
	sync.Mutex
	cond    *sync.Cond
	updated time.Time
	timeout time.Duration
}

// NewWaiter creates new waiter. A zero timeout disables the staleness check.
func NewWaiter(timeout time.Duration) *Waiter {
	p := &Waiter{
		timeout: timeout,
	}
	p.cond = sync.NewCond(p)
	return p
}

// Update is called after a successful refresh and resets the timeout counter.
// The waiter must not be locked when Update is called.
func (p *Waiter) Update() {
	p.Lock()
	p.updated = time.Now()
	p.Unlock()
	p.cond.Broadcast()
}

// Updated returns the time of the last update
func (p *Waiter) Updated() time.Time {
	p.Lock()
	defer p.Unlock()
	return p.updated
}

// Overdue waits for initial update and returns an error if timeout exceeded.
// Waiter MUST be locked when calling Overdue.
func (p *Waiter) Overdue() error {
	if p.updated.IsZero() {
		c := make(chan struct{})

		go func() {
			defer close(c)
			for p.updated.IsZero() {
				p.cond.Wait()
			}
		}()

		select {
		case <-c:
			// initial value received, lock established
			return nil
		case <-time.After(waitInitialTimeout):
			p.updated = time.Now() // unblock the waiting goroutine
			p.cond.Broadcast()
			<-c                     // wait for goroutine, re-establish lock
			p.updated = time.Time{} // reset updated to initial value missing
			return fmt.Errorf("timeout: %v", waitInitialTimeout)
		}
	}

	if elapsed := time.Since(p.updated); p.timeout != 0 && elapsed > p.timeout {
		return fmt.Errorf("outdated: %v", elapsed.Round(time.Second))
	}

	return nil
}

// Healthy locks the waiter and checks for overdue updates
func (p *Waiter) Healthy() error {
	p.Lock()
	defer p.Unlock()
	return p.Overdue()
}
