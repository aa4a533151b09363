package bot

import (
	"sync"
	"time"
)

// Cooldowns is the per-task debounce ledger. A task is eligible once the
// clock reaches its next-eligible time; each eligible check pushes that
// time forward by the task's cooldown whether or not the caller acts.
type Cooldowns struct {
	mu   sync.Mutex
	next map[TaskKey]time.Time
	now  func() time.Time
}

// NewCooldowns creates an empty ledger reading the given clock
func NewCooldowns(now func() time.Time) *Cooldowns {
	if now == nil {
		now = time.Now
	}
	return &Cooldowns{
		next: make(map[TaskKey]time.Time),
		now:  now,
	}
}

// CanAct reports whether key is eligible and, if so, consumes the window
func (c *Cooldowns) CanAct(key TaskKey, cooldown time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Before(c.next[key]) {
		return false
	}
	c.next[key] = now.Add(cooldown)
	return true
}

// NextEligible returns the ledger entry for key; zero means never consumed
func (c *Cooldowns) NextEligible(key TaskKey) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next[key]
}

// Reset clears the ledger
func (c *Cooldowns) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = make(map[TaskKey]time.Time)
}

// Schedule tracks when each task is next due. Unlike Cooldowns it is
// only advanced by the caller, after all of a task's gates have passed.
type Schedule struct {
	next map[TaskKey]time.Time
}

// NewSchedule marks every task due at start
func NewSchedule(start time.Time) *Schedule {
	s := &Schedule{next: make(map[TaskKey]time.Time, len(AllTasks))}
	for _, key := range AllTasks {
		s.next[key] = start
	}
	return s
}

// Due reports whether now has reached the task's next due time
func (s *Schedule) Due(key TaskKey, now time.Time) bool {
	return !now.Before(s.next[key])
}

// Advance pushes the task's due time to now + interval
func (s *Schedule) Advance(key TaskKey, now time.Time, interval time.Duration) {
	s.next[key] = now.Add(interval)
}
