package core

import "sync"

// SubscriptionSlot holds at most one live subscription. Arming the slot
// cancels whatever it held before.
type SubscriptionSlot struct {
	mu    sync.Mutex
	sub   Subscription
	token uint64
}

// Arm stores sub and returns a token identifying this arm.
func (s *SubscriptionSlot) Arm(sub Subscription) uint64 {
	s.mu.Lock()
	prev := s.sub
	s.token++
	token := s.token
	s.sub = sub
	s.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	return token
}

// Cancel cancels and clears the held subscription, if any.
func (s *SubscriptionSlot) Cancel() {
	s.mu.Lock()
	prev := s.sub
	s.sub = nil
	s.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
}

// Clear empties the slot only if it still holds the arm identified by token.
// It does not cancel the subscription; the caller owns that.
func (s *SubscriptionSlot) Clear(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil || s.token != token {
		return false
	}
	s.sub = nil
	return true
}

func (s *SubscriptionSlot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}
