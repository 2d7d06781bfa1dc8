package connection

import "time"

// backoff produces the reconnect delay sequence: base, 2*base, 4*base, ...
// capped at max and held there until Reset.
type backoff struct {
	base time.Duration
	max  time.Duration
	next time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &backoff{base: base, max: max, next: base}
}

// Next returns the current delay and advances the sequence.
func (b *backoff) Next() time.Duration {
	d := b.next
	b.next *= 2
	if b.next > b.max {
		b.next = b.max
	}
	return d
}

// Reset returns the sequence to its floor. Called on every successful
// connect so the next failure starts over at the base delay.
func (b *backoff) Reset() {
	b.next = b.base
}
