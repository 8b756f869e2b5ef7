// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package closer provides a one-shot, broadcastable close signal used by
// the endpoint glue (C8) to fan shutdown out to every goroutine blocked on
// a send/receive/wait.
package closer

import "sync"

// Closer is a broadcastable, idempotent close signal.
type Closer struct {
	once sync.Once
	done chan struct{}
}

// NewCloser returns a ready-to-use Closer.
func NewCloser() *Closer {
	return &Closer{done: make(chan struct{})}
}

// Close signals every waiter on Done. Safe to call more than once.
func (c *Closer) Close() {
	c.once.Do(func() { close(c.done) })
}

// Done returns a channel that closes exactly once, when Close is first called.
func (c *Closer) Done() <-chan struct{} {
	return c.done
}
