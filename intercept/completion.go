package intercept

import "sync"

type result struct {
	params Params
	err    error
}

// completion holds the one permitted sender for an interception. Taking it is atomic,
// so of any number of concurrent or repeated matching navigations exactly one gets to
// report a result.
type completion struct {
	mu     sync.Mutex
	sender chan<- result
}

func newCompletion() (*completion, <-chan result) {
	// buffered so the taker never blocks inside a navigation callback
	ch := make(chan result, 1)
	return &completion{sender: ch}, ch
}

// take returns the sender and empties the slot, or nil if it was already taken.
func (c *completion) take() chan<- result {
	c.mu.Lock()
	defer c.mu.Unlock()
	sender := c.sender
	c.sender = nil
	return sender
}
