package metrics

import "sync"

// Recorder receives diagnostic events from the engine.
type Recorder interface {
	// APICall records one remote call against the named endpoint.
	APICall(endpoint string)
	// EntityFetch records a remote fetch of one entity, keyed by kind and id.
	// Fetching the same id repeatedly is the signal the counters exist to expose.
	EntityFetch(kind, id string)
}

// Counters is an in-memory Recorder safe for concurrent use.
type Counters struct {
	mu        sync.Mutex
	apiCalls  map[string]int
	fetches   map[string]int
	uniqueIDs map[string]map[string]struct{}
}

// NewCounters creates an empty Counters recorder.
func NewCounters() *Counters {
	return &Counters{
		apiCalls:  make(map[string]int),
		fetches:   make(map[string]int),
		uniqueIDs: make(map[string]map[string]struct{}),
	}
}

func (c *Counters) APICall(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiCalls[endpoint]++
}

func (c *Counters) EntityFetch(kind, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches[kind]++
	set, ok := c.uniqueIDs[kind]
	if !ok {
		set = make(map[string]struct{})
		c.uniqueIDs[kind] = set
	}
	set[id] = struct{}{}
}

// APICalls returns a copy of the per-endpoint call counts.
func (c *Counters) APICalls() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.apiCalls))
	for k, v := range c.apiCalls {
		out[k] = v
	}
	return out
}

// FetchStats returns, per entity kind, the total fetch count and the distinct id
// count. A total far above distinct means redundant remote reads.
func (c *Counters) FetchStats() (total map[string]int, distinct map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	total = make(map[string]int, len(c.fetches))
	distinct = make(map[string]int, len(c.uniqueIDs))
	for k, v := range c.fetches {
		total[k] = v
	}
	for k, set := range c.uniqueIDs {
		distinct[k] = len(set)
	}
	return total, distinct
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) APICall(string)             {}
func (Nop) EntityFetch(string, string) {}
