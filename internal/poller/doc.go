// Package poller maintains a live state snapshot for one air conditioner.
//
// The device protocol is connection-oriented and push-capable but offers
// no request correlation, so the poller owns the session lifecycle: it
// connects and authenticates on demand, refreshes the full state on a
// fixed interval, and funnels every outbound command through the same
// serialisation point so commands never interleave with refreshes.
//
// # Reconciliation
//
// Commands are optimistic. A successful command immediately patches the
// cached snapshot so subscribers see the expected effect without waiting
// for the next poll; the poll then reconciles the cache against what the
// unit actually did. A failed command tears the session down, because a
// half-written line leaves the stream in an unknown framing state.
//
// # Subscribers
//
// Listeners registered with AddListener receive every new snapshot;
// status listeners observe connection health transitions. Both are
// invoked synchronously on the poller's goroutine and must not block.
package poller
