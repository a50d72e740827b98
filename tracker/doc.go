// Package tracker emits login tracking events through a buffered dispatcher
// that never blocks the flow producing them. Events are delivered to a
// caller-supplied Sink and dropped, counted, when the queue is full.
package tracker
