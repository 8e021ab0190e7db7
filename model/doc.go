// Package model contains the wire-level vocabulary shared by the dispatcher
// and the worker agents: message tags, the payload codecs for every message
// kind and the value types exchanged between ranks.
//
// All integers travel big-endian. A result payload is opaque text and is never
// re-encoded: the buffer a worker fills is the buffer the coordinator emits.
package model
