package oid

import "testing"

// UseSequence configures predictable OIDs for the duration of the test.
func UseSequence(t *testing.T) {
	setGenerator(&SequenceGenerator{})
	t.Cleanup(Reset)
}
