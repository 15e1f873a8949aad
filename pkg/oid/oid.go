// Package oid generates the identifiers of sessions and versions.
package oid

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// OID is a 40-character hexadecimal identifier (same length as a Git commit ID).
type OID string

const Nil = OID("")

func (o OID) IsNil() bool {
	return string(o) == ""
}

// Short returns the abbreviated form used when listing versions.
func (o OID) Short() string {
	if len(o) < 7 {
		return string(o)
	}
	return string(o)[0:7]
}

// String returns the OID as a string.
func (o OID) String() string {
	return string(o)
}

/* Constructors */

// New returns a random OID.
func New() OID {
	return currentGenerator().New()
}

// NewFromBytes returns an OID derived from the content.
// The same bytes always generate the same OID.
func NewFromBytes(b []byte) OID {
	return currentGenerator().NewFromBytes(b)
}

// ParseOrNil parses an OID or returns Nil.
func ParseOrNil(s string) OID {
	if len(s) != 40 {
		return Nil
	}
	return OID(s)
}

/* Generators */

type Generator interface {
	New() OID
	NewFromBytes(b []byte) OID
}

var (
	generatorMu sync.Mutex
	generator   Generator = &UniqueGenerator{}
)

func currentGenerator() Generator {
	generatorMu.Lock()
	defer generatorMu.Unlock()
	return generator
}

func setGenerator(g Generator) {
	generatorMu.Lock()
	defer generatorMu.Unlock()
	generator = g
}

// Reset restores the original unique OID generator.
func Reset() {
	setGenerator(&UniqueGenerator{})
}

// UniqueGenerator returns random OIDs, and content hashes for NewFromBytes.
type UniqueGenerator struct{}

func (g *UniqueGenerator) New() OID {
	// Two UUIDv4 without dashes, truncated to 40 characters
	return OID(strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")[0:40])
}

func (g *UniqueGenerator) NewFromBytes(b []byte) OID {
	return OID(fmt.Sprintf("%x", sha1.Sum(b)))
}

// SequenceGenerator returns numbered OIDs in a predictable format.
type SequenceGenerator struct {
	mu    sync.Mutex
	count int
}

func (g *SequenceGenerator) New() OID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count++
	return OID(fmt.Sprintf("%040d", g.count))
}

func (g *SequenceGenerator) NewFromBytes(b []byte) OID {
	return g.New()
}
