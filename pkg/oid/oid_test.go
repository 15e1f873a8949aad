package oid_test

import (
	"regexp"
	"testing"

	"github.com/julien-sobczak/the-lessonwriter/pkg/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reOID = regexp.MustCompile(`^[0-9a-f]{40}$`)

func TestNew(t *testing.T) {
	oid1 := oid.New()
	oid2 := oid.New()
	require.NotEqual(t, oid1, oid2)
	assert.Regexp(t, reOID, oid1.String())
}

func TestNewFromBytes(t *testing.T) {
	oid1 := oid.NewFromBytes([]byte("<p>hello</p>"))
	oid2 := oid.NewFromBytes([]byte("<p>world</p>"))
	require.NotEqual(t, oid1, oid2)
	require.Equal(t, oid1, oid.NewFromBytes([]byte("<p>hello</p>"))) // Does not change
	assert.Regexp(t, reOID, oid1.String())
}

func TestShort(t *testing.T) {
	assert.Equal(t, "f3aaf54", oid.OID("f3aaf5433ec0357844d88f860c42e044fe44ee61").Short())
	assert.Equal(t, "", oid.Nil.Short())
	assert.True(t, oid.Nil.IsNil())
}

func TestParseOrNil(t *testing.T) {
	assert.Equal(t, oid.Nil, oid.ParseOrNil("too-short"))
	assert.Equal(t, oid.OID("f3aaf5433ec0357844d88f860c42e044fe44ee61"), oid.ParseOrNil("f3aaf5433ec0357844d88f860c42e044fe44ee61"))
}

func TestUseSequence(t *testing.T) {
	oid.UseSequence(t)
	assert.Equal(t, oid.OID("0000000000000000000000000000000000000001"), oid.New())
	assert.Equal(t, oid.OID("0000000000000000000000000000000000000002"), oid.NewFromBytes([]byte("ignored")))
}
