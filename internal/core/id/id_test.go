package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedUnique(t *testing.T) {
	a := MustParse("00000000-0000-0000-0000-000000000001")
	b := MustParse("00000000-0000-0000-0000-000000000002")
	zero := Nil()

	got := SortedUnique(&b, nil, &a, &b, &zero)

	assert.Equal(t, []ID{a, b}, got)
	assert.Empty(t, SortedUnique())
}

func TestEqual(t *testing.T) {
	a := New()
	b := New()

	assert.True(t, Equal(nil, nil))
	assert.True(t, Equal(&a, Ptr(a)))
	assert.False(t, Equal(&a, nil))
	assert.False(t, Equal(&a, &b))
}
