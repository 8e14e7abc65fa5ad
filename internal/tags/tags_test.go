package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	for _, tag := range []string{"backend", "UI_2", "phase-1", CriticalPath} {
		assert.True(t, Valid(tag), tag)
	}
	for _, tag := range []string{"", "two words", "a/b", "é"} {
		assert.False(t, Valid(tag), tag)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Normalize([]string{"b", "a", "b"}))
	assert.Nil(t, Normalize(nil))
}

func TestIndexRefCounting(t *testing.T) {
	idx := NewIndex()
	idx.Add("a", "b")
	idx.Add("b")

	idx.Remove("b")
	assert.True(t, idx.Has("b"), "b still referenced once")

	idx.Remove("b", "a", "missing")
	assert.False(t, idx.Has("b"))
	assert.False(t, idx.Has("a"))
	assert.Equal(t, 0, idx.Len())
}

func TestIndexRebuild(t *testing.T) {
	idx := NewIndex()
	idx.Add("stale")
	idx.Rebuild([]string{"x", "y"}, nil, []string{"y", "z"})
	assert.Equal(t, []string{"x", "y", "z"}, idx.All())
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		have     []string
		filter   []string
		matchAll bool
		want     bool
	}{
		{"no filter", nil, nil, false, true},
		{"untagged never matches", nil, []string{"a"}, false, false},
		{"any hit", []string{"a", "c"}, []string{"a", "b"}, false, true},
		{"any miss", []string{"c"}, []string{"a", "b"}, false, false},
		{"all hit", []string{"a", "b", "c"}, []string{"a", "b"}, true, true},
		{"all miss", []string{"a", "c"}, []string{"a", "b"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.have, tt.filter, tt.matchAll))
		})
	}
}
