package screengraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/palila/internal/experr"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Empty(t, g.Names())
	assert.NoError(t, g.Validate())
}

func TestAddScreen(t *testing.T) {
	g := New()
	require.NoError(t, g.AddScreen("welcome", "", "end"))
	require.NoError(t, g.AddScreen("end", "welcome", ""))

	err := g.AddScreen("welcome", "", "")
	require.Error(t, err)
	assert.True(t, experr.IsProgramming(err))
	assert.ErrorContains(t, err, `duplicate screen name "welcome"`)

	assert.Error(t, g.AddScreen("", "", ""))
	assert.Equal(t, []string{"welcome", "end"}, g.Names())
	assert.Equal(t, 2, g.Len())
}

func TestLinks(t *testing.T) {
	t.Run("patching forward references", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddScreen("a", "", ""))
		require.NoError(t, g.AddScreen("b", "", ""))
		require.NoError(t, g.Link("a", "b"))

		next, ok := g.Next("a")
		require.True(t, ok)
		assert.Equal(t, "b", next)
		prev, ok := g.Previous("b")
		require.True(t, ok)
		assert.Equal(t, "a", prev)
		assert.NoError(t, g.Validate())
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddScreen("a", "", ""))

		assert.ErrorContains(t, g.SetNext("dne", "a"), "screen not found")
		assert.ErrorContains(t, g.SetPrevious("dne", "a"), "screen not found")
		assert.ErrorContains(t, g.SetNext("a", "a"), "self-referential link")
		assert.ErrorContains(t, g.Link("a", "dne"), "screen not found")

		_, ok := g.Next("dne")
		assert.False(t, ok)
		_, ok = g.Previous("dne")
		assert.False(t, ok)
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		screens   [][3]string
		errSubstr string
	}{
		{
			name:    "linear chain",
			screens: [][3]string{{"a", "", "b"}, {"b", "a", "c"}, {"c", "b", ""}},
		},
		{
			name:      "dangling next",
			screens:   [][3]string{{"a", "", "end"}},
			errSubstr: `screen "a": next screen "end" does not exist`,
		},
		{
			name:      "dangling previous",
			screens:   [][3]string{{"a", "ghost", ""}},
			errSubstr: `screen "a": previous screen "ghost" does not exist`,
		},
		{
			name:      "unmirrored link",
			screens:   [][3]string{{"a", "", "b"}, {"b", "", ""}},
			errSubstr: `next screen "b" points back to ""`,
		},
		{
			name:      "cycle",
			screens:   [][3]string{{"a", "b", "b"}, {"b", "a", "a"}},
			errSubstr: "cycle detected",
		},
		{
			name:      "unreachable screen",
			screens:   [][3]string{{"a", "", "b"}, {"b", "a", ""}, {"c", "b", ""}},
			errSubstr: `screen "c" cannot be reached from "a"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := New()
			for _, s := range tc.screens {
				require.NoError(t, g.AddScreen(s[0], s[1], s[2]))
			}
			err := g.Validate()
			if tc.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, experr.IsProgramming(err), "expected a ProgrammingError, got %v", err)
			assert.ErrorContains(t, err, tc.errSubstr)
		})
	}
}

func TestWalk(t *testing.T) {
	g := New()
	require.NoError(t, g.AddScreen("a", "", "b"))
	require.NoError(t, g.AddScreen("b", "a", "c"))
	require.NoError(t, g.AddScreen("c", "b", ""))

	walk, err := g.Walk("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, walk)

	_, err = g.Walk("dne")
	assert.Error(t, err)
}
