package statusview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderConfigErrorsEmpty(t *testing.T) {
	html, err := RenderConfigErrors(nil)
	require.NoError(t, err)
	require.Empty(t, html)

	html, err = RenderConfigErrors([]string{})
	require.NoError(t, err)
	require.Empty(t, html)
}

func TestRenderConfigErrorsBanner(t *testing.T) {
	html, err := RenderConfigErrors([]string{"err2", "err1", "err2", "<b>bad</b>"})
	require.NoError(t, err)

	out := string(html)
	require.True(t, strings.HasPrefix(out, `<div class="notification is-danger mt-0 mb-0">`))
	require.Contains(t, out, "<div>Please check the below errors!</div>")
	require.Equal(t, 4, strings.Count(out, "<li>"))

	// Input order is kept, duplicates included, and content is escaped
	first := strings.Index(out, "<li>err2</li>")
	second := strings.Index(out, "<li>err1</li>")
	require.True(t, first >= 0 && second > first)
	require.Equal(t, 2, strings.Count(out, "<li>err2</li>"))
	require.Contains(t, out, "<li>&lt;b&gt;bad&lt;/b&gt;</li>")
}

func TestRenderConfigErrorsListsEveryError(t *testing.T) {
	html, err := RenderConfigErrors([]string{"err1", "err2"})
	require.NoError(t, err)
	require.Contains(t, string(html), "<ul>\n      <li>err1</li>\n      <li>err2</li>\n    </ul>")
}
