package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	svc := NewService()

	out, err := svc.RenderHTML([]byte("### 🤖 SQL Agent\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~old~~"))
	require.NoError(t, err)
	assert.Contains(t, out, "<h3 id=")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>1</td>")
	assert.Contains(t, out, "<del>old</del>")
}

func TestRenderHTML_EscapesRawHTMLByDefault(t *testing.T) {
	out, err := NewService().RenderHTML([]byte("<script>alert(1)</script>"))
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")

	out, err = NewService(WithUnsafeHTML()).RenderHTML([]byte("<b>bold</b>"))
	require.NoError(t, err)
	assert.Contains(t, out, "<b>bold</b>")
}

func TestRenderHTML_HardWraps(t *testing.T) {
	out, err := NewService(WithHardWraps()).RenderHTML([]byte("line one\nline two"))
	require.NoError(t, err)
	assert.Contains(t, out, "<br>")
}
