package history

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/rabiuk/stride/internal/security"
)

// Renderer は週次ログのMarkdownをサニタイズ済みHTMLへ変換する。
// goldmarkで変換した後、bluemondayベースのサニタイザーを通す二段構え。
// goldmarkはWithUnsafeを設定しないため生HTMLはエスケープされるが、
// 応答に含める直前の防御層としてサニタイザーも併用する。
type Renderer struct {
	md        goldmark.Markdown
	sanitizer security.ContentSanitizerService
}

// NewRenderer はRendererを生成する。
func NewRenderer(sanitizer security.ContentSanitizerService) *Renderer {
	md := goldmark.New(
		goldmark.WithRendererOptions(
			goldmarkHTML.WithHardWraps(),
		),
	)
	return &Renderer{
		md:        md,
		sanitizer: sanitizer,
	}
}

// Render はMarkdownテキストをサニタイズ済みHTMLへ変換する。
func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return r.sanitizer.Sanitize(buf.String()), nil
}
