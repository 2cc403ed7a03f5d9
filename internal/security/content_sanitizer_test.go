package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedTags はMarkdownレンダリングが生成するタグが通過することを検証する。
func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれるべき部分文字列
		wantContains []string
	}{
		{
			name:         "h1タグが許可される",
			input:        "<h1>Weekly Log</h1>",
			wantContains: []string{"<h1>Weekly Log</h1>"},
		},
		{
			name:         "h2タグが許可される",
			input:        "<h2>✅ What I did</h2>",
			wantContains: []string{"<h2>✅ What I did</h2>"},
		},
		{
			name:         "pタグが許可される",
			input:        "<p>今週の作業内容</p>",
			wantContains: []string{"<p>今週の作業内容</p>"},
		},
		{
			name:         "hrタグが許可される",
			input:        "<p>前半</p><hr><p>後半</p>",
			wantContains: []string{"<hr>", "前半", "後半"},
		},
		{
			name:         "ulタグとliタグが許可される",
			input:        "<ul><li>項目1</li><li>項目2</li></ul>",
			wantContains: []string{"<ul>", "<li>", "項目1", "項目2", "</li>", "</ul>"},
		},
		{
			name:         "blockquoteタグが許可される",
			input:        "<blockquote>引用テキスト</blockquote>",
			wantContains: []string{"<blockquote>引用テキスト</blockquote>"},
		},
		{
			name:         "preタグとcodeタグが許可される",
			input:        "<pre><code>func main() {}</code></pre>",
			wantContains: []string{"<pre>", "<code>", "func main() {}", "</code>", "</pre>"},
		},
		{
			name:         "strongタグとemタグが許可される",
			input:        "<strong>重要</strong>と<em>強調</em>",
			wantContains: []string{"<strong>重要</strong>", "<em>強調</em>"},
		},
		{
			name:         "aタグが許可される",
			input:        `<a href="https://example.com">リンク</a>`,
			wantContains: []string{"<a", "href", "https://example.com", "リンク", "</a>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_DisallowedTags は危険なタグが除去されることを検証する。
func TestSanitize_DisallowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		// 出力に含まれてはならない部分文字列
		wantNotContains []string
	}{
		{
			name:            "scriptタグが除去される",
			input:           `<p>本文</p><script>alert("xss")</script>`,
			wantNotContains: []string{"<script", "alert"},
		},
		{
			name:            "iframeタグが除去される",
			input:           `<iframe src="https://evil.example.com"></iframe>`,
			wantNotContains: []string{"<iframe", "evil.example.com"},
		},
		{
			name:            "styleタグが除去される",
			input:           `<style>body { display: none; }</style><p>本文</p>`,
			wantNotContains: []string{"<style", "display"},
		},
		{
			name:            "imgタグが除去される",
			input:           `<p>本文</p><img src="https://example.com/tracker.gif">`,
			wantNotContains: []string{"<img"},
		},
		{
			name:            "onclickイベント属性が除去される",
			input:           `<p onclick="alert('xss')">クリック</p>`,
			wantNotContains: []string{"onclick", "alert"},
		},
		{
			name:            "javascriptスキームのリンクが無害化される",
			input:           `<a href="javascript:alert('xss')">リンク</a>`,
			wantNotContains: []string{"javascript:"},
		},
		{
			name:            "httpスキームのリンクが無害化される",
			input:           `<a href="http://example.com">リンク</a>`,
			wantNotContains: []string{`href="http://example.com"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, notWant := range tt.wantNotContains {
				if strings.Contains(got, notWant) {
					t.Errorf("Sanitize(%q) = %q, expected NOT to contain %q", tt.input, got, notWant)
				}
			}
		})
	}
}

// TestSanitize_LinkAttributes はaタグにtarget/rel属性が自動付与されることを検証する。
func TestSanitize_LinkAttributes(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.Sanitize(`<a href="https://example.com">リンク</a>`)

	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("Sanitize() = %q, expected target=\"_blank\"", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("Sanitize() = %q, expected rel with noopener noreferrer", got)
	}
}

// TestSanitize_EmptyInput は空入力に空文字列を返すことを検証する。
func TestSanitize_EmptyInput(t *testing.T) {
	sanitizer := NewContentSanitizer()

	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want \"\"", got)
	}
}

// TestSanitize_Idempotent は同一入力に対し常に同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<h2>✅ What I did</h2><p>実装した</p><script>alert(1)</script>`
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: first = %q, second = %q", first, second)
	}
}
