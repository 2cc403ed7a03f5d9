package history

import (
	"strings"
	"unicode/utf8"
)

// previewMaxRunes は一覧表示用プレビューの最大文字数。
const previewMaxRunes = 120

// leadingMarkers は行頭から取り除く記号マーカー。
// セクションラベルの絵文字、Markdownの見出し・リスト・引用記号が対象。
var leadingMarkers = []string{
	"✅", "🎯", "🧠", "❓",
	"#", ">", "-", "*", "`",
}

// Preview は週次ログ本文から一覧表示用の短い要約テキストを生成する。
// 各行の行頭マーカーを取り除き、空白を1個のスペースに畳み込み、
// previewMaxRunes文字で切り詰める。切り詰めた場合は末尾に「…」を付ける。
func Preview(markdown string) string {
	var parts []string
	for _, line := range strings.Split(markdown, "\n") {
		stripped := stripLeadingMarkers(line)
		if stripped == "" {
			continue
		}
		parts = append(parts, stripped)
	}

	// 連続する空白を1個のスペースへ畳み込む
	collapsed := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")

	if utf8.RuneCountInString(collapsed) <= previewMaxRunes {
		return collapsed
	}

	runes := []rune(collapsed)
	return strings.TrimRight(string(runes[:previewMaxRunes]), " ") + "…"
}

// stripLeadingMarkers は行頭の記号マーカーを繰り返し取り除く。
// 「## ✅ What I did」のようにマーカーが重なる行にも対応する。
func stripLeadingMarkers(line string) string {
	line = strings.TrimSpace(line)
	for {
		trimmed := line
		for _, marker := range leadingMarkers {
			trimmed = strings.TrimPrefix(trimmed, marker)
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == line {
			return line
		}
		line = trimmed
	}
}
