package utils

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	ugcPolicy = bluemonday.UGCPolicy()
)

func init() {
	ugcPolicy.AllowImages()
	ugcPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	ugcPolicy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown turns a post body into sanitized HTML. The stored body is never modified.
func RenderMarkdown(source string) string {
	if source == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		// 回退：转义后的原文
		return ugcPolicy.Sanitize(source)
	}

	sanitized := ugcPolicy.SanitizeBytes(buf.Bytes())
	return EnhanceHTMLContent(string(sanitized))
}
