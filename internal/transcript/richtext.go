package transcript

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Lexical block nodes that end with a line break.
var richTextBlocks = map[string]bool{
	"paragraph": true,
	"heading":   true,
	"quote":     true,
	"listitem":  true,
}

// richTextPlain flattens a lexical editor document to plain text. doc may
// be the document object itself or a JSON string holding it.
func richTextPlain(doc gjson.Result) string {
	if doc.Type == gjson.String {
		doc = gjson.Parse(doc.String())
	}
	if !doc.IsObject() && !doc.IsArray() {
		return ""
	}
	if root := doc.Get("root"); root.Exists() {
		doc = root
	}

	var b strings.Builder
	writeRichTextNode(&b, doc)
	return strings.TrimSpace(b.String())
}

func writeRichTextNode(b *strings.Builder, node gjson.Result) {
	if !node.Exists() {
		return
	}
	if node.IsArray() {
		for _, child := range node.Array() {
			writeRichTextNode(b, child)
		}
		return
	}

	nodeType := node.Get("type").String()
	switch nodeType {
	case "text", "mention":
		b.WriteString(node.Get("text").String())
		return
	case "linebreak":
		b.WriteString("\n")
		return
	case "code", "code-block":
		var code strings.Builder
		writeRichTextNode(&code, node.Get("children"))
		if code.Len() > 0 {
			b.WriteString("\n```\n" + code.String() + "\n```\n")
		}
		return
	}

	writeRichTextNode(b, node.Get("children"))
	if richTextBlocks[nodeType] {
		b.WriteString("\n")
	}
}
