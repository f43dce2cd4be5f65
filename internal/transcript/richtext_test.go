package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestRichTextPlain(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "paragraphs",
			doc:  `{"root":{"children":[{"type":"paragraph","children":[{"type":"text","text":"one"}]},{"type":"paragraph","children":[{"type":"text","text":"two"}]}]}}`,
			want: "one\ntwo",
		},
		{
			name: "line break",
			doc:  `{"root":{"children":[{"type":"paragraph","children":[{"type":"text","text":"a"},{"type":"linebreak"},{"type":"text","text":"b"}]}]}}`,
			want: "a\nb",
		},
		{
			name: "code node",
			doc:  `{"root":{"children":[{"type":"code","children":[{"type":"text","text":"x := 1"}]}]}}`,
			want: "```\nx := 1\n```",
		},
		{
			name: "bare children",
			doc:  `{"children":[{"type":"text","text":"loose"}]}`,
			want: "loose",
		},
		{name: "not a document", doc: `42`, want: ""},
		{name: "missing", doc: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, richTextPlain(gjson.Parse(tt.doc)))
		})
	}
}

func TestRichTextPlain_StringEncoded(t *testing.T) {
	wrapped := gjson.Get(`{"richText":"{\"root\":{\"children\":[{\"type\":\"text\",\"text\":\"inner\"}]}}"}`, "richText")
	assert.Equal(t, "inner", richTextPlain(wrapped))
}
