package transcript

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/store"
	"github.com/tidwall/gjson"
)

// Key prefixes of fragment and session metadata records.
const (
	fragmentKeyPrefix = "bubbleId:"
	sessionKeyPrefix  = "composerData:"
)

// Fragment is one stored message unit after content extraction.
type Fragment struct {
	FragmentID       string
	SessionStorageID string
	Role             Role
	Kind             PayloadKind
	Content          string
	OrdinalHint      *int // diagnostic only, never used for ordering
	Timestamp        time.Time
	ToolName         string
}

func fragmentScanPrefix(storageID string) string {
	return fragmentKeyPrefix + storageID + ":"
}

// ExtractFragment builds a Fragment from a record scanned under
// fragmentScanPrefix(storageID). Values that are not JSON objects fail with
// an error wrapping internal.ErrRecordUnparsable.
func ExtractFragment(storageID string, rec store.RawRecord) (Fragment, error) {
	prefix := fragmentScanPrefix(storageID)
	if !strings.HasPrefix(rec.Key, prefix) || len(rec.Key) == len(prefix) ||
		strings.Contains(rec.Key[len(prefix):], ":") {
		return Fragment{}, &internal.ParseError{Key: rec.Key, Err: fmt.Errorf("key is not a fragment of session %s", storageID)}
	}

	value := gjson.ParseBytes(rec.Value)
	if !value.IsObject() {
		return Fragment{}, &internal.ParseError{Key: rec.Key, Err: errors.New("fragment value is not an object")}
	}

	frag := Fragment{
		FragmentID:       rec.Key[len(prefix):],
		SessionStorageID: storageID,
		Role:             fragmentRole(value),
		Timestamp:        fragmentTime(value),
	}
	if ordinal := value.Get("ordinal"); ordinal.Type == gjson.Number {
		n := int(ordinal.Int())
		frag.OrdinalHint = &n
	}

	// Content fields are tried in a fixed order. Reasoning and tool payloads
	// are only read for roles that can produce them; an unknown role keeps
	// them so the content stays visible next to the unknown-role count.
	if text := directText(value); text != "" {
		frag.Kind, frag.Content = KindText, text
		return frag, nil
	}
	if frag.Role == RoleAssistant || frag.Role == RoleUnknown {
		if thinking := value.Get("thinking.text").String(); strings.TrimSpace(thinking) != "" {
			frag.Kind, frag.Content = KindReasoning, thinking
			return frag, nil
		}
	}
	if frag.Role != RoleUser {
		if tool := value.Get("toolFormerData"); tool.IsObject() && len(tool.Map()) > 0 {
			frag.Kind = KindToolInvocation
			frag.Content = tool.Get("@ugly").Raw
			frag.ToolName = tool.Get("name").String()
			if frag.ToolName == "" {
				frag.ToolName = tool.Get("tool").String()
			}
			return frag, nil
		}
	}

	frag.Kind = KindEmpty
	return frag, nil
}

// fragmentRole reads the explicit role marker: a role string, or the
// numeric bubble type (1 user, 2 assistant).
func fragmentRole(value gjson.Result) Role {
	if role := value.Get("role"); role.Type == gjson.String {
		switch strings.ToLower(role.String()) {
		case "user":
			return RoleUser
		case "assistant":
			return RoleAssistant
		case "tool":
			return RoleTool
		}
		return RoleUnknown
	}
	if typ := value.Get("type"); typ.Type == gjson.Number {
		switch typ.Int() {
		case 1:
			return RoleUser
		case 2:
			return RoleAssistant
		}
	}
	return RoleUnknown
}

// directText returns the text field, falling back to the rich text
// document, with any code blocks appended as fenced blocks.
func directText(value gjson.Result) string {
	var parts []string

	text := value.Get("text").String()
	if strings.TrimSpace(text) == "" {
		text = richTextPlain(value.Get("richText"))
	}
	if strings.TrimSpace(text) != "" {
		parts = append(parts, text)
	}

	for _, block := range value.Get("codeBlocks").Array() {
		content := block.Get("content").String()
		if strings.TrimSpace(content) == "" {
			continue
		}
		lang := block.Get("languageId").String()
		if lang == "" {
			lang = block.Get("language").String()
		}
		parts = append(parts, fmt.Sprintf("```%s\n%s\n```", lang, content))
	}

	return strings.Join(parts, "\n\n")
}

func fragmentTime(value gjson.Result) time.Time {
	if t := parseTime(value.Get("createdAt")); !t.IsZero() {
		return t
	}
	return parseTime(value.Get("timestamp"))
}

// parseTime accepts epoch milliseconds (number or numeric string) and
// RFC3339 strings. Anything else is the zero time.
func parseTime(r gjson.Result) time.Time {
	switch r.Type {
	case gjson.Number:
		if ms := r.Int(); ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
	case gjson.String:
		s := strings.TrimSpace(r.String())
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
