package connector

import (
	"encoding/json"
	"strings"
)

// ExtractText pulls human-readable text out of a connector's raw message
// payload: a tiered strategy of primary text field, then a structured
// rich-text tree, then appended code blocks, walking a generic decoded
// JSON value with encoding/json.
func ExtractText(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return extractFromValue(v)
}

func extractFromValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return extractFromObject(t)
	case []any:
		return extractFromArray(t)
	default:
		return ""
	}
}

// extractFromObject mirrors ExtractTextFromBubble's field preference
// order: a direct "text" field wins, then a structured content tree
// under "content"/"root"/"children", then any code blocks appended.
func extractFromObject(m map[string]any) string {
	if s, ok := m["text"].(string); ok && s != "" {
		return appendCodeBlocks(s, m)
	}
	if root, ok := m["root"]; ok {
		if s := extractFromValue(root); s != "" {
			return appendCodeBlocks(s, m)
		}
	}
	if children, ok := m["children"]; ok {
		if s := extractFromValue(children); s != "" {
			return appendCodeBlocks(s, m)
		}
	}
	if content, ok := m["content"]; ok {
		if s := extractFromValue(content); s != "" {
			return appendCodeBlocks(s, m)
		}
	}
	// Anthropic/OpenAI-style content blocks: {"type":"text","text":"..."}
	if typ, ok := m["type"].(string); ok {
		switch typ {
		case "text":
			if s, ok := m["text"].(string); ok {
				return s
			}
		case "tool_use", "tool_call", "function_call":
			return toolCallSummary(m)
		case "tool_result", "tool_result_output":
			if s := extractFromValue(m["content"]); s != "" {
				return s
			}
		}
	}
	return appendCodeBlocks("", m)
}

func extractFromArray(items []any) string {
	var parts []string
	for _, item := range items {
		if s := extractFromValue(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// appendCodeBlocks appends any "codeBlockDiffs"/"code_blocks" entries
// found alongside a message's primary text, surfacing diff content that
// lives outside the message's main text field.
func appendCodeBlocks(text string, m map[string]any) string {
	for _, key := range []string{"codeBlockDiffs", "code_blocks", "codeBlocks"} {
		raw, ok := m[key]
		if !ok {
			continue
		}
		arr, ok := raw.([]any)
		if !ok {
			continue
		}
		for _, b := range arr {
			bm, ok := b.(map[string]any)
			if !ok {
				continue
			}
			if code, ok := bm["code"].(string); ok && code != "" {
				if text != "" {
					text += "\n"
				}
				text += code
			}
		}
	}
	return text
}

func toolCallSummary(m map[string]any) string {
	name, _ := m["name"].(string)
	var inputStr string
	if input, ok := m["input"]; ok {
		if b, err := json.Marshal(input); err == nil {
			inputStr = string(b)
		}
	}
	if name == "" {
		return inputStr
	}
	if inputStr == "" {
		return name
	}
	return name + " " + inputStr
}
