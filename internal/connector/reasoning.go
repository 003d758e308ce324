package connector

import (
	"encoding/base64"
	"math"
	"strings"
)

// DecodeRedactedThinking handles Claude Code's redacted_thinking content
// blocks, which carry an opaque base64 payload in place of plain
// reasoning text. Speculative protobuf/JSON-in-binary decoding never
// succeeds against these encrypted blocks, so this only runs an entropy
// check to decide whether the payload is worth surfacing as opaque text
// at all.
func DecodeRedactedThinking(data string) (text string, opaque bool) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", true
	}
	if shannonEntropy(raw) > 6.5 {
		return "[redacted reasoning]", true
	}
	return string(raw), false
}

// shannonEntropy estimates bits of entropy per byte, used to
// distinguish encrypted/compressed payloads (high entropy) from
// plain or lightly-encoded text (low entropy).
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	var entropy float64
	n := float64(len(data))
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// SummarizeReasoning trims a plain (non-redacted) thinking block down
// to a snippet-friendly first line for short, line-oriented previews in
// progress/status output.
func SummarizeReasoning(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return text
}
