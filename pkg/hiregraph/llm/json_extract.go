package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// codeBlockPattern matches markdown code blocks with an optional language tag.
var codeBlockPattern = regexp.MustCompile(`(?s)` + "```" + `(\w*)\s*\n(.+?)\n` + "```")

// ExtractJSON extracts JSON from a model response that may be wrapped in
// markdown. Code-fenced JSON is preferred over raw objects in the text.
func ExtractJSON(response string) (string, error) {
	if jsonStr, found := extractFromCodeBlock(response); found {
		return jsonStr, nil
	}

	if jsonStr, found := extractRawJSON(response); found {
		return jsonStr, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractFromCodeBlock finds valid JSON inside markdown code fences.
func extractFromCodeBlock(response string) (string, bool) {
	matches := codeBlockPattern.FindAllStringSubmatch(response, -1)

	for _, match := range matches {
		if len(match) < 3 {
			continue
		}

		lang := strings.ToLower(match[1])
		content := strings.TrimSpace(match[2])

		// Skip blocks explicitly tagged as other languages
		if lang != "" && lang != "json" {
			continue
		}

		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			if json.Valid([]byte(content)) {
				return content, true
			}
		}
	}

	return "", false
}

// extractRawJSON finds a JSON object or array in unfenced response text.
// It scans from the first opening bracket to the last matching close.
func extractRawJSON(response string) (string, bool) {
	startObj := strings.Index(response, "{")
	startArr := strings.Index(response, "[")

	start := startObj
	endChar := "}"
	if startObj < 0 || (startArr >= 0 && startArr < startObj) {
		start = startArr
		endChar = "]"
	}
	if start < 0 {
		return "", false
	}

	end := strings.LastIndex(response, endChar)
	if end <= start {
		return "", false
	}

	candidate := response[start : end+1]
	if json.Valid([]byte(candidate)) {
		return candidate, true
	}
	return "", false
}
