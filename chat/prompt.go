package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const promptTemplate = "Based on the following information please use the query parameter along with result to generate a human readble response with some context: query: %s, result: %s"

// ComposePrompt builds the formatting prompt for a retrieved query and
// result. It is a pure function: equal inputs give byte-identical prompts.
func ComposePrompt(query string, result any) string {
	return fmt.Sprintf(promptTemplate, query, RenderResult(result))
}

// RenderResult renders a raw result as text. Strings pass through unchanged;
// anything else becomes JSON with sorted object keys.
func RenderResult(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Sprint(result)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
