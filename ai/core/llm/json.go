package llm

import "strings"

// StripCodeFence removes a surrounding markdown code fence (``` or ```json)
// from a model reply so the payload can be decoded.
func StripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	response = strings.TrimPrefix(response, "```")
	if nl := strings.IndexByte(response, '\n'); nl >= 0 {
		// Drop the language tag line.
		if tag := strings.TrimSpace(response[:nl]); !strings.ContainsAny(tag, "[{") {
			response = response[nl+1:]
		}
	}
	response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	return strings.TrimSpace(response)
}
