package tool

import "encoding/base64"

// Content is one part of a tool response envelope. Exactly two variants
// exist, distinguished by Type: "text" carries Text, "image" carries
// base64-encoded Data plus its MimeType.
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// TextContent builds a text part.
func TextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// ImageContent builds an image part from raw encoded bytes.
func ImageContent(data []byte, mimeType string) Content {
	return Content{Type: "image", Data: base64.StdEncoding.EncodeToString(data), MimeType: mimeType}
}

// Result is the uniform response envelope for every tool invocation. Every
// result carries at least one text part; failures are reported through
// IsError plus explanatory text, never through a transport-level fault.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// TextResult wraps a single text part.
func TextResult(text string) *Result {
	return &Result{Content: []Content{TextContent(text)}}
}

// ErrorResult wraps an explanatory text part with the error flag set.
func ErrorResult(text string) *Result {
	return &Result{Content: []Content{TextContent(text)}, IsError: true}
}

// Descriptor statically describes one tool. The descriptor table is built
// once and identical across all transports.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// emptyObjectSchema declares a tool that takes no parameters.
func emptyObjectSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []string{},
	}
}
