package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON means the model reply contained nothing parseable.
var ErrNoJSON = errors.New("no valid JSON in model output")

// ExtractJSON pulls a JSON value out of a model reply: markdown code fences
// are stripped and any prose around the outermost object/array is discarded.
// Models escape LaTeX inconsistently, so a parse failure is a typed error the
// caller can surface for a retry, not a crash.
func ExtractJSON(text string, out any) error {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return ErrNoJSON
	}

	if err := json.Unmarshal([]byte(clean), out); err == nil {
		return nil
	}

	// Second pass: slice from the first opening bracket to its matching
	// closing one and retry.
	start := strings.IndexAny(clean, "{[")
	if start < 0 {
		return ErrNoJSON
	}
	var end int
	if clean[start] == '{' {
		end = strings.LastIndexByte(clean, '}')
	} else {
		end = strings.LastIndexByte(clean, ']')
	}
	if end <= start {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(clean[start:end+1]), out); err != nil {
		return fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return nil
}

// inlineImagePattern matches markdown images with embedded data URIs, the
// heavy payloads OCR output carries.
var inlineImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(data:image/[^)]+\)`)

// ExtractImages swaps embedded base64 images for small {{__IMG_n__}}
// placeholders so the surrounding text fits in a prompt. The returned map
// restores them afterwards.
func ExtractImages(markdown string) (string, map[string]string) {
	images := map[string]string{}
	n := 0
	clean := inlineImagePattern.ReplaceAllStringFunc(markdown, func(tag string) string {
		placeholder := fmt.Sprintf("{{__IMG_%d__}}", n)
		images[placeholder] = tag
		n++
		return placeholder
	})
	return clean, images
}

// RestoreImages replaces every occurrence of each placeholder (models
// sometimes repeat them) with the original image tag.
func RestoreImages(text string, images map[string]string) string {
	for placeholder, tag := range images {
		text = strings.ReplaceAll(text, placeholder, tag)
	}
	return text
}
