package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Tiktoken is a byte-pair-encoding tokenizer backed by tiktoken-go.
type Tiktoken struct {
	encodingName string
	tke          *tiktoken.Tiktoken
}

// NewTiktoken creates a tokenizer for the given encoding or model name.
// An unknown name falls back to cl100k_base.
func NewTiktoken(modelOrEncoding string) (*Tiktoken, error) {
	name := strings.TrimSpace(modelOrEncoding)
	if name == "" {
		name = defaultEncoding
	}
	tke, err := tiktoken.GetEncoding(name)
	if err == nil {
		return &Tiktoken{encodingName: name, tke: tke}, nil
	}
	tke, err = tiktoken.EncodingForModel(name)
	if err == nil {
		return &Tiktoken{encodingName: name, tke: tke}, nil
	}
	tke, err = tiktoken.GetEncoding(defaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get default encoding '%s': %w", defaultEncoding, err)
	}
	return &Tiktoken{encodingName: defaultEncoding, tke: tke}, nil
}

// EncodingName returns the encoding or model name actually in use.
func (t *Tiktoken) EncodingName() string {
	return t.encodingName
}

// Encode returns the BPE token IDs of text. Special tokens are encoded as plain text.
func (t *Tiktoken) Encode(text string) []int {
	return t.tke.Encode(text, nil, nil)
}

// Decode returns the text of tokens.
func (t *Tiktoken) Decode(tokens []int) string {
	return t.tke.Decode(tokens)
}

// Count returns the number of BPE tokens in text.
func (t *Tiktoken) Count(text string) int {
	return len(t.tke.Encode(text, nil, nil))
}
