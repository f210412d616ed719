// Package tokenizer estimates token counts for the debug panel.
package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
)

// Counter reports how many tokens a piece of text encodes to.
type Counter interface {
	CountTokens(text string) int
}

// Tiktoken counts tokens with a real BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken resolves an encoding by model name, falling back to treating
// the name as an encoding name (e.g. "cl100k_base").
func NewTiktoken(name string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Approximate estimates tokens as len/4, for when no encoding could be
// loaded. Close enough for a debug readout.
type Approximate struct{}

func (Approximate) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// ForModel returns a tiktoken counter for the model when one is available
// and the approximate counter otherwise. Gemini and Claude models have no
// published tiktoken encoding, so cl100k_base is used as a stand-in.
func ForModel(model string) Counter {
	if t, err := NewTiktoken(model); err == nil {
		return t
	}
	if t, err := NewTiktoken("cl100k_base"); err == nil {
		return t
	}
	return Approximate{}
}
