package answer

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tiktoken encoding used to budget prompt context.
const DefaultEncoding = "cl100k_base"

// TokenCounter measures text in model tokens.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the encoding on first use. When it cannot be loaded the
// counter estimates four characters per token.
func NewTiktokenCounter(encoding string) TokenCounter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &tiktokenCounter{encoding: encoding}
}

func (c *tiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			slog.Warn("Token encoding unavailable, estimating token counts", "encoding", c.encoding, "error", err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateTokens approximates a token count from the character count.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

type estimateCounter struct{}

func (estimateCounter) Count(text string) int { return EstimateTokens(text) }

// EstimateCounter is a TokenCounter that never loads an encoding.
var EstimateCounter TokenCounter = estimateCounter{}
