package ai

import (
	"errors"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// ErrNoTokenizer is returned when a token budget is configured without a tokenizer.
var ErrNoTokenizer = errors.New("token budget set without a tokenizer")

func init() {
	// Encodings ship with the binary instead of being downloaded on first use.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Tokenizer converts text to model tokens and back.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// TiktokenTokenizer wraps a tiktoken encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the encoding used by modelName, falling back to
// cl100k_base for models tiktoken does not know.
func NewTiktokenTokenizer(modelName string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load tokenizer for %s: %w", modelName, err)
		}
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Truncate keeps at most maxTokens tokens of text. Text already under budget is
// returned unchanged. A non-positive budget or a nil tokenizer disables
// truncation; NewTransformer refuses the second combination.
func Truncate(tok Tokenizer, text string, maxTokens int) string {
	if maxTokens <= 0 || tok == nil {
		return text
	}
	tokens := tok.Encode(text)
	if len(tokens) <= maxTokens {
		return text
	}
	return tok.Decode(tokens[:maxTokens])
}

// CountTokens returns the token length of text.
func CountTokens(tok Tokenizer, text string) int {
	return len(tok.Encode(text))
}
