package assembler

import (
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not know, such as Gemini.
const fallbackEncoding = "cl100k_base"

// NewTikTokenEstimator returns a TokenEstimator backed by tiktoken-go for the given model.
// Unknown models use the cl100k_base encoding. An error means no encoding
// could be loaded at all (tiktoken fetches BPE ranks on first use).
func NewTikTokenEstimator(model string) (TokenEstimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}

// ApproxEstimator assumes four bytes per token. It is the offline fallback.
func ApproxEstimator(text string) int {
	return (len(text) + 3) / 4
}
