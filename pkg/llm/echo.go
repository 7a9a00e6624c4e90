package llm

import (
	"context"
	"iter"
	"unicode"
)

// EchoClient streams the latest user message back word by word without
// contacting a provider. It never requests tools.
type EchoClient struct {
	Prefix string
}

func (c EchoClient) Stream(ctx context.Context, req Request) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		var last string
		for i := len(req.Messages) - 1; i >= 0; i-- {
			if req.Messages[i].Role == RoleUser {
				last = req.Messages[i].Content
				break
			}
		}
		for _, tok := range SplitTokens(c.Prefix + last) {
			if err := ctx.Err(); err != nil {
				yield(Fragment{}, err)
				return
			}
			if !yield(Fragment{Text: tok}, nil) {
				return
			}
		}
	}
}

// SplitTokens cuts s into word-sized pieces that concatenate back to s. Each
// piece carries the whitespace that precedes its word.
func SplitTokens(s string) []string {
	var out []string
	start := 0
	inWord := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if space && inWord {
			out = append(out, s[start:i])
			start = i
		}
		inWord = !space
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

var _ Client = EchoClient{}
