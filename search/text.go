// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLength is the shortest token kept by Tokenize, in runes.
const minTokenLength = 3

// Normalize folds text into its comparable form: lowercased, accents
// stripped, every run of non-word characters replaced by a single space,
// and trimmed. It is total and idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lowered := strings.ToLower(text)

	// Transformers keep internal state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		folded = lowered
	}

	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return ' '
	}, folded)

	return strings.Join(strings.Fields(mapped), " ")
}

// Tokenize normalizes text and splits it into tokens, dropping tokens
// shorter than three runes. Order and duplicates are preserved.
func Tokenize(text string) []string {
	words := strings.Fields(Normalize(text))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if utf8.RuneCountInString(word) >= minTokenLength {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// tokenSet is the set view of a token sequence.
type tokenSet map[string]struct{}

func newTokenSet(tokens []string) tokenSet {
	set := make(tokenSet, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both sets are empty.
func jaccard(a, b tokenSet) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// Jaccard is the token-set similarity of two token sequences.
func Jaccard(a, b []string) float64 {
	return jaccard(newTokenSet(a), newTokenSet(b))
}
