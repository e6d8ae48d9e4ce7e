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

package openai

import "strings"

// cleanResponse strips markdown code fences and surrounding noise from a
// model answer, keeping only the outermost JSON object.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return repairJSON(s)
}

// repairJSON fixes the two mistakes small models make most often:
// object keys missing their opening quote, and a trailing comma before
// a closing brace or bracket.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)
	inString := false

	for i := 0; i < len(in); i++ {
		ch := in[i]

		if inString {
			out = append(out, ch)
			if ch == '\\' && i+1 < len(in) {
				i++
				out = append(out, in[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			out = append(out, ch)
		case ',':
			// Drop a comma that only precedes a closer.
			j := skipSpace(in, i+1)
			if j < len(in) && (in[j] == '}' || in[j] == ']') {
				continue
			}
			out = append(out, ch)
			out, i = fixKey(in, out, i)
		case '{':
			out = append(out, ch)
			out, i = fixKey(in, out, i)
		default:
			out = append(out, ch)
		}
	}

	return string(out)
}

// fixKey copies whitespace after position i and, if a bare key terminated by
// `":` follows, emits it with the missing opening quote. It returns the
// extended output and the last consumed input position.
func fixKey(in, out []rune, i int) ([]rune, int) {
	j := skipSpace(in, i+1)
	out = append(out, in[i+1:j]...)

	k := j
	for k < len(in) && (isLetter(in[k]) || in[k] == '_') {
		k++
	}
	if k > j && k+1 < len(in) && in[k] == '"' && in[k+1] == ':' {
		out = append(out, '"')
		out = append(out, in[j:k]...)
		// The closing quote at k reopens string mode in the caller; emit it here instead.
		out = append(out, '"', ':')
		return out, k + 1
	}
	return out, j - 1
}

func skipSpace(in []rune, i int) int {
	for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t' || in[i] == '\r') {
		i++
	}
	return i
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
