package options

import (
	"strings"
	"unicode"
)

// Fields splits s around runs of whitespace that are not inside quotes.
// Quotes are kept in the tokens, so 'a b'=1 stays a single token.
func Fields(s string) []string {
	return tokenize(s, false)
}

// Args splits s like a shell would for simple cases: whitespace outside quotes
// separates arguments and the quotes themselves are removed.
func Args(s string) []string {
	return tokenize(s, true)
}

func tokenize(s string, strip bool) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		open  bool
	)
	flush := func() {
		if open {
			out = append(out, cur.String())
			cur.Reset()
			open = false
		}
	}
	for _, c := range s {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
				if strip {
					continue
				}
			}
		case c == '\'' || c == '"':
			quote = c
			open = true
			if strip {
				continue
			}
		case unicode.IsSpace(c):
			flush()
			continue
		}
		cur.WriteRune(c)
		open = true
	}
	flush()
	return out
}

// ParseAssignments parses whitespace separated key=value tokens, as used by tools
// configured through override-style arguments. Tokens without "=" are flags.
// Values of override win over values of generic.
func ParseAssignments(generic, override string) *Options {
	merged := parseAssignments(generic)
	merged.Update(parseAssignments(override))
	return merged
}

func parseAssignments(s string) *Options {
	o := New()
	for _, tok := range Fields(s) {
		if key, value, ok := strings.Cut(tok, "="); ok && key != "" {
			o.Set(key, value)
			continue
		}
		o.AddFlag(tok)
	}
	return o
}
