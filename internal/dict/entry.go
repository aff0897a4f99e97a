package dict

import (
	"fmt"
	"strconv"
	"strings"
)

// OkuriPair binds a candidate to the okurigana it was chosen with.
type OkuriPair struct {
	Okuri     string
	Candidate string
}

// Entry is the decoded form of a stored value:
//
//	/cand1/cand2/[okuri/cand/]/[okuri2/cand2/]/
//
// Candidates keep their ";annotation" suffix and any (concat "...") form.
type Entry struct {
	Candidates []string
	Okuri      []OkuriPair
}

// IsEmpty reports whether the entry carries nothing worth storing.
func (e *Entry) IsEmpty() bool {
	return len(e.Candidates) == 0 && len(e.Okuri) == 0
}

// OkuriCandidates returns the candidates learned with okuri, most recent first.
func (e *Entry) OkuriCandidates(okuri string) []string {
	var out []string
	for _, p := range e.Okuri {
		if p.Okuri == okuri {
			out = append(out, p.Candidate)
		}
	}
	return out
}

// ParseEntry decodes a stored value. Values that do not start with "/" or
// contain an unterminated okuri block are rejected with ErrMalformed.
func ParseEntry(value string) (*Entry, error) {
	if !strings.HasPrefix(value, "/") {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, value)
	}

	e := &Entry{}
	fields := strings.Split(value[1:], "/")
	inBlock := false
	var okuri string
	for _, f := range fields {
		switch {
		case inBlock && f == "]":
			inBlock = false
		case inBlock:
			if f != "" {
				e.Okuri = append(e.Okuri, OkuriPair{Okuri: okuri, Candidate: f})
			}
		case strings.HasPrefix(f, "["):
			inBlock = true
			okuri = f[1:]
		case f != "":
			e.Candidates = append(e.Candidates, f)
		}
	}
	if inBlock {
		return nil, fmt.Errorf("%w: unterminated okuri block in %q", ErrMalformed, value)
	}
	return e, nil
}

// String encodes the entry. Pairs sharing an okurigana are grouped into one
// block in order of first appearance.
func (e *Entry) String() string {
	var b strings.Builder
	b.WriteByte('/')
	for _, c := range e.Candidates {
		b.WriteString(c)
		b.WriteByte('/')
	}

	var order []string
	groups := make(map[string][]string)
	for _, p := range e.Okuri {
		if _, ok := groups[p.Okuri]; !ok {
			order = append(order, p.Okuri)
		}
		groups[p.Okuri] = append(groups[p.Okuri], p.Candidate)
	}
	for _, okuri := range order {
		b.WriteByte('[')
		b.WriteString(okuri)
		b.WriteByte('/')
		for _, c := range groups[okuri] {
			b.WriteString(c)
			b.WriteByte('/')
		}
		b.WriteString("]/")
	}
	return b.String()
}

// addCandidate moves candidate to the front of the entry, and to the front of
// the okuri pairs when okuri is set.
func (e *Entry) addCandidate(candidate, okuri string) {
	e.Candidates = prepend(remove(e.Candidates, candidate), candidate)
	if okuri == "" {
		return
	}
	pair := OkuriPair{Okuri: okuri, Candidate: candidate}
	pairs := make([]OkuriPair, 0, len(e.Okuri)+1)
	pairs = append(pairs, pair)
	for _, p := range e.Okuri {
		if p != pair {
			pairs = append(pairs, p)
		}
	}
	e.Okuri = pairs
}

// removeCandidate drops the matching okuri pair if there is one, otherwise
// the plain candidate.
func (e *Entry) removeCandidate(candidate, okuri string) {
	if okuri != "" {
		for i, p := range e.Okuri {
			if p.Okuri == okuri && p.Candidate == candidate {
				e.Okuri = append(e.Okuri[:i:i], e.Okuri[i+1:]...)
				return
			}
		}
	}
	e.Candidates = remove(e.Candidates, candidate)
}

func remove(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		if c != s {
			out = append(out, c)
		}
	}
	return out
}

func prepend(list []string, s string) []string {
	return append([]string{s}, list...)
}

// RemoveAnnotation strips a trailing ";annotation" from a candidate.
func RemoveAnnotation(candidate string) string {
	if i := strings.IndexByte(candidate, ';'); i >= 0 {
		return candidate[:i]
	}
	return candidate
}

// Annotation returns the ";annotation" part of a candidate, if any.
func Annotation(candidate string) string {
	if i := strings.IndexByte(candidate, ';'); i >= 0 {
		return candidate[i+1:]
	}
	return ""
}

// Unescape resolves the (concat "...") literal form used for candidates
// containing "/" or ";". Octal escapes such as \057 are decoded. Strings not
// in concat form are returned unchanged.
func Unescape(candidate string) string {
	if !strings.HasPrefix(candidate, `(concat "`) || !strings.HasSuffix(candidate, `")`) {
		return candidate
	}
	body := candidate[len(`(concat `) : len(candidate)-1]

	var b strings.Builder
	inQuote := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case !inQuote:
			// whitespace between quoted parts
		case c == '\\' && i+4 <= len(body) && isOctal(body[i+1:i+4]):
			n, _ := strconv.ParseUint(body[i+1:i+4], 8, 8)
			b.WriteByte(byte(n))
			i += 3
		case c == '\\' && i+1 < len(body):
			b.WriteByte(body[i+1])
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isOctal(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return true
}

// Escape wraps a literal candidate in (concat "...") form when it contains a
// "/" or ";" that would otherwise break the value grammar.
func Escape(literal string) string {
	if !strings.ContainsAny(literal, "/;") {
		return literal
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "/", `\057`, ";", `\073`)
	return `(concat "` + r.Replace(literal) + `")`
}

// DisplayForm strips the annotation and resolves escapes.
func DisplayForm(candidate string) string {
	return Unescape(RemoveAnnotation(candidate))
}
