// Package tagtmpl fills SQL templates whose placeholders are resolved by
// callbacks.
//
// A placeholder is %(name) or %(name:arg1,arg2). It may be preceded by a
// bracketed literal, as in [WHERE]%(where): the literal is emitted in front
// of non-empty content and dropped together with the placeholder when the
// content is empty.
//
// Substituted content is parked behind an opaque token until Result, so it
// is never scanned for further placeholders.
package tagtmpl

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Tag is one placeholder occurrence.
type Tag struct {
	Name   string
	Args   []string
	Prefix string // bracketed literal, without brackets
	Start  int    // offset of the prefix, or of "%(" without one
	End    int    // offset just past ")"
}

// ResolveFunc returns the content for one placeholder. Empty content
// removes the placeholder and its prefix.
type ResolveFunc func(name string, args []string) (string, error)

// Replacer resolves the placeholders of one template, tag name by tag name.
type Replacer struct {
	current string
	nonce   string
	parked  []string
}

// New creates a Replacer for template.
func New(template string) *Replacer {
	return &Replacer{
		current: template,
		nonce:   strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

// Replace resolves every placeholder named name, left to right. The first
// error from fn stops resolution and is returned.
func (r *Replacer) Replace(name string, fn ResolveFunc) error {
	from := 0
	for {
		tag, ok := findTag(r.current, name, from)
		if !ok {
			return nil
		}
		content, err := fn(tag.Name, tag.Args)
		if err != nil {
			return err
		}
		if content == "" {
			start := tag.Start
			for start > 0 && r.current[start-1] == ' ' {
				start--
			}
			if start < tag.Start && start > 0 && tag.End < len(r.current) && r.current[tag.End] != ' ' {
				start++
			}
			if start == 0 {
				for tag.End < len(r.current) && r.current[tag.End] == ' ' {
					tag.End++
				}
			}
			r.current = r.current[:start] + r.current[tag.End:]
			from = start
			continue
		}
		if tag.Prefix != "" {
			content = tag.Prefix + " " + content
		}
		token := r.park(content)
		r.current = r.current[:tag.Start] + token + r.current[tag.End:]
		from = tag.Start + len(token)
	}
}

// park stores content and returns the token standing in for it.
func (r *Replacer) park(content string) string {
	token := "#" + r.nonce + "." + strconv.Itoa(len(r.parked)) + "#"
	r.parked = append(r.parked, token, content)
	return token
}

// Result returns the template with all parked content spliced in.
// Placeholders that were never resolved are left untouched.
func (r *Replacer) Result() string {
	if len(r.parked) == 0 {
		return r.current
	}
	return strings.NewReplacer(r.parked...).Replace(r.current)
}

// findTag locates the next placeholder named name at or after from.
// Longer names sharing the prefix (%(whereParam) when looking for where)
// are skipped.
func findTag(s, name string, from int) (Tag, bool) {
	open := "%(" + name
	for from <= len(s) {
		i := strings.Index(s[from:], open)
		if i < 0 {
			return Tag{}, false
		}
		p := from + i
		after := p + len(open)
		if after >= len(s) || (s[after] != ')' && s[after] != ':') {
			from = p + 1
			continue
		}
		end := strings.IndexByte(s[after:], ')')
		if end < 0 {
			return Tag{}, false
		}
		end += after
		tag := Tag{Name: name, Start: p, End: end + 1}
		if s[after] == ':' {
			tag.Args = splitArgs(s[after+1 : end])
		}
		tag.Prefix, tag.Start = prefixOf(s, p)
		return tag, true
	}
	return Tag{}, false
}

// prefixOf returns the bracketed literal ending just before p (spaces
// allowed in between) and the offset where it starts.
func prefixOf(s string, p int) (string, int) {
	q := p - 1
	for q >= 0 && s[q] == ' ' {
		q--
	}
	if q < 0 || s[q] != ']' {
		return "", p
	}
	open := strings.LastIndexByte(s[:q], '[')
	if open < 0 {
		return "", p
	}
	return s[open+1 : q], open
}

func splitArgs(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ParseTags lists every placeholder in template in order of appearance.
// Names are runs of letters, digits and underscores.
func ParseTags(template string) []Tag {
	var tags []Tag
	from := 0
	for {
		i := strings.Index(template[from:], "%(")
		if i < 0 {
			return tags
		}
		p := from + i
		n := p + 2
		for n < len(template) && isNameByte(template[n]) {
			n++
		}
		from = p + 2
		if n == p+2 || n >= len(template) || (template[n] != ')' && template[n] != ':') {
			continue
		}
		tag, ok := findTag(template, template[p+2:n], p)
		if !ok {
			return tags
		}
		tags = append(tags, tag)
		from = tag.End
	}
}

func isNameByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
