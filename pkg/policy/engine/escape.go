package engine

import "strings"

// regexMetachars are the characters escaped when an expansion is embedded
// in a regex pattern. Closing braces are deliberately not listed.
const regexMetachars = `\.*+?|^$[{(`

// regexEscape backslash-escapes regex metacharacters in an expanded value
// so that attribute contents match literally inside a regex-xlat pattern.
func regexEscape(in string) string {
	if !strings.ContainsAny(in, regexMetachars) {
		return in
	}

	var out strings.Builder
	out.Grow(len(in) + 8)
	for i := 0; i < len(in); i++ {
		if strings.IndexByte(regexMetachars, in[i]) >= 0 {
			out.WriteByte('\\')
		}
		out.WriteByte(in[i])
	}
	return out.String()
}
