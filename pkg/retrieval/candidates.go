package retrieval

import (
	"regexp"
	"strings"
)

var suffixPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,10}$`)

// Candidates returns the upstream file identifiers to try for handle, in
// order: the handle itself, then the handle without its extension when the
// handle has a '.' past position 0 followed by 1 to 10 letters or digits.
// The stripped form is always shorter, so the list never repeats.
func Candidates(handle string) []string {
	out := []string{handle}

	dot := strings.LastIndexByte(handle, '.')
	if dot <= 0 || !suffixPattern.MatchString(handle[dot+1:]) {
		return out
	}
	return append(out, handle[:dot])
}
