// Package pathutil holds URL path checks shared by the site handler.
package pathutil

import "strings"

// HasDotSegments reports whether any "/"-separated segment of p is "." or
// "..". Names that merely start with a dot are allowed.
func HasDotSegments(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}
