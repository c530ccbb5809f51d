package originsource

import (
	"net/url"
	"strings"

	"github.com/vicompany/hardened-web/internal/xerrors"
)

// ValidateOrigin accepts "*", "null" or a serialized origin
// scheme://host[:port] with an http or https scheme.
func ValidateOrigin(s string) error {
	switch s {
	case "":
		return xerrors.New("origin is empty")
	case "*", "null":
		return nil
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return xerrors.Newf("origin %q contains whitespace", s)
	}
	u, err := url.Parse(s)
	if err != nil {
		return xerrors.Wrapf(err, "parse origin %q", s)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return xerrors.Newf("origin %q must use http or https", s)
	}
	if u.Host == "" || u.Hostname() == "" {
		return xerrors.Newf("origin %q has no host", s)
	}
	if u.User != nil || u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.ForceQuery || strings.HasSuffix(s, "#") {
		return xerrors.Newf("origin %q must be scheme://host[:port] only", s)
	}
	return nil
}
