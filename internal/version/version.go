// Package version exposes build metadata injected with -ldflags, filled in
// from debug.ReadBuildInfo when the linker did not set it.
package version

import (
	"runtime/debug"
	"strconv"
)

// AppName is used for logs, metrics and tracing service names.
const AppName = "hardened-web"

// Set via -ldflags "-X github.com/vicompany/hardened-web/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate string
	BuildID   string
	VCSDirty  *bool
)

type Info struct {
	AppName    string `json:"app"`
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	CommitDate string `json:"commit_date"`
	BuildDate  string `json:"build_date"`
	BuildID    string `json:"build_id"`
	GoVersion  string `json:"go_version"`
	VCSDirty   *bool  `json:"vcs_dirty,omitempty"`
}

func Get() Info {
	out := Info{
		AppName:   AppName,
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		BuildID:   BuildID,
		VCSDirty:  VCSDirty,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	out.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if out.Commit == "none" && s.Value != "" {
				out.Commit = s.Value
			}
		case "vcs.time":
			out.CommitDate = s.Value
			if out.BuildDate == "" {
				out.BuildDate = s.Value
			}
		case "vcs.modified":
			if out.VCSDirty == nil && (s.Value == "true" || s.Value == "false") {
				d := s.Value == "true"
				out.VCSDirty = &d
			}
		}
	}
	return out
}

// String renders the one-line summary printed by -V.
func (i Info) String() string {
	dirty := "unknown"
	if i.VCSDirty != nil {
		dirty = strconv.FormatBool(*i.VCSDirty)
	}
	return i.AppName + " " + i.Version +
		" (commit=" + i.Commit +
		", commit_date=" + i.CommitDate +
		", build_id=" + i.BuildID +
		", build_date=" + i.BuildDate +
		", go=" + i.GoVersion +
		", dirty=" + dirty + ")"
}
