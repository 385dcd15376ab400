package version

// overridden at build time via -ldflags
var (
	Version     = "dev"
	GitCommit   = ""
	FullVersion = composeFullVersion()
)

func composeFullVersion() string {
	if GitCommit == "" {
		return Version
	}
	return Version + " (" + GitCommit + ")"
}
