package version

// Set at build time via -ldflags.
var (
	Version   = "v0.0.0"
	GitCommit = "unknown"
)
