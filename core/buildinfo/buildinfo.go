package buildinfo

// Set at link time, for example:
//
//	go build -ldflags "-X 'github.com/m3rciful/finbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/finbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)' \
//	  -X 'github.com/m3rciful/finbot/core/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)'" ./cmd/finbot
var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the short VCS revision.
	Commit = "local"
	// Date is the RFC3339 build time.
	Date = ""
)
