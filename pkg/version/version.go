package version

// Version is reported by --version and stamped at release time:
//
//	go build -ldflags "-X github.com/shishobooks/organize-ebooks/pkg/version.Version=1.0.0" ./cmd/organize-ebooks
var Version = "dev"
