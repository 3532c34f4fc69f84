// pkg/dpkg/constants.go
package dpkg

const (
	// UbuntuMirrorURL is the main Ubuntu archive
	UbuntuMirrorURL = "http://archive.ubuntu.com/ubuntu"

	// UbuntuPortsURL serves the non-x86 Ubuntu architectures
	UbuntuPortsURL = "http://ports.ubuntu.com/ubuntu-ports"

	// DebianMirrorURL is the Debian CDN
	DebianMirrorURL = "http://deb.debian.org/debian"

	// DefaultRelease is used when the host release is unknown
	DefaultRelease = "noble" // Ubuntu 24.04 LTS

	userAgent = "buildconf-dpkg/1.0"
)

// Repository components searched, in order
var (
	UbuntuComponents = []string{"main", "universe", "restricted", "multiverse"}
	DebianComponents = []string{"main", "contrib", "non-free"}
)
