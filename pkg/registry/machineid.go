package registry

import (
	"os"

	"github.com/denisbrodbeck/machineid"
)

// MachineID retrieves the unique ID identifying the machine, the
// hostname if it's unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID("qnn")
	if err == nil {
		return id[:16]
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}
