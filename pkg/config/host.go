package config

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robotalks/qnn.go/pkg/link"
	"github.com/robotalks/qnn.go/pkg/registry"
	"github.com/robotalks/qnn.go/pkg/transport"
)

// HostConfig provides common options for host tools to reach devices.
type HostConfig struct {
	Device registry.DeviceRef

	// RegistryURL specifies the MQTT broker devices announce to.
	// e.g. mqtt://host:port/topic-prefix
	RegistryURL string

	// LinkURL connects directly, skipping discovery, with the
	// dimensions and signaling given here.
	LinkURL   string
	InputDim  int
	OutputDim int
	Signaling link.ErrorSignaling

	// Timeout bounds discovery and each inference.
	Timeout time.Duration
}

var defaultHostConfig = HostConfig{
	RegistryURL: "mqtt://localhost:1883/qnn/",
	Timeout:     time.Second,
}

func init() {
	loadHostEnv(&defaultHostConfig, os.Getenv)
}

func loadHostEnv(c *HostConfig, getenv func(string) string) {
	if val := getenv("QNN_TYPE"); val != "" {
		c.Device.Type = val
	}
	if val := getenv("QNN_ID"); val != "" {
		c.Device.ID = val
	}
	if val := getenv("QNN_REGISTRY_URL"); val != "" {
		c.RegistryURL = val
	}
	if val := getenv("QNN_LINK"); val != "" {
		c.LinkURL = val
	}
}

// SetupHostFlags sets up command line flags.
func SetupHostFlags() {
	setupHostFlags(flag.CommandLine, &defaultHostConfig)
}

func setupHostFlags(fs *flag.FlagSet, c *HostConfig) {
	fs.StringVar(&c.Device.Type, "type", c.Device.Type, "Device type to connect.")
	fs.StringVar(&c.Device.ID, "id", c.Device.ID, "Device ID to connect.")
	fs.StringVar(&c.RegistryURL, "reg", c.RegistryURL, "Device registry (MQTT broker) URL.")
	fs.StringVar(&c.LinkURL, "link", c.LinkURL, "Link URL to connect directly.")
	fs.IntVar(&c.InputDim, "input-dim", c.InputDim, "Input dimension N with -link.")
	fs.IntVar(&c.OutputDim, "output-dim", c.OutputDim, "Output dimension C with -link.")
	fs.TextVar(&c.Signaling, "error-signaling", c.Signaling, "Error signaling with -link: sentinel or status.")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Discovery and inference timeout.")
}

// NewHostConfig creates a HostConfig with default configurations.
func NewHostConfig() *HostConfig {
	conf := defaultHostConfig
	return &conf
}

// Discover enumerates announced devices.
func (c *HostConfig) Discover(ctx context.Context) ([]registry.DeviceInfo, error) {
	if c.RegistryURL == "" {
		return nil, fmt.Errorf("registry URL must be specified")
	}
	return registry.Discover(ctx, c.RegistryURL, c.Timeout)
}

// Lookup discovers the device with ref.
func (c *HostConfig) Lookup(ctx context.Context, ref registry.DeviceRef) (*registry.DeviceInfo, error) {
	infoList, err := c.Discover(ctx)
	if err != nil {
		return nil, err
	}
	for n := range infoList {
		if infoList[n].Ref == ref {
			return &infoList[n], nil
		}
	}
	return nil, fmt.Errorf("device %s not found", ref.Name())
}

// DirectInfo describes the device reached by LinkURL.
func (c *HostConfig) DirectInfo() (*registry.DeviceInfo, error) {
	if c.LinkURL == "" {
		return nil, fmt.Errorf("link URL must be specified")
	}
	if c.InputDim <= 0 || c.OutputDim <= 0 {
		return nil, fmt.Errorf("input and output dimensions must be specified with link URL")
	}
	ref := c.Device
	if !ref.IsValid() {
		ref = registry.DeviceRef{Type: "qnn", ID: "direct"}
	}
	return &registry.DeviceInfo{
		Ref: ref,
		Meta: registry.DeviceMeta{
			Topology: registry.Topology{
				InputDim:  c.InputDim,
				OutputDim: c.OutputDim,
				Signaling: c.Signaling.String(),
			},
			Link: c.LinkURL,
		},
	}, nil
}

// Dial connects the link of a device. linkURL overrides the
// announced one when not empty.
func (c *HostConfig) Dial(ctx context.Context, info registry.DeviceInfo, linkURL string) (*transport.Conn, error) {
	opts, err := DialOptions(info)
	if err != nil {
		return nil, err
	}
	if linkURL == "" {
		linkURL = info.Meta.Link
	}
	if linkURL == "" {
		return nil, fmt.Errorf("device %s has no link", info.Ref.Name())
	}
	return transport.Dial(ctx, linkURL, opts)
}
