// Package config provides the common options of the device daemon and
// host tools: flags, QNN_* environment variables and an optional YAML
// file, in order of precedence.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/qnn.go/pkg/engine"
	"github.com/robotalks/qnn.go/pkg/fixed"
	"github.com/robotalks/qnn.go/pkg/link"
	"github.com/robotalks/qnn.go/pkg/model"
	"github.com/robotalks/qnn.go/pkg/pipeline"
	"github.com/robotalks/qnn.go/pkg/registry"
	"github.com/robotalks/qnn.go/pkg/transport"
)

// Config is the device configuration.
type Config struct {
	// Dimensions of the fixed topology, 0 takes them from the model.
	InputDim  int
	HiddenDim int
	OutputDim int
	// AccumulatorWidth in bits, 0 selects the width never saturating.
	AccumulatorWidth int
	Scale            int
	FrameTimeout     time.Duration
	Signaling        link.ErrorSignaling

	// ModelPath is the weights artifact (.qnn, .pb, .yaml, .json).
	ModelPath string
	// LinkURL is where the link is served or dialed.
	LinkURL string
	// HTTPAddr serves the HTTP API, empty to disable.
	HTTPAddr string
	// MQTTURL announces the device, empty to disable.
	// e.g. mqtt://host:port/topic-prefix
	MQTTURL string

	Device      registry.DeviceRef
	Description string

	// File is the YAML config file.
	File string
}

var defaultConfig = Config{
	Scale:        engine.DefaultScale,
	FrameTimeout: link.DefaultFrameTimeout,
	Signaling:    link.SignalSentinel,
	LinkURL:      "tcp://:9000",
	Device:       registry.DeviceRef{Type: "qnn"},
}

func init() {
	loadEnv(&defaultConfig, os.Getenv)
	if defaultConfig.Device.ID == "" {
		defaultConfig.Device.ID = registry.MachineID()
	}
}

// maxDim is the largest dimension of the binary artifact encoding.
const maxDim = 1<<16 - 1

func loadEnv(c *Config, getenv func(string) string) {
	ints := map[string]*int{
		"QNN_INPUT_DIM":              &c.InputDim,
		"QNN_HIDDEN_DIM":             &c.HiddenDim,
		"QNN_OUTPUT_DIM":             &c.OutputDim,
		"QNN_ACCUMULATOR_WIDTH_BITS": &c.AccumulatorWidth,
		"QNN_RESPONSE_SCALE":         &c.Scale,
	}
	for name, ptr := range ints {
		if val := getenv(name); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				*ptr = n
			}
		}
	}
	strs := map[string]*string{
		"QNN_MODEL":  &c.ModelPath,
		"QNN_LINK":   &c.LinkURL,
		"QNN_HTTP":   &c.HTTPAddr,
		"QNN_MQTT":   &c.MQTTURL,
		"QNN_TYPE":   &c.Device.Type,
		"QNN_ID":     &c.Device.ID,
		"QNN_CONFIG": &c.File,
	}
	for name, ptr := range strs {
		if val := getenv(name); val != "" {
			*ptr = val
		}
	}
	// milliseconds
	if val := getenv("QNN_FRAME_TIMEOUT"); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			c.FrameTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if val := getenv("QNN_ERROR_SIGNALING"); val != "" {
		if s, err := link.ParseErrorSignaling(val); err == nil {
			c.Signaling = s
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	setupFlags(flag.CommandLine, &defaultConfig)
}

func setupFlags(fs *flag.FlagSet, c *Config) {
	fs.IntVar(&c.InputDim, "input-dim", c.InputDim, "Input dimension N, 0 from the model.")
	fs.IntVar(&c.HiddenDim, "hidden-dim", c.HiddenDim, "Hidden dimension H, 0 from the model.")
	fs.IntVar(&c.OutputDim, "output-dim", c.OutputDim, "Output dimension C, 0 from the model.")
	fs.IntVar(&c.AccumulatorWidth, "acc-width", c.AccumulatorWidth, "Accumulator width in bits, 0 never saturates.")
	fs.IntVar(&c.Scale, "scale", c.Scale, "Response scale, 1..255 and not less than C.")
	fs.DurationVar(&c.FrameTimeout, "frame-timeout", c.FrameTimeout, "Max gap between bytes of a request frame.")
	fs.TextVar(&c.Signaling, "error-signaling", c.Signaling, "Error signaling: sentinel or status.")
	fs.StringVar(&c.ModelPath, "model", c.ModelPath, "Model artifact file.")
	fs.StringVar(&c.LinkURL, "link", c.LinkURL, "Link URL (serial://, tcp://, ws://, mqtt://).")
	fs.StringVar(&c.HTTPAddr, "http", c.HTTPAddr, "HTTP API listen address.")
	fs.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL to announce the device.")
	fs.StringVar(&c.Device.Type, "type", c.Device.Type, "Device type.")
	fs.StringVar(&c.Device.ID, "id", c.Device.ID, "Device ID.")
	fs.StringVar(&c.Description, "desc", c.Description, "Device description.")
	fs.StringVar(&c.File, "config", c.File, "YAML config file.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load creates a Config from flags and environment, applies the config
// file for flags not explicitly set, and validates.
func Load() (*Config, error) {
	c := NewConfig()
	if c.File != "" {
		f, err := LoadFile(c.File)
		if err != nil {
			return nil, err
		}
		c.Apply(f, flagIsSet(flag.CommandLine))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustLoad loads the Config and fails on error.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		log.Fatalln(err)
	}
	return c
}

func flagIsSet(fs *flag.FlagSet) func(string) bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return func(name string) bool { return set[name] }
}

// Validate checks the values are usable.
func (c *Config) Validate() error {
	for name, dim := range map[string]int{"input": c.InputDim, "hidden": c.HiddenDim, "output": c.OutputDim} {
		if dim < 0 || dim > maxDim {
			return fmt.Errorf("%s dimension %d out of range [0, %d]", name, dim, maxDim)
		}
	}
	if c.AccumulatorWidth != 0 {
		if _, err := fixed.NewAccumulator(c.AccumulatorWidth); err != nil {
			return err
		}
	}
	if c.Scale <= 0 || c.Scale > 255 {
		return fmt.Errorf("response scale %d out of range [1, 255]", c.Scale)
	}
	if c.OutputDim > 0 && c.Scale < c.OutputDim {
		return fmt.Errorf("response scale %d must not be less than output dimension %d", c.Scale, c.OutputDim)
	}
	if c.FrameTimeout <= 0 {
		return fmt.Errorf("frame timeout must be positive")
	}
	if c.Signaling != link.SignalSentinel && c.Signaling != link.SignalStatus {
		return fmt.Errorf("unknown error signaling %d", int(c.Signaling))
	}
	if c.LinkURL != "" {
		u, err := transport.ParseURL(c.LinkURL)
		if err != nil {
			return err
		}
		if err = transport.CheckSignaling(u, c.Signaling); err != nil {
			return err
		}
	}
	if !c.Device.IsValid() {
		return fmt.Errorf("device type and id must be specified")
	}
	return nil
}

// LoadModel loads the model and checks it against the configured topology.
func (c *Config) LoadModel() (*model.Model, error) {
	if c.ModelPath == "" {
		return nil, fmt.Errorf("model file must be specified")
	}
	m, err := model.LoadFile(c.ModelPath)
	if err != nil {
		return nil, err
	}
	if err = m.CheckDims(orDim(c.InputDim, m.InputDim()), orDim(c.HiddenDim, m.HiddenDim()), orDim(c.OutputDim, m.OutputDim())); err != nil {
		return nil, err
	}
	return m, nil
}

func orDim(configured, actual int) int {
	if configured == 0 {
		return actual
	}
	return configured
}

// NewPipeline creates the pipeline over m.
func (c *Config) NewPipeline(m *model.Model) (*pipeline.Pipeline, error) {
	return pipeline.New(m, pipeline.Options{AccumulatorWidth: c.AccumulatorWidth, Scale: c.Scale})
}

// NewServer creates the link server.
func (c *Config) NewServer(p *pipeline.Pipeline) (*transport.Server, error) {
	return transport.NewServer(c.LinkURL, link.NewHandler(p, c.Signaling), transport.ServeOptions{
		FrameTimeout: c.FrameTimeout,
		Device:       c.Device.Name(),
	})
}

// DeviceInfo describes the device serving p.
func (c *Config) DeviceInfo(p *pipeline.Pipeline) registry.DeviceInfo {
	m := p.Model()
	return registry.DeviceInfo{
		Ref: c.Device,
		Meta: registry.DeviceMeta{
			Description: c.Description,
			Topology: registry.Topology{
				InputDim:         m.InputDim(),
				HiddenDim:        m.HiddenDim(),
				OutputDim:        m.OutputDim(),
				AccumulatorWidth: p.AccumulatorWidth(),
				Scale:            p.Scale(),
				Signaling:        c.Signaling.String(),
			},
			Link: c.LinkURL,
			HTTP: c.HTTPAddr,
		},
	}
}

// NewRegistrar creates the MQTT registrar, nil if not configured.
func (c *Config) NewRegistrar(p *pipeline.Pipeline) (*registry.Registrar, error) {
	if c.MQTTURL == "" {
		return nil, nil
	}
	reg, err := registry.NewRegistrar(c.MQTTURL, c.DeviceInfo(p))
	if err != nil {
		return nil, fmt.Errorf("create MQTT registrar error: %w", err)
	}
	return reg, nil
}

// DialOptions creates the options to dial a device described by info.
func DialOptions(info registry.DeviceInfo) (transport.DialOptions, error) {
	signaling, err := link.ParseErrorSignaling(info.Meta.Topology.Signaling)
	if err != nil {
		return transport.DialOptions{}, err
	}
	return transport.DialOptions{
		InputDim:  info.Meta.Topology.InputDim,
		OutputDim: info.Meta.Topology.OutputDim,
		Signaling: signaling,
		Device:    info.Ref.Name(),
	}, nil
}
