package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/qnn.go/pkg/link"
)

// File represents the YAML config file. All fields are pointers so
// "not set" is distinguished from zero values.
type File struct {
	InputDim         *int                 `yaml:"input_dim"`
	HiddenDim        *int                 `yaml:"hidden_dim"`
	OutputDim        *int                 `yaml:"output_dim"`
	AccumulatorWidth *int                 `yaml:"accumulator_width_bits"`
	Scale            *int                 `yaml:"response_scale"`
	FrameTimeoutMs   *int                 `yaml:"frame_timeout"`
	Signaling        *link.ErrorSignaling `yaml:"error_signaling"`

	Model       string `yaml:"model"`
	Link        string `yaml:"link"`
	HTTP        string `yaml:"http"`
	MQTT        string `yaml:"mqtt"`
	Type        string `yaml:"type"`
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// LoadFile reads the config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &f, nil
}

// Apply applies the file values for flags not explicitly set.
func (c *Config) Apply(f *File, isSet func(flag string) bool) {
	applyInt := func(name string, dst *int, val *int) {
		if val != nil && !isSet(name) {
			*dst = *val
		}
	}
	applyString := func(name string, dst *string, val string) {
		if val != "" && !isSet(name) {
			*dst = val
		}
	}
	applyInt("input-dim", &c.InputDim, f.InputDim)
	applyInt("hidden-dim", &c.HiddenDim, f.HiddenDim)
	applyInt("output-dim", &c.OutputDim, f.OutputDim)
	applyInt("acc-width", &c.AccumulatorWidth, f.AccumulatorWidth)
	applyInt("scale", &c.Scale, f.Scale)
	if f.FrameTimeoutMs != nil && !isSet("frame-timeout") {
		c.FrameTimeout = time.Duration(*f.FrameTimeoutMs) * time.Millisecond
	}
	if f.Signaling != nil && !isSet("error-signaling") {
		c.Signaling = *f.Signaling
	}
	applyString("model", &c.ModelPath, f.Model)
	applyString("link", &c.LinkURL, f.Link)
	applyString("http", &c.HTTPAddr, f.HTTP)
	applyString("mqtt", &c.MQTTURL, f.MQTT)
	applyString("type", &c.Device.Type, f.Type)
	applyString("id", &c.Device.ID, f.ID)
	applyString("desc", &c.Description, f.Description)
}
