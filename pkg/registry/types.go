// Package registry announces devices and their topology over MQTT so
// hosts can discover them.
package registry

import (
	"fmt"
	"strings"
)

// DeviceRef is a reference to a device.
type DeviceRef struct {
	// Type is the device type, e.g. the model family it serves.
	Type string `json:"type"`
	// ID is unique ID of the device.
	ID string `json:"id"`
}

// Name retrieves the name from ref.
func (r DeviceRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates DeviceRef is valid.
func (r DeviceRef) IsValid() bool {
	return r.Type != "" && r.ID != "" &&
		!strings.ContainsAny(r.Type, "/+#") && !strings.ContainsAny(r.ID, "/+#")
}

// String implements Stringer.
func (r DeviceRef) String() string {
	return r.Name()
}

// ParseDeviceRef parses <type>/<id>.
func ParseDeviceRef(name string) (DeviceRef, error) {
	items := strings.Split(name, "/")
	if len(items) != 2 {
		return DeviceRef{}, fmt.Errorf("invalid device name %q, expect <type>/<id>", name)
	}
	ref := DeviceRef{Type: items[0], ID: items[1]}
	if !ref.IsValid() {
		return DeviceRef{}, fmt.Errorf("invalid device name %q", name)
	}
	return ref, nil
}

// Topology is the fixed shape and arithmetic of the served model.
type Topology struct {
	InputDim         int    `json:"input_dim"`
	HiddenDim        int    `json:"hidden_dim"`
	OutputDim        int    `json:"output_dim"`
	AccumulatorWidth int    `json:"accumulator_width_bits"`
	Scale            int    `json:"response_scale"`
	Signaling        string `json:"error_signaling"`
}

// DeviceMeta provides metadata of a device.
type DeviceMeta struct {
	Description string            `json:"description,omitempty"`
	Topology    Topology          `json:"topology"`
	Link        string            `json:"link,omitempty"`
	HTTP        string            `json:"http,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// DeviceInfo provides information of a device.
type DeviceInfo struct {
	Ref  DeviceRef  `json:"ref"`
	Meta DeviceMeta `json:"meta"`
}
