package model

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/golang/protobuf/proto"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/qnn.go/pkg/model/pb"
)

// Format is the encoding of a model artifact.
type Format string

// Formats
const (
	FormatBinary   Format = "qnn"
	FormatProtobuf Format = "pb"
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
)

// FormatFromPath detects the artifact format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".qnn", ".bin":
		return FormatBinary, nil
	case ".pb":
		return FormatProtobuf, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown model format of %q", path)
	}
}

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatBinary, FormatProtobuf, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown model format %q", name)
}

// Decode reads the layers of an artifact.
func Decode(r io.Reader, format Format) ([]Layer, error) {
	if format == FormatBinary {
		return DecodeBinary(r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatProtobuf:
		var a pb.Artifact
		if err := proto.Unmarshal(data, &a); err != nil {
			return nil, malformed(-1, "decode protobuf: %v", err)
		}
		return layersFromPB(&a)
	case FormatYAML:
		var doc artifactDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, malformed(-1, "decode yaml: %v", err)
		}
		return doc.layers(), nil
	case FormatJSON:
		var doc artifactDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, malformed(-1, "decode json: %v", err)
		}
		return doc.layers(), nil
	}
	return nil, fmt.Errorf("unknown model format %q", format)
}

// Encode writes the layers as an artifact.
func Encode(w io.Writer, format Format, layers []Layer) error {
	var data []byte
	var err error
	switch format {
	case FormatBinary:
		return EncodeBinary(w, layers)
	case FormatProtobuf:
		data, err = proto.Marshal(layersToPB(layers))
	case FormatYAML:
		data, err = yaml.Marshal(docFromLayers(layers))
	case FormatJSON:
		data, err = json.MarshalIndent(docFromLayers(layers), "", "  ")
	default:
		return fmt.Errorf("unknown model format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Load decodes an artifact and builds the Model.
func Load(r io.Reader, format Format) (*Model, error) {
	layers, err := Decode(r, format)
	if err != nil {
		return nil, err
	}
	return Build(layers)
}

// LoadFile loads the Model from a file, format detected from extension.
func LoadFile(path string) (*Model, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Load(f, format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// SaveFile writes the layers to a file, format detected from extension.
func SaveFile(path string, layers []Layer) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = Encode(&buf, format, layers); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

type layerDoc struct {
	Name       string     `yaml:"name,omitempty" json:"name,omitempty"`
	InDim      int        `yaml:"in_dim" json:"in_dim"`
	OutDim     int        `yaml:"out_dim" json:"out_dim"`
	Activation Activation `yaml:"activation" json:"activation"`
	Shift      uint8      `yaml:"shift,omitempty" json:"shift,omitempty"`
	Weights    []int8     `yaml:"weights,flow" json:"weights"`
	Biases     []int32    `yaml:"biases,flow" json:"biases"`
}

type artifactDoc struct {
	Layers []layerDoc `yaml:"layers" json:"layers"`
}

func (d *artifactDoc) layers() []Layer {
	layers := make([]Layer, len(d.Layers))
	for n, l := range d.Layers {
		layers[n] = Layer{
			Name:       l.Name,
			InDim:      l.InDim,
			OutDim:     l.OutDim,
			Activation: l.Activation,
			Shift:      l.Shift,
			Weights:    l.Weights,
			Biases:     l.Biases,
		}
	}
	return layers
}

func docFromLayers(layers []Layer) *artifactDoc {
	doc := &artifactDoc{Layers: make([]layerDoc, len(layers))}
	for n, l := range layers {
		doc.Layers[n] = layerDoc{
			Name:       l.Name,
			InDim:      l.InDim,
			OutDim:     l.OutDim,
			Activation: l.Activation,
			Shift:      l.Shift,
			Weights:    l.Weights,
			Biases:     l.Biases,
		}
	}
	return doc
}

func layersFromPB(a *pb.Artifact) ([]Layer, error) {
	layers := make([]Layer, len(a.Layers))
	for n, l := range a.Layers {
		if l == nil {
			return nil, malformed(n, "empty layer")
		}
		if l.Activation > 0xff || l.Shift > 0xff {
			return nil, malformed(n, "activation %d or shift %d out of range", l.Activation, l.Shift)
		}
		weights := make([]int8, len(l.Weights))
		for i, b := range l.Weights {
			weights[i] = int8(b)
		}
		layers[n] = Layer{
			Name:       l.Name,
			InDim:      int(l.InDim),
			OutDim:     int(l.OutDim),
			Activation: Activation(l.Activation),
			Shift:      uint8(l.Shift),
			Weights:    weights,
			Biases:     l.Biases,
		}
	}
	return layers, nil
}

func layersToPB(layers []Layer) *pb.Artifact {
	a := &pb.Artifact{Layers: make([]*pb.Layer, len(layers))}
	for n, l := range layers {
		weights := make([]byte, len(l.Weights))
		for i, w := range l.Weights {
			weights[i] = byte(w)
		}
		a.Layers[n] = &pb.Layer{
			Name:       l.Name,
			InDim:      uint32(l.InDim),
			OutDim:     uint32(l.OutDim),
			Activation: uint32(l.Activation),
			Shift:      uint32(l.Shift),
			Weights:    weights,
			Biases:     l.Biases,
		}
	}
	return a
}
