package model

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Binary artifact layout (little-endian):
//
//	magic "QNN1"
//	u16 layer count
//	per layer:
//	  u16 in_dim, u16 out_dim, u8 activation, u8 shift
//	  in_dim*out_dim int8 weights, row-major
//	  out_dim int32 biases
var binaryMagic = [4]byte{'Q', 'N', 'N', '1'}

const (
	maxBinaryLayers = 16
	// payload is read in chunks so memory follows the bytes actually
	// present rather than the dimensions a header claims.
	binaryChunk = 4096
)

type binaryLayerHeader struct {
	InDim      uint16
	OutDim     uint16
	Activation uint8
	Shift      uint8
}

// DecodeBinary reads layers in binary artifact format.
// Any truncation or trailing data is reported as ErrMalformedModel.
func DecodeBinary(r io.Reader) ([]Layer, error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, truncated(-1, err)
	}
	if magic != binaryMagic {
		return nil, malformed(-1, "bad magic %q", magic[:])
	}
	var count uint16
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, truncated(-1, err)
	}
	if count == 0 || count > maxBinaryLayers {
		return nil, malformed(-1, "invalid layer count %d", count)
	}
	layers := make([]Layer, count)
	for n := range layers {
		var h binaryLayerHeader
		if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
			return nil, truncated(n, err)
		}
		l := &layers[n]
		l.InDim, l.OutDim = int(h.InDim), int(h.OutDim)
		l.Activation, l.Shift = Activation(h.Activation), h.Shift
		var err error
		if l.Weights, err = readWeights(br, l.InDim*l.OutDim); err != nil {
			return nil, truncated(n, err)
		}
		if l.Biases, err = readBiases(br, l.OutDim); err != nil {
			return nil, truncated(n, err)
		}
	}
	if _, err := br.ReadByte(); err == nil {
		return nil, malformed(-1, "trailing data after %d layers", count)
	} else if err != io.EOF {
		return nil, err
	}
	return layers, nil
}

// EncodeBinary writes layers in binary artifact format.
func EncodeBinary(w io.Writer, layers []Layer) error {
	if len(layers) > maxBinaryLayers {
		return malformed(-1, "too many layers %d", len(layers))
	}
	bw := bufio.NewWriter(w)
	bw.Write(binaryMagic[:])
	binary.Write(bw, binary.LittleEndian, uint16(len(layers)))
	for n, l := range layers {
		if l.InDim > 0xffff || l.OutDim > 0xffff {
			return malformed(n, "dimensions %dx%d too large", l.InDim, l.OutDim)
		}
		h := binaryLayerHeader{
			InDim:      uint16(l.InDim),
			OutDim:     uint16(l.OutDim),
			Activation: uint8(l.Activation),
			Shift:      l.Shift,
		}
		binary.Write(bw, binary.LittleEndian, &h)
		binary.Write(bw, binary.LittleEndian, l.Weights)
		binary.Write(bw, binary.LittleEndian, l.Biases)
	}
	return bw.Flush()
}

func readWeights(r io.Reader, count int) ([]int8, error) {
	w := make([]int8, 0, min(count, binaryChunk))
	var buf [binaryChunk]byte
	for len(w) < count {
		chunk := buf[:min(count-len(w), binaryChunk)]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, err
		}
		for _, b := range chunk {
			w = append(w, int8(b))
		}
	}
	return w, nil
}

func readBiases(r io.Reader, count int) ([]int32, error) {
	biases := make([]int32, 0, min(count, binaryChunk/4))
	var buf [binaryChunk]byte
	for len(biases) < count {
		chunk := buf[:min(count-len(biases), binaryChunk/4)*4]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, err
		}
		for off := 0; off < len(chunk); off += 4 {
			biases = append(biases, int32(binary.LittleEndian.Uint32(chunk[off:])))
		}
	}
	return biases, nil
}

func truncated(layer int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return malformed(layer, "truncated artifact")
	}
	return err
}
