package pb

import (
	"reflect"
	"testing"

	"github.com/golang/protobuf/descriptor"
	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"
)

func TestDescriptorMatchesStructs(t *testing.T) {
	for _, msg := range []descriptor.Message{&Artifact{}, &Layer{}} {
		fd, md := descriptor.ForMessage(msg)
		require.Equal(t, "artifact.proto", fd.GetName())
		require.Equal(t, "qnn.model.v1", fd.GetPackage())
		require.Equal(t, "qnn.model.v1."+md.GetName(), proto.MessageName(msg))

		fields := make(map[int32]string)
		for _, f := range md.GetField() {
			fields[f.GetNumber()] = f.GetName()
		}
		props := proto.GetProperties(reflect.TypeOf(msg).Elem())
		tagged := 0
		for _, p := range props.Prop {
			if p.Tag == 0 {
				continue
			}
			tagged++
			require.Equal(t, fields[int32(p.Tag)], p.OrigName, "field %d of %s", p.Tag, md.GetName())
		}
		require.Equal(t, len(fields), tagged)
	}
}

func TestLayerRoundTrip(t *testing.T) {
	in := &Artifact{Layers: []*Layer{{
		Name:       "hidden",
		InDim:      2,
		OutDim:     1,
		Activation: 1,
		Shift:      3,
		Weights:    []byte{0x80, 0x7f},
		Biases:     []int32{-70000},
	}}}
	data, err := proto.Marshal(in)
	require.NoError(t, err)
	var out Artifact
	require.NoError(t, proto.Unmarshal(data, &out))
	require.True(t, proto.Equal(in, &out))
	require.Equal(t, int32(-70000), out.GetLayers()[0].GetBiases()[0])
}
