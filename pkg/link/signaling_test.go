package link

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestErrorSignaling(t *testing.T) {
	testCases := []struct {
		str       string
		signaling ErrorSignaling
		err       bool
	}{
		{"sentinel", SignalSentinel, false},
		{"status", SignalStatus, false},
		{"STATUS", SignalStatus, false},
		{"flag", SignalSentinel, true},
		{"", SignalSentinel, true},
	}
	for _, tc := range testCases {
		t.Run(tc.str, func(t *testing.T) {
			s, err := ParseErrorSignaling(tc.str)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.signaling, s)
		})
	}
	require.Equal(t, "signaling(7)", ErrorSignaling(7).String())
}

func TestErrorSignalingYAML(t *testing.T) {
	var conf struct {
		Signaling ErrorSignaling `yaml:"error_signaling"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("error_signaling: status\n"), &conf))
	require.Equal(t, SignalStatus, conf.Signaling)
	out, err := yaml.Marshal(&conf)
	require.NoError(t, err)
	require.Equal(t, "error_signaling: status\n", string(out))
	require.Error(t, yaml.Unmarshal([]byte("error_signaling: bogus\n"), &conf))
}

func TestIsSentinel(t *testing.T) {
	require.True(t, IsSentinel([]byte{0}))
	require.True(t, IsSentinel([]byte{0, 0, 0}))
	require.False(t, IsSentinel([]byte{0, 1, 0}))
	require.False(t, IsSentinel(nil))
}

func TestStatus(t *testing.T) {
	require.Equal(t, "ok", StatusOK.String())
	require.NoError(t, StatusOK.Err())

	s := StatusError(ErrFrameTimeout)
	require.Equal(t, "error:frame timeout", s.String())
	require.True(t, errors.Is(s.Err(), ErrInferenceFailed))

	parsed, err := ParseStatus(s.String())
	require.NoError(t, err)
	require.Equal(t, s, parsed)
	parsed, err = ParseStatus("ok")
	require.NoError(t, err)
	require.Equal(t, StatusOK, parsed)
	_, err = ParseStatus("fine")
	require.Error(t, err)
}
