package serial

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOptionsFromURL(t *testing.T) {
	testCases := []struct {
		url  string
		path string
		baud int
		err  bool
	}{
		{"serial:///dev/ttyUSB0", "/dev/ttyUSB0", DefaultBaud, false},
		{"serial:///dev/ttyS1?baud=9600", "/dev/ttyS1", 9600, false},
		{"serial:///dev/ttyS1?baud=fast", "", 0, true},
		{"serial://", "", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			u, err := url.Parse(tc.url)
			require.NoError(t, err)
			path, opts, err := OptionsFromURL(u)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.path, path)
			require.Equal(t, tc.baud, opts.Baud)
		})
	}
}

func TestDeciseconds(t *testing.T) {
	require.Equal(t, uint8(0), Options{}.deciseconds())
	require.Equal(t, uint8(1), Options{ReadTimeout: 20 * time.Millisecond}.deciseconds())
	require.Equal(t, uint8(1), Options{ReadTimeout: 100 * time.Millisecond}.deciseconds())
	require.Equal(t, uint8(2), Options{ReadTimeout: 150 * time.Millisecond}.deciseconds())
	require.Equal(t, uint8(255), Options{ReadTimeout: time.Minute}.deciseconds())
}
