package flashforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		req  Request
		want string
	}{
		{ControlRequest(), "~M601 S1\r\n"},
		{InfoRequest(), "~M115\r\n"},
		{HeadPositionRequest(), "~M114\r\n"},
		{TemperatureRequest(), "~M105\r\n"},
		{ProgressRequest(), "~M27\r\n"},
		{StatusRequest(), "~M119\r\n"},
		{SetTemperatureRequest(0, 210), "~M104 S210 T0\r\n"},
		{SetTemperatureRequest(1, 62.5), "~M104 S62.5 T1\r\n"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, string(c.req.Encode()), c.req.Kind.String())
	}
}
