/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeStart(t *testing.T) {
	tests := []struct {
		rate     int
		channels []int
		want     []byte
	}{
		{1, []int{0}, []byte{0x03, 0x05}},
		{10, []int{0}, []byte{0x43, 0x05}},
		{100, []int{0}, []byte{0x83, 0x05}},
		{1000, []int{0}, []byte{0xC3, 0x05}},
		{1000, []int{0, 1, 2}, []byte{0xC3, 0x1D}},
		{1000, []int{0, 1, 2, 3, 4, 5}, []byte{0xC3, 0xFD}},
		{1000, []int{5}, []byte{0xC3, 0x81}},
		// duplicates collapse to one channel bit
		{100, []int{2, 2, 0}, []byte{0x83, 0x15}},
	}
	for _, tt := range tests {
		cmds, err := EncodeStart(tt.rate, tt.channels)
		require.NoError(t, err, "rate %d channels %v", tt.rate, tt.channels)
		assert.Equal(t, tt.want, cmds, "rate %d channels %v", tt.rate, tt.channels)
	}
}

func TestEncodeStartRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name     string
		rate     int
		channels []int
	}{
		{"unsupported rate", 7, []int{0}},
		{"zero rate", 0, []int{0}},
		{"empty channel set", 1000, nil},
		{"channel too high", 1000, []int{6}},
		{"negative channel", 1000, []int{-1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := EncodeStart(tt.rate, tt.channels)
			require.Error(t, err)
			require.IsType(t, ErrInvalidParameter{}, err)
			assert.Nil(t, cmds)
		})
	}
}

func TestValidateRate(t *testing.T) {
	for _, rate := range SamplingRates() {
		assert.NoError(t, ValidateRate(rate))
	}
	assert.Error(t, ValidateRate(500))
}

func TestValidateChannels(t *testing.T) {
	valid, err := ValidateChannels([]int{3, 1, 3, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3}, valid)

	_, err = ValidateChannels([]int{})
	require.IsType(t, ErrInvalidParameter{}, err)
}

func TestEncodeBatteryThreshold(t *testing.T) {
	cmd, err := EncodeBatteryThreshold(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, cmd)

	cmd, err = EncodeBatteryThreshold(MaxBatteryThreshold)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFC}, cmd)

	_, err = EncodeBatteryThreshold(MaxBatteryThreshold + 1)
	require.IsType(t, ErrInvalidParameter{}, err)
	_, err = EncodeBatteryThreshold(-1)
	require.IsType(t, ErrInvalidParameter{}, err)
}

func TestEncodeTrigger(t *testing.T) {
	assert.Equal(t, []byte{0xB3}, EncodeTrigger(nil, true))
	assert.Equal(t, []byte{0xB7}, EncodeTrigger([]uint8{1}, true))
	assert.Equal(t, []byte{0xBB}, EncodeTrigger([]uint8{0, 1}, true))
	assert.Equal(t, []byte{0xBF}, EncodeTrigger([]uint8{1, 1}, true))

	assert.Equal(t, []byte{0x03}, EncodeTrigger(nil, false))
	assert.Equal(t, []byte{0x17}, EncodeTrigger([]uint8{1, 0, 1, 0}, false))
	assert.Equal(t, []byte{0x3F}, EncodeTrigger([]uint8{1, 1, 1, 1}, false))
}

func TestEncodePWM(t *testing.T) {
	assert.Equal(t, []byte{CmdPwmPrefix, 0x7F}, EncodePWM(0x7F))
}

func TestDecodeVersion(t *testing.T) {
	version, err := DecodeVersion([]byte("BITalino_v5.2\n"))
	require.NoError(t, err)
	assert.Equal(t, "BITalino_v5.2", version)

	// leading delimiters left over from earlier responses are skipped
	version, err = DecodeVersion([]byte("\r\n\x00BITalino v4.31\n"))
	require.NoError(t, err)
	assert.Equal(t, "BITalino v4.31", version)

	_, err = DecodeVersion([]byte("\n\r\x00"))
	require.IsType(t, ErrProtocol{}, err)
	_, err = DecodeVersion(nil)
	require.IsType(t, ErrProtocol{}, err)
}

func TestIsBitalino2(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"BITalino_v5.2", true},
		{"BITalino_v4.2", true},
		{"BITalino v4.31", true},
		{"BITalino_v4.1", false},
		{"BITalino V3.1", false},
		{"garbage", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsBitalino2(tt.version), "version %q", tt.version)
	}
}
