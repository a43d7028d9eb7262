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

package layers

import (
	"encoding/binary"
	"testing"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	s := &StateLayer{
		Analog:           [MaxChannels]uint16{100, 200, 300, 400, 500, 600},
		Battery:          980,
		BatteryThreshold: 20,
		Digital:          [NumDigital]uint8{1, 0, 0, 1},
	}
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, s.SerializeTo(buf, gopacket.SerializeOptions{}))
	require.Len(t, buf.Bytes(), StateRecordSize)
	require.True(t, Crc4Check(buf.Bytes()))

	decoded := &StateLayer{}
	require.NoError(t, decoded.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback))
	assert.Equal(t, s.Analog, decoded.Analog)
	assert.Equal(t, s.Battery, decoded.Battery)
	assert.Equal(t, s.BatteryThreshold, decoded.BatteryThreshold)
	assert.Equal(t, s.Digital, decoded.Digital)
}

func TestStateDecodeRecord(t *testing.T) {
	record := make([]byte, StateRecordSize)
	for i := 0; i < MaxChannels; i++ {
		binary.LittleEndian.PutUint16(record[2*i:2*i+2], uint16(10*(i+1)))
	}
	binary.LittleEndian.PutUint16(record[12:14], 1023)
	record[14] = 63
	record[15] = 0xA0 // I1 and O1 high
	record[15] |= Crc4(record)

	s := &StateLayer{}
	require.NoError(t, s.DecodeFromBytes(record, gopacket.NilDecodeFeedback))
	assert.Equal(t, [MaxChannels]uint16{10, 20, 30, 40, 50, 60}, s.Analog)
	assert.Equal(t, uint16(1023), s.Battery)
	assert.Equal(t, uint8(63), s.BatteryThreshold)
	assert.Equal(t, [NumDigital]uint8{1, 0, 1, 0}, s.Digital)
}

// Some firmware revisions send a bogus CRC for the state response; the
// decode must go through anyway.
func TestStateDecodeToleratesBadCrc(t *testing.T) {
	record := make([]byte, StateRecordSize)
	binary.LittleEndian.PutUint16(record[12:14], 800)
	record[15] = Crc4(record) ^ 0x05

	s := &StateLayer{}
	require.NoError(t, s.DecodeFromBytes(record, gopacket.NilDecodeFeedback))
	assert.Equal(t, uint16(800), s.Battery)
}

func TestStateDecodeTruncated(t *testing.T) {
	s := &StateLayer{}
	err := s.DecodeFromBytes(make([]byte, StateRecordSize-1), gopacket.NilDecodeFeedback)
	require.Error(t, err)
	require.IsType(t, ErrFrameTooShort{}, err)
}
