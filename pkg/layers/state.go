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

	"github.com/google/gopacket"
	gplayers "github.com/google/gopacket/layers"

	"github.com/openbiosig/go-bitalino/pkg/log"
)

const (
	// StateLayerNum identifies the layer
	StateLayerNum = 2002
	// StateRecordSize is the fixed size of the state response (BITalino 2.0+)
	StateRecordSize = 16
)

// StateLayer is the response to the state command (BITalino 2.0+):
// six little-endian analog words, the battery word, the battery threshold
// byte, and one byte carrying the digital lines in the high nibble and the
// CRC-4 in the low nibble.
type StateLayer struct {
	gplayers.BaseLayer
	Analog           [MaxChannels]uint16
	Battery          uint16
	BatteryThreshold uint8
	Digital          [NumDigital]uint8
	Crc              uint8
}

var StateLayerType = gopacket.RegisterLayerType(StateLayerNum,
	gopacket.LayerTypeMetadata{Name: "BitalinoStateLayerType", Decoder: gopacket.DecodeFunc(decodeStateLayer)})

func (s *StateLayer) LayerType() gopacket.LayerType {
	return StateLayerType
}

// DecodeFromBytes attempts to decode the byte slice as a state record.
// Some firmware revisions are known to send a bogus CRC for the state
// response, so a mismatch is logged but does not fail the decode.
func (s *StateLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < StateRecordSize {
		df.SetTruncated()
		return ErrFrameTooShort{Want: StateRecordSize, Have: len(data)}
	}
	data = data[:StateRecordSize]

	received := data[StateRecordSize-1] & 0x0F
	masked := make([]byte, StateRecordSize)
	copy(masked, data)
	masked[StateRecordSize-1] &= 0xF0
	if computed := Crc4(masked); received != computed {
		log.Warning("CRC mismatch in state record: received 0x%x, computed 0x%x, continuing anyway", received, computed)
	}

	s.BaseLayer = gplayers.BaseLayer{Contents: data}
	s.Crc = received
	for i := 0; i < MaxChannels; i++ {
		s.Analog[i] = binary.LittleEndian.Uint16(data[2*i : 2*i+2])
	}
	s.Battery = binary.LittleEndian.Uint16(data[12:14])
	s.BatteryThreshold = data[14]
	s.Digital = [NumDigital]uint8{
		(data[15] >> 7) & 0x01,
		(data[15] >> 6) & 0x01,
		(data[15] >> 5) & 0x01,
		(data[15] >> 4) & 0x01,
	}
	return nil
}

// SerializeTo serializes the state record, computing the CRC nibble.
func (s *StateLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.PrependBytes(StateRecordSize)
	if err != nil {
		return err
	}
	for i := range buf {
		buf[i] = 0
	}
	for i := 0; i < MaxChannels; i++ {
		binary.LittleEndian.PutUint16(buf[2*i:2*i+2], s.Analog[i])
	}
	binary.LittleEndian.PutUint16(buf[12:14], s.Battery)
	buf[14] = s.BatteryThreshold
	buf[15] = (s.Digital[0]&0x01)<<7 | (s.Digital[1]&0x01)<<6 | (s.Digital[2]&0x01)<<5 | (s.Digital[3]&0x01)<<4
	buf[15] |= Crc4(buf[:StateRecordSize])
	return nil
}

func decodeStateLayer(data []byte, p gopacket.PacketBuilder) error {
	s := &StateLayer{}
	if err := s.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(s)
	return nil
}
