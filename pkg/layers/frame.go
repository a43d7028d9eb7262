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
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// FrameLayerNum identifies the layer
	FrameLayerNum = 2001
	// SeqModulo is the width of the per-frame sequence counter
	SeqModulo = 16
	// NumDigital is the number of digital lines in every frame (I1, I2, O1, O2)
	NumDigital = 4
	// MaxChannels is the number of analog inputs of the device
	MaxChannels = 6
)

// FrameSize returns the frame width in bytes for the given number of active
// analog channels. The first four channels carry 10 bits each, the fifth and
// sixth carry 6 bits; 4 sequence bits and 4 digital bits complete the frame.
func FrameSize(channelCount int) int {
	if channelCount <= 0 {
		return 0
	}
	var bits int
	if channelCount <= 4 {
		bits = 12 + 10*channelCount
	} else {
		bits = 52 + 6*(channelCount-4)
	}
	return (bits + 7) / 8
}

// FrameLayer is one acquisition frame of the BITalino stream.
//
// The wire format does not self-describe the number of active channels, so
// ChannelCount must be set from the session configuration before decoding.
type FrameLayer struct {
	layers.BaseLayer
	ChannelCount int
	Seq          uint8
	Digital      [NumDigital]uint8
	Analog       []uint16
	Crc          uint8
}

var FrameLayerType = gopacket.RegisterLayerType(FrameLayerNum,
	gopacket.LayerTypeMetadata{Name: "BitalinoFrameLayerType", Decoder: gopacket.DecodeFunc(decodeFrameLayer)})

func (f *FrameLayer) LayerType() gopacket.LayerType {
	return FrameLayerType
}

// DecodeFromBytes attempts to decode the byte slice as one acquisition frame.
// A CRC failure is reported as ErrCrcMismatch so that the caller can count
// and discard the frame; a short slice is reported as truncated so that the
// caller can wait for more bytes.
func (f *FrameLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if f.ChannelCount < 1 || f.ChannelCount > MaxChannels {
		return ErrChannelCount{Count: f.ChannelCount}
	}
	width := FrameSize(f.ChannelCount)
	if len(data) < width {
		df.SetTruncated()
		return ErrFrameTooShort{Want: width, Have: len(data)}
	}
	data = data[:width]
	last := width - 1

	received := data[last] & 0x0F
	masked := make([]byte, width)
	copy(masked, data)
	masked[last] &= 0xF0
	computed := Crc4(masked)
	if received != computed {
		return ErrCrcMismatch{Received: received, Computed: computed}
	}

	f.BaseLayer = layers.BaseLayer{Contents: data}
	f.Crc = received
	f.Seq = data[last] >> 4
	f.Digital = [NumDigital]uint8{
		(data[last-1] >> 7) & 0x01,
		(data[last-1] >> 6) & 0x01,
		(data[last-1] >> 5) & 0x01,
		(data[last-1] >> 4) & 0x01,
	}

	f.Analog = make([]uint16, 0, f.ChannelCount)
	if f.ChannelCount > 0 {
		f.Analog = append(f.Analog, (uint16(data[last-1]&0x0F)<<6)|(uint16(data[last-2])>>2))
	}
	if f.ChannelCount > 1 {
		f.Analog = append(f.Analog, (uint16(data[last-2]&0x03)<<8)|uint16(data[last-3]))
	}
	if f.ChannelCount > 2 {
		f.Analog = append(f.Analog, (uint16(data[last-4])<<2)|(uint16(data[last-5])>>6))
	}
	if f.ChannelCount > 3 {
		f.Analog = append(f.Analog, (uint16(data[last-5]&0x3F)<<4)|(uint16(data[last-6])>>4))
	}
	if f.ChannelCount > 4 {
		f.Analog = append(f.Analog, (uint16(data[last-6]&0x0F)<<2)|(uint16(data[last-7])>>6))
	}
	if f.ChannelCount > 5 {
		f.Analog = append(f.Analog, uint16(data[last-7]&0x3F))
	}

	return nil
}

// SerializeTo serializes the frame into bytes and writes the bytes to the
// SerializeBuffer. The CRC nibble is computed over the serialized frame.
func (f *FrameLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if f.ChannelCount < 1 || f.ChannelCount > MaxChannels {
		return ErrChannelCount{Count: f.ChannelCount}
	}
	if len(f.Analog) != f.ChannelCount {
		return ErrChannelCount{Count: len(f.Analog)}
	}
	width := FrameSize(f.ChannelCount)
	buf, err := b.PrependBytes(width)
	if err != nil {
		return err
	}
	for i := range buf {
		buf[i] = 0
	}
	last := width - 1

	buf[last] = (f.Seq % SeqModulo) << 4
	buf[last-1] = (f.Digital[0]&0x01)<<7 | (f.Digital[1]&0x01)<<6 | (f.Digital[2]&0x01)<<5 | (f.Digital[3]&0x01)<<4

	buf[last-1] |= uint8(f.Analog[0]>>6) & 0x0F
	buf[last-2] = uint8(f.Analog[0]&0x3F) << 2
	if f.ChannelCount > 1 {
		buf[last-2] |= uint8(f.Analog[1]>>8) & 0x03
		buf[last-3] = uint8(f.Analog[1] & 0xFF)
	}
	if f.ChannelCount > 2 {
		buf[last-4] = uint8(f.Analog[2] >> 2)
		buf[last-5] = uint8(f.Analog[2]&0x03) << 6
	}
	if f.ChannelCount > 3 {
		buf[last-5] |= uint8(f.Analog[3]>>4) & 0x3F
		buf[last-6] = uint8(f.Analog[3]&0x0F) << 4
	}
	if f.ChannelCount > 4 {
		buf[last-6] |= uint8(f.Analog[4]>>2) & 0x0F
		buf[last-7] = uint8(f.Analog[4]&0x03) << 6
	}
	if f.ChannelCount > 5 {
		buf[last-7] |= uint8(f.Analog[5]) & 0x3F
	}

	buf[last] |= Crc4(buf)
	return nil
}

func decodeFrameLayer(data []byte, p gopacket.PacketBuilder) error {
	// The frame width depends on the session channel configuration, which a
	// bare packet decoder cannot know. Decode through FrameLayer directly.
	return errors.New("BitalinoFrame cannot be decoded without a channel count")
}
