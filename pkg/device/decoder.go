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

package device

import (
	"errors"

	"github.com/google/gopacket"

	"github.com/openbiosig/go-bitalino/pkg/layers"
	"github.com/openbiosig/go-bitalino/pkg/log"
)

// StreamDecoder turns the continuous acquisition byte stream into frames.
//
// The stream carries fixed-width frames with no sync marker, so the frame
// width is derived from the session's channel configuration and
// resynchronization after a CRC failure means skipping to the next frame
// boundary. CRC failures and sequence gaps are counted, not surfaced as
// errors; corrupted samples are expected on a wireless link and must not
// abort acquisition.
type StreamDecoder struct {
	channelCount int
	width        int
	buf          []byte
	lastSeq      int
	crcErrors    int
	sequenceGaps int
}

func NewStreamDecoder(channelCount int) (*StreamDecoder, error) {
	if channelCount < 1 || channelCount > layers.MaxChannels {
		return nil, layers.ErrChannelCount{Count: channelCount}
	}
	return &StreamDecoder{
		channelCount: channelCount,
		width:        layers.FrameSize(channelCount),
		lastSeq:      -1,
	}, nil
}

// Width returns the frame width in bytes for the active channel set.
func (d *StreamDecoder) Width() int {
	return d.width
}

// Feed appends raw bytes pulled from the transport.
func (d *StreamDecoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Next decodes the next CRC-valid frame from the buffered bytes.
// It returns ErrNeedMoreData when the buffer does not hold a whole frame;
// the buffered partial frame is kept for the next call. Frames failing the
// CRC are discarded, counted and never returned.
func (d *StreamDecoder) Next() (*Frame, error) {
	for {
		if len(d.buf) < d.width {
			return nil, ErrNeedMoreData{Want: d.width, Have: len(d.buf)}
		}

		fl := &layers.FrameLayer{ChannelCount: d.channelCount}
		err := fl.DecodeFromBytes(d.buf[:d.width], gopacket.NilDecodeFeedback)
		d.buf = d.buf[d.width:]
		if err != nil {
			var crcErr layers.ErrCrcMismatch
			if errors.As(err, &crcErr) {
				d.crcErrors++
				log.Debug("Discarding frame: %s", err)
				continue
			}
			return nil, err
		}

		d.scoreSequence(fl.Seq)
		frame := &Frame{
			Seq:     fl.Seq,
			Digital: fl.Digital,
			Analog:  fl.Analog,
		}
		return frame, nil
	}
}

// scoreSequence adds the modular distance minus one to the gap counter.
// The first frame after a (re)start has no predecessor and is not scored;
// wraparound of the mod-16 counter is not a gap.
func (d *StreamDecoder) scoreSequence(seq uint8) {
	if d.lastSeq >= 0 {
		distance := (int(seq) - d.lastSeq + layers.SeqModulo) % layers.SeqModulo
		if distance == 0 {
			distance = layers.SeqModulo
		}
		d.sequenceGaps += distance - 1
	}
	d.lastSeq = int(seq)
}

// TakeCounters returns the integrity counters accumulated since the last
// call and resets them, keeping batches self-contained.
func (d *StreamDecoder) TakeCounters() (crcErrors, sequenceGaps int) {
	crcErrors, sequenceGaps = d.crcErrors, d.sequenceGaps
	d.crcErrors, d.sequenceGaps = 0, 0
	return
}
