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
	"time"
)

// The device transmits no timestamps; its crystal drives sampling at the
// nominal rate and the host reconstructs per-sample times. One timestamp is
// taken per batch at read completion and anchors the batch's last frame.

// PeriodUs returns the nominal sampling period in microseconds.
func PeriodUs(rate int) uint64 {
	return 1_000_000 / uint64(rate)
}

// acquisitionClock measures microseconds since acquisition start on the
// host's monotonic clock.
type acquisitionClock struct {
	start time.Time
}

func newAcquisitionClock() *acquisitionClock {
	return &acquisitionClock{start: time.Now()}
}

func (c *acquisitionClock) ElapsedUs() uint64 {
	return uint64(time.Since(c.start).Microseconds())
}

// stampBatch assembles a FrameBatch from the frames accepted by one read
// call, the batch-scoped integrity counters and the completion timestamp.
func stampBatch(frames []Frame, timestampUs uint64, crcErrors, sequenceGaps int) *FrameBatch {
	return &FrameBatch{
		Frames:       frames,
		TimestampUs:  timestampUs,
		CRCErrors:    crcErrors,
		SequenceGaps: sequenceGaps,
	}
}

// FrameTimestampUs back-computes the timestamp of frame i at the nominal
// sampling period, counting backwards from the batch timestamp which
// anchors the last frame.
func (b *FrameBatch) FrameTimestampUs(i, rate int) uint64 {
	return b.TimestampUs - uint64(len(b.Frames)-1-i)*PeriodUs(rate)
}
