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
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/openbiosig/go-bitalino/pkg/layers"
	"github.com/openbiosig/go-bitalino/pkg/log"
)

// Frame is one decoded sample instant: the mod-16 sequence counter, the four
// digital lines (I1, I2, O1, O2) and one reading per active analog channel.
type Frame struct {
	Seq     uint8                    `json:"Seq"`
	Digital [layers.NumDigital]uint8 `json:"Digital"`
	Analog  []uint16                 `json:"Analog"`
}

// FrameBatch is the result of one timed read: the accepted frames, a host
// timestamp, and integrity counters scoped to this batch only.
//
// TimestampUs is microseconds on the session's monotonic acquisition clock
// and anchors the LAST frame of the batch. The timestamp of frame i is
// TimestampUs - (len(Frames)-1-i) * period, with the nominal sampling
// period authoritative between crystal resyncs.
type FrameBatch struct {
	Frames       []Frame `json:"Frames"`
	TimestampUs  uint64  `json:"TimestampUs"`
	CRCErrors    int     `json:"CRCErrors"`
	SequenceGaps int     `json:"SequenceGaps"`
}

// DeviceState is a point-in-time snapshot of a BITalino 2.0+ device taken
// outside of acquisition: the six analog input levels, the raw battery
// reading, the configured low-battery threshold and the digital lines.
type DeviceState struct {
	Analog           [layers.MaxChannels]uint16 `json:"Analog"`
	Battery          uint16                     `json:"Battery"`
	BatteryThreshold uint8                      `json:"BatteryThreshold"`
	Digital          [layers.NumDigital]uint8   `json:"Digital"`
}

// BatteryVoltage converts the raw battery reading to an approximate voltage.
// The device divides the battery voltage by two before sampling it against
// the 3.3V reference.
func (ds *DeviceState) BatteryVoltage() float64 {
	return float64(ds.Battery) / 1023.0 * 3.3 * 2.0
}

// ThresholdVoltage maps the 0-63 threshold setting to its voltage,
// 0 being 3.4V and 63 being 3.8V.
func (ds *DeviceState) ThresholdVoltage() float64 {
	return 3.4 + float64(ds.BatteryThreshold)/63.0*0.4
}

// BatteryLow reports whether the battery voltage is below the configured
// threshold.
func (ds *DeviceState) BatteryLow() bool {
	return ds.BatteryVoltage() < ds.ThresholdVoltage()
}

func (ds *DeviceState) String() string {
	result, err := yaml.Marshal(ds)
	if err != nil {
		log.Info("Error occured while marshaling device state, %s", err)
		return ""
	}
	return fmt.Sprintf("---\n%s", string(result))
}
