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
	"sort"
	"strconv"
	"strings"

	"github.com/openbiosig/go-bitalino/pkg/layers"
)

// BITalino single-byte commands. The byte layouts are fixed by the device
// firmware, this package only packs and unpacks them.
const (
	CmdStop         = 0x00
	CmdVersion      = 0x07
	CmdState        = 0x0B // BITalino 2.0+ only
	CmdPwmPrefix    = 0xA3 // BITalino 2.0+ only, followed by the PWM value
	CmdTrigger2     = 0xB3 // BITalino 2.0 digital outputs base command
	CmdTrigger1     = 0x03 // BITalino 1.0 digital outputs base command
	LiveModeBit     = 0x01
	RateCommandBits = 0x03

	MaxBatteryThreshold = 63

	// Bitalino2MinVersion is the firmware revision that introduced the
	// state command and idle-mode trigger/PWM
	Bitalino2MinVersion = 4.2
)

// rateBits maps the supported sampling rates to their selector bits.
var rateBits = map[int]uint8{
	1:    0b00,
	10:   0b01,
	100:  0b10,
	1000: 0b11,
}

// SamplingRates lists the rates the device supports, in Hz.
func SamplingRates() []int {
	return []int{1, 10, 100, 1000}
}

// ValidateRate checks rate against the enumerated set. Rates outside the
// set are rejected, never clamped.
func ValidateRate(rate int) error {
	if _, ok := rateBits[rate]; !ok {
		return ErrInvalidParameter{What: "sampling rate", Value: strconv.Itoa(rate)}
	}
	return nil
}

// ValidateChannels normalizes a channel set: deduplicated, sorted, all
// within the device range, non-empty.
func ValidateChannels(channels []int) ([]int, error) {
	seen := make(map[int]bool)
	var valid []int
	for _, ch := range channels {
		if ch < 0 || ch >= layers.MaxChannels {
			return nil, ErrInvalidParameter{What: "analog channel", Value: strconv.Itoa(ch)}
		}
		if !seen[ch] {
			seen[ch] = true
			valid = append(valid, ch)
		}
	}
	if len(valid) == 0 {
		return nil, ErrInvalidParameter{What: "channel set", Value: "empty"}
	}
	sort.Ints(valid)
	return valid, nil
}

// EncodeStart validates the acquisition parameters and encodes them as the
// two-command start sequence: the rate selector command followed by the
// live-mode command carrying the channel bitmask. Nothing is encoded when
// validation fails.
func EncodeStart(rate int, channels []int) ([]byte, error) {
	if err := ValidateRate(rate); err != nil {
		return nil, err
	}
	valid, err := ValidateChannels(channels)
	if err != nil {
		return nil, err
	}

	rateCmd := (rateBits[rate] << 6) | RateCommandBits

	var channelBits uint8
	for _, ch := range valid {
		channelBits |= 1 << uint(2+ch)
	}
	startCmd := channelBits | LiveModeBit

	return []byte{rateCmd, startCmd}, nil
}

func EncodeStop() []byte {
	return []byte{CmdStop}
}

func EncodeVersionQuery() []byte {
	return []byte{CmdVersion}
}

func EncodeStateQuery() []byte {
	return []byte{CmdState}
}

// EncodeBatteryThreshold encodes the low-battery LED threshold command.
// 0 maps to 3.4V, 63 to 3.8V.
func EncodeBatteryThreshold(threshold int) ([]byte, error) {
	if threshold < 0 || threshold > MaxBatteryThreshold {
		return nil, ErrInvalidParameter{What: "battery threshold", Value: strconv.Itoa(threshold)}
	}
	return []byte{uint8(threshold) << 2}, nil
}

// EncodeTrigger encodes the digital output command. BITalino 2.0 drives two
// outputs from any state, BITalino 1.0 drives four and only while acquiring;
// the state gating is enforced by the session.
func EncodeTrigger(outputs []uint8, bitalino2 bool) []byte {
	bit := func(i int) uint8 {
		if i < len(outputs) {
			return outputs[i] & 0x01
		}
		return 0
	}
	if bitalino2 {
		return []byte{CmdTrigger2 | bit(1)<<3 | bit(0)<<2}
	}
	return []byte{CmdTrigger1 | bit(3)<<5 | bit(2)<<4 | bit(1)<<3 | bit(0)<<2}
}

// EncodePWM encodes the two-byte PWM output command (BITalino 2.0+ only).
func EncodePWM(value uint8) []byte {
	return []byte{CmdPwmPrefix, value}
}

// DecodeVersion extracts the firmware version string from a version
// response. The device terminates the string with a newline, carriage
// return or NUL; leading delimiters are skipped.
func DecodeVersion(data []byte) (string, error) {
	isDelim := func(b byte) bool {
		return b == '\n' || b == '\r' || b == 0
	}
	start := 0
	for start < len(data) && isDelim(data[start]) {
		start++
	}
	end := start
	for end < len(data) && !isDelim(data[end]) {
		end++
	}
	version := strings.TrimSpace(string(data[start:end]))
	if version == "" {
		return "", ErrProtocol{What: "empty version response"}
	}
	return version, nil
}

// IsBitalino2 reports whether the firmware version string belongs to a
// BITalino 2.0+ device. Versions are formatted like "BITalino_v5.2" or
// "BITalino V5.2"; revision 4.2 introduced the 2.0 feature set.
func IsBitalino2(version string) bool {
	lower := strings.ToLower(version)
	var numPart string
	if pos := strings.Index(lower, "_v"); pos >= 0 {
		numPart = lower[pos+2:]
	} else if pos := strings.IndexByte(lower, 'v'); pos >= 0 {
		numPart = lower[pos+1:]
	} else {
		return false
	}
	if len(numPart) > 3 {
		numPart = numPart[:3]
	}
	num, err := strconv.ParseFloat(numPart, 32)
	if err != nil {
		return false
	}
	return num >= Bitalino2MinVersion
}
