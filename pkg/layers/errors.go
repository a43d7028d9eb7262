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
	"fmt"
)

// ErrFrameTooShort returned when there are not enough bytes for a whole frame
type ErrFrameTooShort struct {
	Want int
	Have int
}

func (e ErrFrameTooShort) Error() string {
	return fmt.Sprintf("Frame too short: want %d bytes, have %d", e.Want, e.Have)
}

// ErrCrcMismatch returned when the CRC nibble does not validate the record
type ErrCrcMismatch struct {
	Received uint8
	Computed uint8
}

func (e ErrCrcMismatch) Error() string {
	return fmt.Sprintf("CRC mismatch: received 0x%x, computed 0x%x", e.Received, e.Computed)
}

// ErrChannelCount returned when the active channel count is out of the device range
type ErrChannelCount struct {
	Count int
}

func (e ErrChannelCount) Error() string {
	return fmt.Sprintf("Invalid channel count: %d. Must be between 1 and %d", e.Count, MaxChannels)
}
