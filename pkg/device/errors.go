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
)

// ErrInvalidState returned when an operation is not valid in the current
// position of the session state machine. No bytes are sent to the device.
type ErrInvalidState struct {
	Op    string
	State SessionState
}

func (e ErrInvalidState) Error() string {
	return fmt.Sprintf("Operation %s is not valid in state %s", e.Op, e.State)
}

// ErrUnsupportedOperation returned when the connected firmware lacks the
// requested capability
type ErrUnsupportedOperation struct {
	Op      string
	Version string
}

func (e ErrUnsupportedOperation) Error() string {
	return fmt.Sprintf("Operation %s requires BITalino 2.0+, connected firmware is %q", e.Op, e.Version)
}

// ErrNeedMoreData returned by the stream decoder when the buffered bytes do
// not yet contain a whole frame
type ErrNeedMoreData struct {
	Want int
	Have int
}

func (e ErrNeedMoreData) Error() string {
	return fmt.Sprintf("Need more data: want %d bytes, have %d", e.Want, e.Have)
}
