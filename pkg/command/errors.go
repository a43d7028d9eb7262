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
	"fmt"
)

// ErrInvalidParameter returned when a caller-supplied parameter is rejected
// before any bytes are sent to the device
type ErrInvalidParameter struct {
	What  string
	Value string
}

func (e ErrInvalidParameter) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.What, e.Value)
}

// ErrProtocol returned when a command/response exchange is malformed
type ErrProtocol struct {
	What string
}

func (e ErrProtocol) Error() string {
	return fmt.Sprintf("Protocol error: %s", e.What)
}
