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

package transport

import (
	"fmt"
)

// ErrConnection returned when link establishment fails or the link is lost.
// It is fatal to the session, the caller has to reconnect.
type ErrConnection struct {
	Address string
	What    string
}

func (e ErrConnection) Error() string {
	return fmt.Sprintf("Connection error: address: %s: %s", e.Address, e.What)
}

// ErrTimeout returned when a read did not complete within the configured
// timeout. The call may be retried.
type ErrTimeout struct {
	Op string
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("Timeout while waiting for %s", e.Op)
}
