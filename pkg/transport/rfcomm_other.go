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

//go:build !linux

package transport

import (
	"time"
)

// RFCOMM sockets are only available through BlueZ. On other systems bind
// the device to a serial path first (e.g. rfcomm bind) and dial that path.
func dialRfcomm(mac string, channel int, timeout time.Duration) (Transport, error) {
	return nil, ErrConnection{Address: mac, What: "RFCOMM sockets are only supported on linux, use a serial path instead"}
}
