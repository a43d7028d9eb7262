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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBdaddr(t *testing.T) {
	// the socket address stores the bytes reversed
	bdaddr, err := parseBdaddr("20:16:10:00:12:34")
	require.NoError(t, err)
	assert.Equal(t, [6]byte{0x34, 0x12, 0x00, 0x10, 0x16, 0x20}, bdaddr)
}

func TestParseBdaddrInvalid(t *testing.T) {
	for _, mac := range []string{"", "20:16:10", "20:16:10:00:12:GG"} {
		_, err := parseBdaddr(mac)
		require.IsType(t, ErrConnection{}, err, "mac %q", mac)
	}
}
