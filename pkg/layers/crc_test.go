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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrc4KnownValues(t *testing.T) {
	assert.Equal(t, uint8(0x0), Crc4(nil))
	assert.Equal(t, uint8(0x0), Crc4([]byte{0x00}))
	assert.Equal(t, uint8(0x1), Crc4([]byte{0x01}))
	assert.Equal(t, uint8(0xB), Crc4([]byte{0x80}))
	assert.Equal(t, uint8(0x0), Crc4([]byte{0x00, 0x00, 0x00}))
}

func TestCrc4SingleBitSensitivity(t *testing.T) {
	record := []byte{0x12, 0x34, 0x56, 0x70}
	clean := Crc4(record)
	for i := range record {
		for bit := uint(0); bit < 8; bit++ {
			flipped := make([]byte, len(record))
			copy(flipped, record)
			flipped[i] ^= 1 << bit
			require.NotEqual(t, clean, Crc4(flipped),
				"flipping byte %d bit %d must change the CRC", i, bit)
		}
	}
}

func TestCrc4Check(t *testing.T) {
	record := []byte{0x12, 0x34, 0x50}
	record[len(record)-1] |= Crc4(record)
	require.True(t, Crc4Check(record))

	record[0] ^= 0x40
	require.False(t, Crc4Check(record))

	require.False(t, Crc4Check(nil))
}
