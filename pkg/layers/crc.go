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

// Crc4 computes the BITalino 4-bit CRC (polynomial x^4 + x + 1) over data.
// The device stores it in the low nibble of the last byte of each record,
// which must be zeroed before computing.
func Crc4(data []byte) uint8 {
	var x uint8
	for _, b := range data {
		for bit := 7; bit >= 0; bit-- {
			x <<= 1
			if x&0x10 != 0 {
				x ^= 0x03
			}
			x ^= (b >> uint(bit)) & 0x01
		}
	}
	return x & 0x0F
}

// Crc4Check verifies the CRC nibble stored in the low nibble of the last
// byte of record.
func Crc4Check(record []byte) bool {
	if len(record) == 0 {
		return false
	}
	received := record[len(record)-1] & 0x0F
	masked := make([]byte, len(record))
	copy(masked, record)
	masked[len(masked)-1] &= 0xF0
	return received == Crc4(masked)
}
