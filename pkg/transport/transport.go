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
	"regexp"
	"time"

	"github.com/openbiosig/go-bitalino/pkg/config"
)

const (
	DefaultIOTimeout = 5 * time.Second
)

// Transport is a reliable ordered byte stream to a BITalino device.
// Implementations are an RFCOMM socket and a serial port, selected by
// the address shape at dial time.
//
// ReadExact fills buf completely or fails. On timeout the partially read
// bytes are dropped, so every subsequent read starts byte-aligned.
// Close is idempotent.
type Transport interface {
	ReadExact(buf []byte) error
	Read(buf []byte) (int, error)
	Write(data []byte) error
	Flush() error
	Close() error
}

// Options carries link parameters that are not part of the address.
type Options struct {
	RfcommChannel int
	Baud          int
	IOTimeout     time.Duration
}

func DefaultOptions() Options {
	return Options{
		RfcommChannel: config.DefaultRfcommChannel,
		Baud:          config.DefaultBaudRate,
		IOTimeout:     DefaultIOTimeout,
	}
}

var macRe = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// IsMAC reports whether the address looks like a Bluetooth MAC address.
// Anything else is treated as a serial device path.
func IsMAC(address string) bool {
	return macRe.MatchString(address)
}

// Dial opens a transport to the given address. MAC addresses are dialed
// over RFCOMM, device paths are opened as serial ports. Pairing must have
// happened before; Dial performs no retries.
func Dial(address string, opts Options) (Transport, error) {
	if opts.IOTimeout <= 0 {
		opts.IOTimeout = DefaultIOTimeout
	}
	if opts.RfcommChannel <= 0 {
		opts.RfcommChannel = config.DefaultRfcommChannel
	}
	if opts.Baud <= 0 {
		opts.Baud = config.DefaultBaudRate
	}
	if IsMAC(address) {
		return dialRfcomm(address, opts.RfcommChannel, opts.IOTimeout)
	}
	return dialSerial(address, opts.Baud, opts.IOTimeout)
}
