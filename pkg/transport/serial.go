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
	"time"

	"go.bug.st/serial"

	"github.com/openbiosig/go-bitalino/pkg/log"
)

type serialTransport struct {
	port    serial.Port
	address string
	closed  bool
}

func dialSerial(path string, baud int, timeout time.Duration) (Transport, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	log.Debug("Opening serial port: path: %s baud: %d", path, baud)
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, ErrConnection{Address: path, What: err.Error()}
	}
	if err = port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, ErrConnection{Address: path, What: err.Error()}
	}
	log.Info("Serial connection established: path: %s", path)
	return &serialTransport{
		port:    port,
		address: path,
	}, nil
}

func (t *serialTransport) Read(buf []byte) (int, error) {
	n, err := t.port.Read(buf)
	if err != nil {
		return 0, ErrConnection{Address: t.address, What: err.Error()}
	}
	// go.bug.st/serial signals an expired read timeout with n == 0, nil
	if n == 0 {
		return 0, ErrTimeout{Op: "serial read"}
	}
	return n, nil
}

func (t *serialTransport) ReadExact(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := t.Read(buf[total:])
		if err != nil {
			return err
		}
		total += n
	}
	return nil
}

func (t *serialTransport) Write(data []byte) error {
	for len(data) > 0 {
		n, err := t.port.Write(data)
		if err != nil {
			return ErrConnection{Address: t.address, What: err.Error()}
		}
		data = data[n:]
	}
	return nil
}

func (t *serialTransport) Flush() error {
	if err := t.port.ResetInputBuffer(); err != nil {
		return ErrConnection{Address: t.address, What: err.Error()}
	}
	return nil
}

func (t *serialTransport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	log.Debug("Closing serial port: path: %s", t.address)
	return t.port.Close()
}
