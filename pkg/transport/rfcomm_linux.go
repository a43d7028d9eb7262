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
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/openbiosig/go-bitalino/pkg/log"
)

type rfcommTransport struct {
	fd      int
	address string
	timeout time.Duration
	closed  bool
}

// parseBdaddr converts a MAC string to the byte order expected by
// SockaddrRFCOMM, which stores the address reversed.
func parseBdaddr(mac string) ([6]byte, error) {
	var bdaddr [6]byte
	raw, err := hex.DecodeString(strings.ReplaceAll(mac, ":", ""))
	if err != nil || len(raw) != 6 {
		return bdaddr, ErrConnection{Address: mac, What: "invalid MAC address"}
	}
	for i := 0; i < 6; i++ {
		bdaddr[i] = raw[5-i]
	}
	return bdaddr, nil
}

func dialRfcomm(mac string, channel int, timeout time.Duration) (Transport, error) {
	bdaddr, err := parseBdaddr(mac)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, ErrConnection{Address: mac, What: err.Error()}
	}

	sa := &unix.SockaddrRFCOMM{Addr: bdaddr, Channel: uint8(channel)}
	log.Debug("Connecting RFCOMM socket: address: %s channel: %d", mac, channel)
	if err = unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, ErrConnection{Address: mac, What: err.Error()}
	}

	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, ErrConnection{Address: mac, What: err.Error()}
	}
	if err = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, ErrConnection{Address: mac, What: err.Error()}
	}

	log.Info("RFCOMM connection established: address: %s", mac)
	return &rfcommTransport{
		fd:      fd,
		address: mac,
		timeout: timeout,
	}, nil
}

func (t *rfcommTransport) Read(buf []byte) (int, error) {
	n, err := unix.Read(t.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ErrTimeout{Op: "rfcomm read"}
		}
		return 0, ErrConnection{Address: t.address, What: err.Error()}
	}
	return n, nil
}

func (t *rfcommTransport) ReadExact(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := t.Read(buf[total:])
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConnection{Address: t.address, What: "connection closed by peer"}
		}
		total += n
	}
	return nil
}

func (t *rfcommTransport) Write(data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(t.fd, data)
		if err != nil {
			return ErrConnection{Address: t.address, What: err.Error()}
		}
		data = data[n:]
	}
	return nil
}

// Flush drains whatever the device pushed since the last read. The socket
// keeps its receive timeout, so the drain is bounded per iteration.
func (t *rfcommTransport) Flush() error {
	buf := make([]byte, 256)
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if err := unix.SetNonblock(t.fd, true); err != nil {
			return ErrConnection{Address: t.address, What: err.Error()}
		}
		n, err := unix.Read(t.fd, buf)
		unix.SetNonblock(t.fd, false)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || n == 0 {
			break
		}
		if err != nil {
			return ErrConnection{Address: t.address, What: err.Error()}
		}
	}
	return nil
}

func (t *rfcommTransport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	log.Debug("Closing RFCOMM connection: address: %s", t.address)
	return unix.Close(t.fd)
}
