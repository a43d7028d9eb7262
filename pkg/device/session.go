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
	"time"

	"github.com/google/gopacket"
	"github.com/openbiosig/go-bitalino/pkg/command"
	"github.com/openbiosig/go-bitalino/pkg/layers"
	"github.com/openbiosig/go-bitalino/pkg/log"
	"github.com/openbiosig/go-bitalino/pkg/transport"
)

const (
	// CommandDelay gives the device time to process a command byte
	CommandDelay = 50 * time.Millisecond
	// StopDelay is how long the device needs after a stop before it
	// accepts new commands
	StopDelay = 200 * time.Millisecond
	// VersionTimeout bounds the wait for the version string
	VersionTimeout = 2 * time.Second
	// VersionMaxLen is a sanity cap on the version response
	VersionMaxLen = 64
)

type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnected
	StateConfigured
	StateAcquiring
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateConfigured:
		return "configured"
	case StateAcquiring:
		return "acquiring"
	}
	return "unknown"
}

// Session is the stateful driver facade over one transport connection:
// connect, configure, start, read, stop, disconnect.
//
// A session is exclusively owned by one caller at a time. State transitions
// are driven by the single owning goroutine; callers exposing a session to
// multiple goroutines must wrap every call with exclusive access.
type Session struct {
	transport transport.Transport
	address   string
	state     SessionState

	rate     int
	channels []int
	decoder  *StreamDecoder
	clock    *acquisitionClock

	version   string
	bitalino2 bool
	probed    bool

	registry *Registry

	commandDelay   time.Duration
	stopDelay      time.Duration
	versionTimeout time.Duration
}

// Connect dials the device address and returns a connected session.
// It performs no retries; reconnect policy belongs to the caller.
func Connect(address string, opts transport.Options) (*Session, error) {
	t, err := transport.Dial(address, opts)
	if err != nil {
		return nil, err
	}
	return NewSession(t, address), nil
}

// NewSession wraps an already-open transport. Used by Connect and by
// callers supplying their own transport implementation.
func NewSession(t transport.Transport, address string) *Session {
	return &Session{
		transport:    t,
		address:      address,
		state:        StateConnected,
		commandDelay:   CommandDelay,
		stopDelay:      StopDelay,
		versionTimeout: VersionTimeout,
	}
}

// WithRegistry attaches a device registry; successful version probes are
// recorded there.
func (s *Session) WithRegistry(r *Registry) *Session {
	s.registry = r
	return s
}

// SessionState returns the current position in the session state machine.
func (s *Session) SessionState() SessionState {
	return s.state
}

func (s *Session) Address() string {
	return s.address
}

// ActiveChannels returns the channel set of the running acquisition,
// undefined (nil) before the first start.
func (s *Session) ActiveChannels() []int {
	return s.channels
}

// Rate returns the sampling rate of the running acquisition, undefined (0)
// before the first start.
func (s *Session) Rate() int {
	return s.rate
}

func (s *Session) sendCommand(cmd []byte) error {
	if err := s.transport.Write(cmd); err != nil {
		return err
	}
	time.Sleep(s.commandDelay)
	return nil
}

// Version queries the firmware version string. The device is brought back
// to idle first, so this is only valid outside of acquisition. The result
// is not cached, but the derived 2.0+ capability flag is retained for
// gating the optional commands.
func (s *Session) Version() (string, error) {
	if s.state == StateDisconnected || s.state == StateAcquiring {
		return "", ErrInvalidState{Op: "version", State: s.state}
	}

	// Make sure the device is idle and the input buffer holds no stale
	// bytes before probing.
	if err := s.sendCommand(command.EncodeStop()); err != nil {
		return "", err
	}
	time.Sleep(s.stopDelay)
	if err := s.transport.Flush(); err != nil {
		return "", err
	}

	if err := s.transport.Write(command.EncodeVersionQuery()); err != nil {
		return "", err
	}

	raw, err := s.readVersionResponse()
	if err != nil {
		return "", err
	}
	version, err := command.DecodeVersion(raw)
	if err != nil {
		return "", err
	}

	s.version = version
	s.bitalino2 = command.IsBitalino2(version)
	s.probed = true
	log.Debug("Device version: %s (bitalino2: %t)", version, s.bitalino2)

	if s.registry != nil {
		if err := s.registry.Put(&DeviceRecord{
			Address:   s.address,
			Version:   version,
			Bitalino2: s.bitalino2,
			LastSeen:  time.Now(),
		}); err != nil {
			log.Warning("Failed to record device %s in registry: %s", s.address, err)
		}
	}

	return version, nil
}

// readVersionResponse collects bytes until a delimiter terminates a
// non-empty response, the sanity cap is hit, or the deadline passes.
func (s *Session) readVersionResponse() ([]byte, error) {
	var raw []byte
	deadline := time.Now().Add(s.versionTimeout)
	buf := make([]byte, 1)
	for {
		n, err := s.transport.Read(buf)
		if err != nil {
			if _, ok := err.(transport.ErrTimeout); ok {
				if len(raw) > 0 {
					return raw, nil
				}
				if time.Now().After(deadline) {
					return nil, err
				}
				continue
			}
			return nil, err
		}
		if n > 0 {
			b := buf[0]
			if b == '\n' || b == '\r' || b == 0 {
				if len(raw) > 0 {
					return append(raw, b), nil
				}
				// skip leading delimiters
			} else {
				raw = append(raw, b)
				if len(raw) >= VersionMaxLen {
					return raw, nil
				}
			}
		}
		if time.Now().After(deadline) {
			if len(raw) > 0 {
				return raw, nil
			}
			return nil, transport.ErrTimeout{Op: "version response"}
		}
	}
}

// IsBitalino2 reports whether the connected firmware has the 2.0+ feature
// set, probing the version first when no probe happened yet.
func (s *Session) IsBitalino2() (bool, error) {
	if !s.probed {
		if _, err := s.Version(); err != nil {
			return false, err
		}
	}
	return s.bitalino2, nil
}

// Start validates the acquisition parameters and puts the device in live
// mode. Validation failures reject the call before any bytes are sent.
// The sampling rate is fixed until the next stop.
func (s *Session) Start(rate int, channels []int) error {
	switch s.state {
	case StateDisconnected, StateAcquiring:
		return ErrInvalidState{Op: "start", State: s.state}
	}

	cmds, err := command.EncodeStart(rate, channels)
	if err != nil {
		return err
	}
	valid, err := command.ValidateChannels(channels)
	if err != nil {
		return err
	}

	// Bring the device back to idle before reconfiguring.
	if err = s.sendCommand(command.EncodeStop()); err != nil {
		return err
	}
	if err = s.transport.Flush(); err != nil {
		return err
	}

	for _, cmd := range cmds {
		if err = s.sendCommand([]byte{cmd}); err != nil {
			return err
		}
	}

	decoder, err := NewStreamDecoder(len(valid))
	if err != nil {
		return err
	}

	s.rate = rate
	s.channels = valid
	s.decoder = decoder
	s.clock = newAcquisitionClock()
	s.state = StateAcquiring
	log.Debug("Started acquisition: rate: %dHz channels: %v frame width: %d", rate, valid, decoder.Width())
	return nil
}

// Read pulls CRC-valid frames from the stream until count frames are
// accepted or the transport read times out. Corrupted frames are consumed
// silently and do not count.
func (s *Session) Read(count int) ([]Frame, error) {
	batch, err := s.ReadTimed(count)
	if err != nil {
		return nil, err
	}
	return batch.Frames, nil
}

// ReadTimed is Read plus the batch timestamp and the integrity counters
// scoped to this call. See FrameBatch for the timestamp anchoring contract.
func (s *Session) ReadTimed(count int) (*FrameBatch, error) {
	if s.state != StateAcquiring {
		return nil, ErrInvalidState{Op: "read", State: s.state}
	}

	frames := make([]Frame, 0, count)
	buf := make([]byte, s.decoder.Width())
	for len(frames) < count {
		frame, err := s.decoder.Next()
		if err == nil {
			frames = append(frames, *frame)
			continue
		}
		if _, ok := err.(ErrNeedMoreData); !ok {
			return nil, err
		}
		if err = s.transport.ReadExact(buf); err != nil {
			// Batch counters survive for the retry; partial reads
			// were dropped by the transport so the stream stays
			// frame-aligned.
			return nil, err
		}
		s.decoder.Feed(buf)
	}

	timestamp := s.clock.ElapsedUs()
	crcErrors, sequenceGaps := s.decoder.TakeCounters()
	if crcErrors > 0 {
		log.Warning("CRC errors in batch: %d", crcErrors)
	}
	if sequenceGaps > 0 {
		log.Warning("Sequence gaps in batch: %d", sequenceGaps)
	}
	return stampBatch(frames, timestamp, crcErrors, sequenceGaps), nil
}

// Stop takes the device out of live mode. The stop command is attempted
// even on a degraded transport; a failed send is logged, not raised, since
// the session is already stopped locally. Stopping an already-stopped
// session has no effect.
func (s *Session) Stop() error {
	if s.state == StateDisconnected {
		return ErrInvalidState{Op: "stop", State: s.state}
	}

	wasAcquiring := s.state == StateAcquiring
	s.state = StateConfigured
	s.decoder = nil

	if err := s.sendCommand(command.EncodeStop()); err != nil {
		log.Warning("Failed to send stop command: %s", err)
		return nil
	}
	if wasAcquiring {
		time.Sleep(s.stopDelay)
		if err := s.transport.Flush(); err != nil {
			log.Warning("Failed to drain transport after stop: %s", err)
		}
	}
	return nil
}

// State reads a device state snapshot (BITalino 2.0+ only). The capability
// flag is checked first; an unsupported device fails without a state-query
// command being issued.
func (s *Session) State() (*DeviceState, error) {
	if s.state == StateDisconnected || s.state == StateAcquiring {
		return nil, ErrInvalidState{Op: "state", State: s.state}
	}

	bitalino2, err := s.IsBitalino2()
	if err != nil {
		return nil, err
	}
	if !bitalino2 {
		return nil, ErrUnsupportedOperation{Op: "state", Version: s.version}
	}

	if err = s.transport.Flush(); err != nil {
		return nil, err
	}
	if err = s.sendCommand(command.EncodeStateQuery()); err != nil {
		return nil, err
	}

	raw := make([]byte, layers.StateRecordSize)
	if err = s.transport.ReadExact(raw); err != nil {
		return nil, err
	}
	if err = s.transport.Flush(); err != nil {
		return nil, err
	}

	sl := &layers.StateLayer{}
	if err = sl.DecodeFromBytes(raw, gopacket.NilDecodeFeedback); err != nil {
		return nil, command.ErrProtocol{What: err.Error()}
	}

	state := &DeviceState{
		Analog:           sl.Analog,
		Battery:          sl.Battery,
		BatteryThreshold: sl.BatteryThreshold,
		Digital:          sl.Digital,
	}
	log.Debug("Device state: %s", state)
	return state, nil
}

// SetBatteryThreshold configures the low-battery LED threshold (0 is 3.4V,
// 63 is 3.8V). Not valid while acquiring.
func (s *Session) SetBatteryThreshold(threshold int) error {
	if s.state == StateDisconnected || s.state == StateAcquiring {
		return ErrInvalidState{Op: "battery threshold", State: s.state}
	}
	cmd, err := command.EncodeBatteryThreshold(threshold)
	if err != nil {
		return err
	}
	return s.sendCommand(cmd)
}

// Trigger drives the digital outputs. BITalino 2.0 accepts two outputs in
// any state; legacy firmware accepts four and only while acquiring.
func (s *Session) Trigger(outputs []uint8) error {
	if s.state == StateDisconnected {
		return ErrInvalidState{Op: "trigger", State: s.state}
	}
	bitalino2, err := s.IsBitalino2()
	if err != nil && s.state != StateAcquiring {
		return err
	}
	if !bitalino2 && s.state != StateAcquiring {
		return ErrInvalidState{Op: "trigger", State: s.state}
	}
	return s.sendCommand(command.EncodeTrigger(outputs, bitalino2))
}

// PWM sets the PWM output duty cycle (BITalino 2.0+ only).
func (s *Session) PWM(value uint8) error {
	if s.state == StateDisconnected || s.state == StateAcquiring {
		return ErrInvalidState{Op: "pwm", State: s.state}
	}
	bitalino2, err := s.IsBitalino2()
	if err != nil {
		return err
	}
	if !bitalino2 {
		return ErrUnsupportedOperation{Op: "pwm", Version: s.version}
	}
	cmd := command.EncodePWM(value)
	if err = s.sendCommand(cmd[:1]); err != nil {
		return err
	}
	return s.sendCommand(cmd[1:])
}

// Disconnect stops a running acquisition best-effort and closes the
// transport. Idempotent.
func (s *Session) Disconnect() error {
	if s.state == StateDisconnected {
		return nil
	}
	if s.state == StateAcquiring {
		if err := s.Stop(); err != nil {
			log.Warning("Failed to stop acquisition on disconnect: %s", err)
		}
	}
	s.state = StateDisconnected
	s.decoder = nil
	log.Info("Disconnecting from %s", s.address)
	return s.transport.Close()
}
