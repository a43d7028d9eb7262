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

package srv

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbiosig/go-bitalino/pkg/command"
	"github.com/openbiosig/go-bitalino/pkg/config"
	"github.com/openbiosig/go-bitalino/pkg/device"
	"github.com/openbiosig/go-bitalino/pkg/layers"
	"github.com/openbiosig/go-bitalino/pkg/transport"
)

// fakeTransport plays the device side of the link for handler tests.
type fakeTransport struct {
	in      bytes.Buffer
	onWrite func(cmd byte)
}

func (f *fakeTransport) push(data []byte) {
	f.in.Write(data)
}

func (f *fakeTransport) ReadExact(buf []byte) error {
	if f.in.Len() < len(buf) {
		f.in.Reset()
		return transport.ErrTimeout{Op: "read"}
	}
	_, err := io.ReadFull(&f.in, buf)
	return err
}

func (f *fakeTransport) Read(buf []byte) (int, error) {
	if f.in.Len() == 0 {
		return 0, transport.ErrTimeout{Op: "read"}
	}
	return f.in.Read(buf)
}

func (f *fakeTransport) Write(data []byte) error {
	if f.onWrite != nil {
		for _, cmd := range data {
			f.onWrite(cmd)
		}
	}
	return nil
}

func (f *fakeTransport) Flush() error {
	f.in.Reset()
	return nil
}

func (f *fakeTransport) Close() error {
	return nil
}

func newTestServer(t *testing.T, ft *fakeTransport) *ApiServer {
	t.Helper()
	registry, err := device.OpenRegistry(filepath.Join(t.TempDir(), "devices.db"))
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	s := &ApiServer{
		Config:   config.NewDefaultConfig(),
		registry: registry,
		session:  device.NewSession(ft, "00:11:22:33:44:55").WithRegistry(registry),
	}
	s.configureRouter()
	return s
}

func doRequest(s *ApiServer, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func pushFrames(t *testing.T, ft *fakeTransport, channelCount, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		f := &layers.FrameLayer{
			ChannelCount: channelCount,
			Seq:          uint8(i % layers.SeqModulo),
			Analog:       make([]uint16, channelCount),
		}
		buf := gopacket.NewSerializeBuffer()
		require.NoError(t, f.SerializeTo(buf, gopacket.SerializeOptions{}))
		ft.push(buf.Bytes())
	}
}

func TestApiVersion(t *testing.T) {
	ft := &fakeTransport{}
	ft.onWrite = func(cmd byte) {
		if cmd == command.CmdVersion {
			ft.push([]byte("BITalino_v5.2\n"))
		}
	}
	s := newTestServer(t, ft)

	w := doRequest(s, "GET", "/api/version", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp VersionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BITalino_v5.2", resp.Version)
	assert.True(t, resp.Bitalino2)

	// the probe recorded the device
	w = doRequest(s, "GET", "/api/devices", "")
	require.Equal(t, http.StatusOK, w.Code)
	var records []*device.DeviceRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "00:11:22:33:44:55", records[0].Address)
}

func TestApiStateUnsupported(t *testing.T) {
	ft := &fakeTransport{}
	ft.onWrite = func(cmd byte) {
		if cmd == command.CmdVersion {
			ft.push([]byte("BITalino_v4.1\n"))
		}
	}
	s := newTestServer(t, ft)

	w := doRequest(s, "GET", "/api/state", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestApiStartValidation(t *testing.T) {
	s := newTestServer(t, &fakeTransport{})

	w := doRequest(s, "POST", "/api/acquire/start", `{"Rate":7,"Channels":[0]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, "POST", "/api/acquire/start", `{"Rate":1000,"Channels":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, "POST", "/api/acquire/start", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApiAcquireCycle(t *testing.T) {
	ft := &fakeTransport{}
	s := newTestServer(t, ft)

	w := doRequest(s, "POST", "/api/acquire/start", `{"Rate":1000,"Channels":[0,1]}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	// starting twice conflicts with the session state
	w = doRequest(s, "POST", "/api/acquire/start", `{"Rate":1000,"Channels":[0,1]}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	pushFrames(t, ft, 2, 5)
	w = doRequest(s, "GET", "/api/acquire/read/5", "")
	require.Equal(t, http.StatusOK, w.Code)

	var batch device.FrameBatch
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	require.Len(t, batch.Frames, 5)
	assert.Equal(t, 0, batch.CRCErrors)
	assert.Equal(t, 0, batch.SequenceGaps)
	for _, frame := range batch.Frames {
		assert.Len(t, frame.Analog, 2)
	}

	w = doRequest(s, "POST", "/api/acquire/stop", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(s, "GET", "/api/acquire/read/1", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestApiReadTimeout(t *testing.T) {
	ft := &fakeTransport{}
	s := newTestServer(t, ft)

	w := doRequest(s, "POST", "/api/acquire/start", `{"Rate":1000,"Channels":[0]}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(s, "GET", "/api/acquire/read/1", "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestApiReadCountBounds(t *testing.T) {
	s := newTestServer(t, &fakeTransport{})

	w := doRequest(s, "GET", "/api/acquire/read/0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, "GET", "/api/acquire/read/10001", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
