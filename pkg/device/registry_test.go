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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := OpenRegistry(filepath.Join(t.TempDir(), "devices.db"))
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestRegistryPutGet(t *testing.T) {
	r := openTestRegistry(t)

	record := &DeviceRecord{
		Address:   "00:11:22:33:44:55",
		Version:   "BITalino_v5.2",
		Bitalino2: true,
		LastSeen:  time.Now().Truncate(time.Second),
	}
	require.NoError(t, r.Put(record))

	got, err := r.Get(record.Address)
	require.NoError(t, err)
	assert.Equal(t, record.Address, got.Address)
	assert.Equal(t, record.Version, got.Version)
	assert.True(t, got.Bitalino2)
	assert.True(t, record.LastSeen.Equal(got.LastSeen))

	_, err = r.Get("aa:bb:cc:dd:ee:ff")
	require.Error(t, err)
}

func TestRegistryList(t *testing.T) {
	r := openTestRegistry(t)

	records, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, r.Put(&DeviceRecord{Address: "00:11:22:33:44:55", Version: "BITalino_v5.2", Bitalino2: true}))
	require.NoError(t, r.Put(&DeviceRecord{Address: "/dev/ttyUSB0", Version: "BITalino_v4.1"}))
	// a re-probe overwrites, it does not duplicate
	require.NoError(t, r.Put(&DeviceRecord{Address: "00:11:22:33:44:55", Version: "BITalino_v5.2", Bitalino2: true}))

	records, err = r.List()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSessionVersionRecordsDevice(t *testing.T) {
	r := openTestRegistry(t)

	st := &scriptedTransport{}
	answerVersion(st, "BITalino_v5.2")
	s := newTestSession(st).WithRegistry(r)

	_, err := s.Version()
	require.NoError(t, err)

	got, err := r.Get(s.Address())
	require.NoError(t, err)
	assert.Equal(t, "BITalino_v5.2", got.Version)
	assert.True(t, got.Bitalino2)
}
