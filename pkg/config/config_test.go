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

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	c := NewDefaultConfig()
	c.filepath = filepath.Join(t.TempDir(), ConfigFile)

	require.NoError(t, c.Load())
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, DefaultRate, c.AcquireConfig.Rate)
	assert.Equal(t, DefaultRfcommChannel, c.DeviceConfig.RfcommChannel)
}

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)

	c := NewDefaultConfig()
	c.filepath = path
	c.LogLevel = "debug"
	c.DeviceConfig.Address = "20:16:10:00:12:34"
	c.AcquireConfig.Rate = 100
	c.AcquireConfig.Channels = []int{0, 3}
	require.NoError(t, c.Persist(false))

	loaded := NewDefaultConfig()
	loaded.filepath = path
	require.NoError(t, loaded.Load())
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, "20:16:10:00:12:34", loaded.DeviceConfig.Address)
	assert.Equal(t, 100, loaded.AcquireConfig.Rate)
	assert.Equal(t, []int{0, 3}, loaded.AcquireConfig.Channels)
}

func TestPersistRefusesToOverwrite(t *testing.T) {
	c := NewDefaultConfig()
	c.filepath = filepath.Join(t.TempDir(), ConfigFile)

	require.NoError(t, c.Persist(false))
	err := c.Persist(false)
	require.IsType(t, ErrConfigFileExists{}, err)
	require.NoError(t, c.Persist(true))
}
