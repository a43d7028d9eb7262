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
	"io/ioutil"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type DeviceConfig struct {
	// Address is either a Bluetooth MAC (20:16:10:XX:XX:XX) or a serial
	// device path (/dev/rfcomm0, /dev/ttyUSB0).
	Address string `yaml:"address,omitempty"`
	// RfcommChannel is the RFCOMM channel used for MAC addresses.
	RfcommChannel int `yaml:"rfcomm_channel,omitempty"`
	// Baud is the serial baud rate used for device paths.
	Baud int `yaml:"baud,omitempty"`
}

type AcquireConfig struct {
	Rate     int   `yaml:"rate,omitempty"`
	Channels []int `yaml:"channels,omitempty"`
}

type ApiConfig struct {
	Address string `yaml:"address,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

type Config struct {
	LogLevel      string         `yaml:"log_level,omitempty"`
	DBPath        string         `yaml:"db_path,omitempty"`
	DeviceConfig  *DeviceConfig  `yaml:"device,omitempty"`
	AcquireConfig *AcquireConfig `yaml:"acquire,omitempty"`
	ApiConfig     *ApiConfig     `yaml:"api,omitempty"`
	filepath      string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

// Load reads the config file if it exists. A missing file leaves
// the defaults untouched.
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		DBPath:   DefaultDBPath(),
		DeviceConfig: &DeviceConfig{
			RfcommChannel: DefaultRfcommChannel,
			Baud:          DefaultBaudRate,
		},
		AcquireConfig: &AcquireConfig{
			Rate:     DefaultRate,
			Channels: []int{0, 1, 2, 3, 4, 5},
		},
		ApiConfig: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		filepath: DefaultConfigPath(),
	}
}
