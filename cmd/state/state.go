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

package state

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openbiosig/go-bitalino/pkg/config"
	"github.com/openbiosig/go-bitalino/pkg/device"
	"github.com/openbiosig/go-bitalino/pkg/transport"
)

const (
	AddressOptionName = "address"
)

// NewCommand creates the state command which prints a device state
// snapshot. Requires BITalino 2.0+ firmware.
func NewCommand() *cobra.Command {
	var address string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Query the device state (battery, inputs). BITalino 2.0+ only",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.DeviceConfig.Address = address
			}
			session, err := device.Connect(cfg.DeviceConfig.Address, transport.Options{
				RfcommChannel: cfg.DeviceConfig.RfcommChannel,
				Baud:          cfg.DeviceConfig.Baud,
			})
			if err != nil {
				return err
			}
			defer session.Disconnect()

			state, err := session.State()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), state)
			fmt.Fprintf(cmd.OutOrStdout(), "BatteryVoltage: %.2fV (low: %t)\n", state.BatteryVoltage(), state.BatteryLow())
			return nil
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", "Device MAC address or serial path. E.g. 20:16:10:00:00:01 or /dev/rfcomm0")
	return cmd
}
