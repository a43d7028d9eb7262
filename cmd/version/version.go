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

package version

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

func NewCommand() *cobra.Command {
	var address string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Query the device firmware version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.DeviceConfig.Address = address
			}
			registry, err := device.OpenRegistry(cfg.DBPath)
			if err != nil {
				return err
			}
			defer registry.Close()

			session, err := device.Connect(cfg.DeviceConfig.Address, transport.Options{
				RfcommChannel: cfg.DeviceConfig.RfcommChannel,
				Baud:          cfg.DeviceConfig.Baud,
			})
			if err != nil {
				return err
			}
			defer session.Disconnect()

			version, err := session.WithRegistry(registry).Version()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", "Device MAC address or serial path. E.g. 20:16:10:00:00:01 or /dev/rfcomm0")
	return cmd
}
