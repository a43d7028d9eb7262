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

package daemon

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openbiosig/go-bitalino/pkg/config"
	"github.com/openbiosig/go-bitalino/pkg/srv"
)

const (
	AddressOptionName    = "address"
	ApiAddressOptionName = "api-address"
	ApiPortOptionName    = "api-port"
)

// NewCommand creates the daemon command which connects to one device and
// serves the HTTP control API for it.
func NewCommand() *cobra.Command {
	var address, apiAddress string
	var apiPort int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Start the device control API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.DeviceConfig.Address = address
			}
			if apiAddress != "" {
				cfg.ApiConfig.Address = apiAddress
			}
			if apiPort != 0 {
				cfg.ApiConfig.Port = apiPort
			}
			server, err := srv.NewApiServer(cfg)
			if err != nil {
				return err
			}
			return server.Run()
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", "Device MAC address or serial path. E.g. 20:16:10:00:00:01 or /dev/rfcomm0")
	cmd.Flags().StringVar(&apiAddress, ApiAddressOptionName, "", fmt.Sprintf("API address to bind. E.g. %s", config.DefaultApiAddress))
	cmd.Flags().IntVar(&apiPort, ApiPortOptionName, 0, fmt.Sprintf("API port number to bind. E.g. %d", config.DefaultApiPort))
	return cmd
}
