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

package remote

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openbiosig/go-bitalino/pkg/config"
	"github.com/openbiosig/go-bitalino/pkg/srv"
)

const (
	RateOptionName     = "rate"
	ChannelsOptionName = "channels"
	CountOptionName    = "count"
)

// NewCommand creates the remote command group which drives a running
// daemon through its HTTP API.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Control a running daemon",
	}
	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newStateCommand())
	cmd.AddCommand(newDevicesCommand())
	cmd.AddCommand(newStartCommand())
	cmd.AddCommand(newReadCommand())
	cmd.AddCommand(newStopCommand())
	return cmd
}

func newClient() *srv.ApiClient {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return srv.NewApiClient(cfg)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Query the firmware version via the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := newClient().Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (bitalino2: %t)\n", version.Version, version.Bitalino2)
			return nil
		},
	}
}

func newStateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Query the device state via the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := newClient().State()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), state.DeviceState)
			fmt.Fprintf(cmd.OutOrStdout(), "BatteryVoltage: %.2fV (low: %t)\n", state.BatteryVoltage, state.BatteryLow)
			return nil
		},
	}
}

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices known to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := newClient().Devices()
			if err != nil {
				return err
			}
			for _, record := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tbitalino2: %t\tlast seen: %s\n",
					record.Address, record.Version, record.Bitalino2, record.LastSeen.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newStartCommand() *cobra.Command {
	var rate int
	var channels []int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start acquisition via the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().StartAcquisition(rate, channels)
		},
	}
	cmd.Flags().IntVar(&rate, RateOptionName, 1000, "Sampling rate in Hz. One of 1, 10, 100, 1000")
	cmd.Flags().IntSliceVar(&channels, ChannelsOptionName, []int{0, 1, 2, 3, 4, 5}, "Analog channels to acquire. E.g. 0,1,2")
	return cmd
}

func newReadCommand() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read one batch of frames via the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := newClient().ReadBatch(count)
			if err != nil {
				return err
			}
			for _, frame := range batch.Frames {
				fmt.Fprintf(cmd.OutOrStdout(), "%d,%v,%v\n", frame.Seq, frame.Digital, frame.Analog)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "timestamp_us=%d crc_errors=%d sequence_gaps=%d\n",
				batch.TimestampUs, batch.CRCErrors, batch.SequenceGaps)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, CountOptionName, 100, "Frames to read")
	return cmd
}

func newStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop acquisition via the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().StopAcquisition()
		},
	}
}
