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

package acquire

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openbiosig/go-bitalino/pkg/config"
	"github.com/openbiosig/go-bitalino/pkg/device"
	"github.com/openbiosig/go-bitalino/pkg/transport"
)

const (
	AddressOptionName  = "address"
	RateOptionName     = "rate"
	ChannelsOptionName = "channels"
	CountOptionName    = "count"
	BatchesOptionName  = "batches"
)

// NewCommand creates the acquire command which starts an acquisition and
// prints the frames of each batch as CSV rows together with the batch
// integrity counters.
func NewCommand() *cobra.Command {
	var address string
	var rate, count, batches int
	var channels []int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Acquire frames from the device and print them as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.DeviceConfig.Address = address
			}
			if rate != 0 {
				cfg.AcquireConfig.Rate = rate
			}
			if len(channels) != 0 {
				cfg.AcquireConfig.Channels = channels
			}

			session, err := device.Connect(cfg.DeviceConfig.Address, transport.Options{
				RfcommChannel: cfg.DeviceConfig.RfcommChannel,
				Baud:          cfg.DeviceConfig.Baud,
			})
			if err != nil {
				return err
			}
			defer session.Disconnect()

			if err = session.Start(cfg.AcquireConfig.Rate, cfg.AcquireConfig.Channels); err != nil {
				return err
			}
			defer session.Stop()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "timestamp_us,seq,i1,i2,o1,o2,analog...")
			for i := 0; i < batches; i++ {
				batch, err := session.ReadTimed(count)
				if err != nil {
					return err
				}
				for j, frame := range batch.Frames {
					fmt.Fprintf(out, "%d,%d,%d,%d,%d,%d", batch.FrameTimestampUs(j, session.Rate()), frame.Seq,
						frame.Digital[0], frame.Digital[1], frame.Digital[2], frame.Digital[3])
					for _, a := range frame.Analog {
						fmt.Fprintf(out, ",%d", a)
					}
					fmt.Fprintln(out)
				}
				if batch.CRCErrors > 0 || batch.SequenceGaps > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "batch %d: crc_errors=%d sequence_gaps=%d\n",
						i, batch.CRCErrors, batch.SequenceGaps)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", "Device MAC address or serial path. E.g. 20:16:10:00:00:01 or /dev/rfcomm0")
	cmd.Flags().IntVar(&rate, RateOptionName, 0, "Sampling rate in Hz. One of 1, 10, 100, 1000")
	cmd.Flags().IntSliceVar(&channels, ChannelsOptionName, nil, "Analog channels to acquire. E.g. 0,1,2")
	cmd.Flags().IntVar(&count, CountOptionName, 100, "Frames per batch")
	cmd.Flags().IntVar(&batches, BatchesOptionName, 10, "Number of batches to read")
	return cmd
}
