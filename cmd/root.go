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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/openbiosig/go-bitalino/cmd/acquire"
	"github.com/openbiosig/go-bitalino/cmd/completion"
	cmdconfig "github.com/openbiosig/go-bitalino/cmd/config"
	"github.com/openbiosig/go-bitalino/cmd/daemon"
	"github.com/openbiosig/go-bitalino/cmd/remote"
	"github.com/openbiosig/go-bitalino/cmd/state"
	"github.com/openbiosig/go-bitalino/cmd/version"
	pkgconfig "github.com/openbiosig/go-bitalino/pkg/config"
	"github.com/openbiosig/go-bitalino/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "go-bitalino",
		Short: "Tool to work with BITalino biosignal acquisition devices",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(cmdconfig.NewCommand())
	cmd.AddCommand(version.NewCommand())
	cmd.AddCommand(state.NewCommand())
	cmd.AddCommand(acquire.NewCommand())
	cmd.AddCommand(daemon.NewCommand())
	cmd.AddCommand(remote.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
