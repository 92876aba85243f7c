package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/missionfeed/internal/cliconfig"
	"github.com/bft-labs/missionfeed/pkg/log"
)

const helpDescription = `
Follow mission changes from the mission service in real time.

Highlights:
  - Keeps a single event stream open and reconnects on its own after drops.
  - Prints every created, updated and deleted mission as JSON or text lines.
  - Follows a token file: logging out stops the stream, logging in resumes it.
  - Configure via file, env (MISSIONFEED_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  missionfeed watch --auth-token <token>
  missionfeed watch --token-file ~/.missionfeed/token --output text
  missionfeed watch --config $HOME/.missionfeed/config.toml --metrics-addr :9100
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	root := &cobra.Command{
		Use:           "missionfeed",
		Short:         "Follow mission changes in real time",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newWatchCommand())

	if err := root.Execute(); err != nil {
		logger := log.NewZerologAdapter(log.Options{Level: cliconfig.DefaultConfig().LogLevel})
		logger.Error("missionfeed", log.Err(err))
		os.Exit(1)
	}
}
