package mrucli

import (
	"github.com/bitcoin-vm/mru/daemon"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/ordishs/gocore"
	"github.com/urfave/cli/v2"
)

func startCommand(progname, version, commit string) *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Run the sequencer, the asset API and, when bridge_enabled is set, the bridge",
		Action: func(c *cli.Context) error {
			tSettings := settings.NewSettings()

			logger := ulogger.New(progname, ulogger.WithLevel(tSettings.LogLevel), ulogger.WithPretty(tSettings.PrettyLogs))

			stats := gocore.Config().Stats()
			logger.Infof("STATS\n%s\nVERSION\n-------\n%s (%s)\n\n", stats, version, commit)

			d := daemon.New(
				daemon.WithContext(c.Context),
				daemon.WithSignalHandling(),
				daemon.WithLoggerFactory(func(serviceName string) ulogger.Logger {
					return ulogger.New(serviceName, ulogger.WithLevel(tSettings.LogLevel), ulogger.WithPretty(tSettings.PrettyLogs))
				}),
			)

			return d.Start(logger, tSettings)
		},
	}
}
