package mrucli

import (
	"fmt"

	"github.com/ordishs/gocore"
	"github.com/urfave/cli/v2"
)

func settingsCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Print the resolved settings",
		Action: func(c *cli.Context) error {
			stats := gocore.Config().Stats()
			_, err := fmt.Fprintf(c.App.Writer, "STATS\n%s\nVERSION\n-------\n%s (%s)\n\n", stats, version, commit)

			return err
		},
	}
}
