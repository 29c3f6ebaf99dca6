// Package cmd is the parkdl command line. Each command builds what it needs
// through newApp, the composition root, and closes it before returning.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/warpdl/parkdl/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "parkdl",
		HelpName:              "parkdl",
		Usage:                 "Theme park catalog acquisition with resilient browser sessions.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "parkdl <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			listCommand("attractions", "a", AttractionsDescription),
			listCommand("dining", "d", DiningDescription),
			listCommand("shows", "s", ShowsDescription),
			{
				Name:               "status",
				Usage:              "show session health per destination",
				Description:        StatusDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             status,
				Flags:              statusFlags,
			},
			{
				Name:  "session",
				Usage: "manage browser sessions",
				Subcommands: []cli.Command{
					{
						Name:               "refresh",
						Usage:              "establish a fresh session now",
						Description:        RefreshDescription,
						CustomHelpTemplate: CMD_HELP_TEMPL,
						OnUsageError:       common.UsageErrorCallback,
						Action:             sessionRefresh,
						Flags:              refreshFlags,
					},
					{
						Name:               "import",
						Usage:              "seed a session from a browser's cookie store",
						Description:        ImportDescription,
						CustomHelpTemplate: CMD_HELP_TEMPL,
						OnUsageError:       common.UsageErrorCallback,
						Action:             sessionImport,
						Flags:              importFlags,
					},
				},
			},
			{
				Name:               "sync",
				Usage:              "fetch every entity type for each destination",
				Description:        SyncDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             syncAll,
				Flags:              syncFlags,
			},
			{
				Name:               "keepalive",
				Usage:              "refresh sessions on a cron schedule",
				Description:        KeepaliveDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             keepalive,
				Flags:              keepaliveFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of parkdl",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
