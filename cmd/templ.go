package cmd

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`

const DESCRIPTION = `
parkdl collects attraction, dining and show listings for theme park
destinations. It drives a headless browser to obtain the session the
operator's private API requires, keeps that session fresh, and falls
back to a public API when the session is rejected.
`

const (
	AttractionsDescription = `The attractions command lists rides and experiences
for a destination, optionally narrowed to one park.

Example:
        parkdl attractions --destination wdw --park 80007944

`
	DiningDescription = `The dining command lists restaurants and quick service
locations for a destination.

Example:
        parkdl dining -d dlr --json

`
	ShowsDescription = `The shows command lists parades, fireworks and stage
shows for a destination.

Example:
        parkdl shows -d wdw

`
	StatusDescription = `The status command prints the session health of every
destination: whether a session exists, when it expires and how
many failures were reported since the last success.

Example:
        parkdl status

`
	RefreshDescription = `The refresh command launches the browser and establishes
a new session even if the current one is still valid.

Example:
        parkdl session refresh -d wdw

`
	ImportDescription = `The import command seeds a session from cookies exported
by a browser you are already signed in with. Netscape cookies.txt,
Chrome "Cookies" and Firefox "cookies.sqlite" files are detected
automatically.

Example:
        parkdl session import -d wdw --from ~/cookies.txt

`
	SyncDescription = `The sync command fetches attractions, dining and shows for
each selected destination and refreshes the local cache.

Example:
        parkdl sync
        parkdl sync -d wdw --no-cache

`
	KeepaliveDescription = `The keepalive command stays in the foreground and refreshes
each destination's session on a cron schedule so fetches rarely
wait for a browser. Stop it with Ctrl+C.

Example:
        parkdl keepalive --cron "*/30 * * * *"

`
)
