package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Host    HostCmd          `cmd:"" help:"Create a room and host it"`
	Join    JoinCmd          `cmd:"" help:"Join an existing room by code"`
}

func main() {
	// Missing .env is fine, the flags have env fallbacks
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("trinque"),
		kong.Description("Blackjack drinking game over a shared Redis"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
