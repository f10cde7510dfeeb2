package main

import (
	"os"

	"github.com/deeperscribe/deeperscribe/cmd"
	"github.com/deeperscribe/deeperscribe/internal/conf"
)

func main() {
	settings := conf.Setting()
	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
