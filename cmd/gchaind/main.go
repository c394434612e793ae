// Command gchaind is the GChain node entrypoint: it builds a zap logger and
// hands off to cli.CommandLine.Run, per spec.md section 10.
package main

import (
	"github.com/DrGregDoyle/GChain/cli"
)

func main() {
	commandLine, err := cli.New()
	if err != nil {
		panic(err)
	}
	defer commandLine.Logger.Sync()

	commandLine.Run()
}
