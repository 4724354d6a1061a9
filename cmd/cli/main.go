// walog - Web Adaptor log converter
//
// walog reassembles multi-line Web Adaptor log records and writes one row per
// record, with status codes and target URL parts extracted from the message.
package main

import (
	"os"

	"github.com/ccollicutt/walog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
