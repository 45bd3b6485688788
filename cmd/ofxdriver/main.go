// Command ofxdriver runs image effect plugins from JSON command scripts.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ofxdriver/ofxdriver/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
