// Command cli performs an interactive device-code login and prints the
// resulting profile. Run it with a client id, e.g.:
//
//	go run ./example/cli -c my-client-id -r CN
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	"golang.org/x/oauth2"

	"github.com/tapsdk/taplogin"
)

func main() {
	config := &taplogin.Config{}
	if _, err := flags.ParseArgs(config, os.Args[1:]); err != nil {
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := taplogin.NewClient(ctx, config,
		taplogin.WithDeviceAuthHandler(func(auth *oauth2.DeviceAuthResponse) {
			fmt.Printf("Open %v and enter code %v\n", auth.VerificationURI, auth.UserCode)
		}))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer client.Close()

	if current := client.CurrentAccount(); current != nil {
		fmt.Printf("already logged in as %v (%v)\n", current.Name, current.OpenID)
		return
	}
	current, err := client.Login(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("logged in as %v (%v)\n", current.Name, current.OpenID)
}
