// Package auth implements the `auth` CLI subcommands: print the Google
// authorization URL and exchange a returned code for a stored token.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/qnz18/qzwhatnext/adapter/cli"
	"github.com/spf13/cobra"
)

// Cmd is the `auth` command group.
var Cmd = &cobra.Command{
	Use:   "auth",
	Short: "Connect and inspect the Google Calendar authorization",
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Print the Google authorization URL to visit",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cli.Container()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		if c.OAuthService == nil {
			return fmt.Errorf("google oauth is not configured")
		}

		state, err := randomState()
		if err != nil {
			return err
		}
		fmt.Println(c.OAuthService.AuthURL(state))
		return nil
	},
}

var exchangeCmd = &cobra.Command{
	Use:   "exchange [code]",
	Short: "Exchange an authorization code for a stored token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cli.Container()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		if c.OAuthService == nil {
			return fmt.Errorf("google oauth is not configured")
		}

		if _, err := c.OAuthService.ExchangeAndStore(cmd.Context(), c.UserID, args[0]); err != nil {
			return err
		}
		fmt.Println("calendar connected")
		return nil
	},
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func init() {
	Cmd.AddCommand(connectCmd, exchangeCmd)
}
