package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	pikpak "github.com/ppdrive/pikpak-go"
	"github.com/ppdrive/pikpak-go/internal/config"
	"github.com/ppdrive/pikpak-go/internal/credfile"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save credentials",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}

	cmd.Flags().StringP("username", "u", "", "account username (email)")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove saved credentials",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

// promptLine reads a single line from stdin with a prompt on stderr.
func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		username = resolvedCfg.Auth.Username
	}

	if username == "" {
		var err error

		username, err = promptLine("Username: ")
		if err != nil {
			return err
		}
	}

	password := resolvedCfg.Auth.Password
	if password == "" {
		var err error

		password, err = promptLine("Password: ")
		if err != nil {
			return err
		}
	}

	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	opts := append(
		clientOptions(logger, nil),
		pikpak.WithCredentials(username, password),
	)

	client, err := pikpak.NewClient(opts...)
	if err != nil {
		return err
	}

	if err := client.Login(ctx); err != nil {
		if errors.Is(err, pikpak.ErrInvalidCredentials) {
			return fmt.Errorf("sign-in rejected: check username and password")
		}

		return err
	}

	info := client.UserInfo()

	credsPath := config.CredentialsPath(resolvedCfg)
	tok := &oauth2.Token{
		AccessToken:  info.AccessToken,
		RefreshToken: info.RefreshToken,
		TokenType:    "Bearer",
	}
	meta := map[string]string{
		credfile.MetaUsername: username,
		credfile.MetaUserID:   info.UserID,
		credfile.MetaDeviceID: client.DeviceID(),
	}

	if err := credfile.Save(credsPath, tok, meta); err != nil {
		return err
	}

	statusf("Signed in as %s\n", username)

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	credsPath := config.CredentialsPath(resolvedCfg)

	err := os.Remove(credsPath)
	if errors.Is(err, fs.ErrNotExist) {
		statusf("Not logged in\n")

		return nil
	}

	if err != nil {
		return fmt.Errorf("removing credentials: %w", err)
	}

	statusf("Logged out\n")

	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	credsPath := config.CredentialsPath(resolvedCfg)

	meta, err := credfile.ReadMeta(credsPath)
	if err != nil {
		return err
	}

	if meta == nil {
		// A credential file without metadata still counts as logged in.
		tok, _, loadErr := credfile.Load(credsPath)
		if loadErr != nil {
			return loadErr
		}

		if tok == nil {
			return fmt.Errorf("not logged in: run 'pikpak login' first")
		}

		meta = map[string]string{}
	}

	if flagJSON {
		return printJSON(map[string]string{
			"username": meta[credfile.MetaUsername],
			"user_id":  meta[credfile.MetaUserID],
		})
	}

	username := meta[credfile.MetaUsername]
	if username == "" {
		username = "(unknown)"
	}

	fmt.Printf("%s", username)

	if id := meta[credfile.MetaUserID]; id != "" {
		fmt.Printf(" (%s)", id)
	}

	fmt.Println()

	return nil
}
