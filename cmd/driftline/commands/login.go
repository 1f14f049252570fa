package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	driftline "github.com/driftline/driftline-go"
	"github.com/driftline/driftline-go/internal/config"
)

var (
	loginID  string
	password string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a password and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if loginID == "" {
			loginID = cfg.LoginID
		}
		if loginID == "" || password == "" {
			return fmt.Errorf("both --login-id and --password are required")
		}

		ctx, cancel := commandContext()
		defer cancel()

		client, err := driftline.New(driftline.Options{ServerURL: cfg.ServerURL})
		if err != nil {
			return err
		}
		defer client.Dispose()

		user, err := client.LoginWithPassword(ctx, loginID, password)
		if err != nil {
			return err
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path := filepath.Join(home, ".driftline", "driftline.json")
		cfg.LoginID = loginID
		cfg.Token = client.SessionToken()
		cfg.Password = ""
		if err := config.Save(cfg, path); err != nil {
			return err
		}

		fmt.Println(successStyle.Sprintf("logged in as %s", user.Username))
		fmt.Println(dimStyle.Sprintf("config written to %s", path))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginID, "login-id", "", "Login id (email or username)")
	loginCmd.Flags().StringVar(&password, "password", "", "Password")
}
