package main

import (
	"embed"

	"github.com/spf13/cobra"

	"github.com/hnrobert/fumgr/internal/auth"
	"github.com/hnrobert/fumgr/internal/config"
	"github.com/hnrobert/fumgr/internal/logger"
	"github.com/hnrobert/fumgr/internal/usermgr"
)

// Used when the configured users file does not exist yet.
//
//go:embed users.properties
var bundled embed.FS

// session holds the store opened for the running command.
type session struct {
	configFile string
	cfg        config.Config
	users      *usermgr.Manager
}

// NewRootCmd creates the root command for the fumgr CLI.
func NewRootCmd() *cobra.Command {
	s := &session{}
	cmd := &cobra.Command{
		Use:   "fumgr",
		Short: "Manage the users of a properties-file backed FTP server",
		Long: `fumgr reads and edits the ftpserver.user.* entries of a users.properties
file: passwords, home directories, write permission, idle timeouts,
concurrent-login caps and transfer-rate limits.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  s.open,
		PersistentPostRunE: s.close,
	}

	cmd.PersistentFlags().StringVar(&s.configFile, "config", "", "config file path")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newListCmd(s))
	cmd.AddCommand(newShowCmd(s))
	cmd.AddCommand(newSaveCmd(s))
	cmd.AddCommand(newPasswdCmd(s))
	cmd.AddCommand(newDeleteCmd(s))
	cmd.AddCommand(newCheckCmd(s))
	cmd.AddCommand(newExportCmd(s))

	return cmd
}

func (s *session) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(s.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	s.cfg = cfg

	lvl, _ := logger.ParseLevel(cfg.Log.Level)
	logger.SetLevel(lvl)
	if err := logger.Init(cfg.Log.Dir); err != nil {
		return err
	}

	enc, err := auth.ByName(cfg.Users.Encryptor)
	if err != nil {
		return err
	}
	opts := usermgr.Options{
		AdminName: cfg.Users.Admin,
		Encryptor: enc,
		Bundle:    &bundled,
	}
	if cfg.Users.URL != "" {
		opts.URL = cfg.Users.URL
	} else {
		opts.File = cfg.Users.File
	}
	s.users, err = usermgr.New(cmd.Context(), opts)
	return err
}

func (s *session) close(_ *cobra.Command, _ []string) error {
	if s.users != nil {
		s.users.Dispose()
	}
	logger.Close()
	return nil
}
