package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/fumgr/internal/usermgr"
)

func newListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := s.users.ListNames()
			if err != nil {
				return err
			}
			for _, n := range names {
				if s.users.IsAdmin(n) {
					cmd.Printf("%s (admin)\n", n)
					continue
				}
				cmd.Println(n)
			}
			return nil
		},
	}
}

func newShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := s.users.GetByName(args[0])
			if err != nil {
				return err
			}
			return writeYAML(cmd, toRecord(s, u))
		},
	}
}

func newSaveCmd(s *session) *cobra.Command {
	var (
		password       string
		home           string
		idle           int
		write          bool
		disabled       bool
		uploadRate     int
		downloadRate   int
		maxLogins      int
		maxLoginsPerIP int
	)
	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Create or update a user",
		Long: `Create or update a user. Without --password an existing user keeps its
password and a new user gets an empty one. Transfer rates are stored only
when --upload-rate or --download-rate is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := usermgr.NewUser(args[0])
			if cmd.Flags().Changed("password") {
				u.SetPassword(password)
			}
			u.HomeDirectory = home
			u.MaxIdleTime = idle
			u.Enabled = !disabled
			if write {
				u.Authorities = append(u.Authorities, usermgr.WritePermission{})
			}
			if cmd.Flags().Changed("upload-rate") || cmd.Flags().Changed("download-rate") {
				u.Authorities = append(u.Authorities, usermgr.TransferRatePermission{
					MaxUploadRate:   uploadRate,
					MaxDownloadRate: downloadRate,
				})
			}
			u.Authorities = append(u.Authorities, usermgr.ConcurrentLoginPermission{
				MaxConcurrentLogins:      maxLogins,
				MaxConcurrentLoginsPerIP: maxLoginsPerIP,
			})
			if err := s.users.Save(u); err != nil {
				return err
			}
			cmd.Printf("saved %s\n", u.Name)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&password, "password", "", "plaintext password")
	f.StringVar(&home, "home", "/", "home directory")
	f.IntVar(&idle, "idle", 0, "idle timeout in seconds (0 = none)")
	f.BoolVar(&write, "write", false, "grant write permission")
	f.BoolVar(&disabled, "disabled", false, "disable the account")
	f.IntVar(&uploadRate, "upload-rate", 0, "max upload bytes/sec (0 = unlimited)")
	f.IntVar(&downloadRate, "download-rate", 0, "max download bytes/sec (0 = unlimited)")
	f.IntVar(&maxLogins, "max-logins", 0, "max concurrent logins (0 = unlimited)")
	f.IntVar(&maxLoginsPerIP, "max-logins-per-ip", 0, "max concurrent logins per IP (0 = unlimited)")
	return cmd
}

func newPasswdCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd NAME PASSWORD",
		Short: "Change the password of an existing user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := s.users.GetByName(args[0])
			if err != nil {
				return err
			}
			u.SetPassword(args[1])
			if err := s.users.Save(u); err != nil {
				return err
			}
			cmd.Printf("password changed for %s\n", u.Name)
			return nil
		},
	}
}

func newDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.users.Delete(args[0]); err != nil {
				return err
			}
			cmd.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func newCheckCmd(s *session) *cobra.Command {
	var anonymous bool
	cmd := &cobra.Command{
		Use:   "check [NAME [PASSWORD]]",
		Short: "Try to authenticate",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var a usermgr.Authentication
			if anonymous {
				a = usermgr.Anonymous{}
			} else {
				if len(args) == 0 {
					return errors.New("NAME is required unless --anonymous is set")
				}
				up := usermgr.UsernamePassword{Username: args[0]}
				if len(args) == 2 {
					up.Password = args[1]
				}
				a = up
			}
			u, err := s.users.Authenticate(a)
			if err != nil {
				return err
			}
			cmd.Printf("authenticated as %s\n", u.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "authenticate anonymously")
	return cmd
}

func newExportCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Dump all users as YAML (without passwords)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := s.users.ListNames()
			if err != nil {
				return err
			}
			out := make([]record, 0, len(names))
			for _, n := range names {
				u, err := s.users.GetByName(n)
				if err != nil {
					return fmt.Errorf("read %s: %w", n, err)
				}
				out = append(out, toRecord(s, u))
			}
			return writeYAML(cmd, out)
		},
	}
}

type record struct {
	Name           string `yaml:"name"`
	Admin          bool   `yaml:"admin,omitempty"`
	Home           string `yaml:"home"`
	Enabled        bool   `yaml:"enabled"`
	Write          bool   `yaml:"write"`
	IdleTime       int    `yaml:"idle_time"`
	MaxLogins      int    `yaml:"max_logins"`
	MaxLoginsPerIP int    `yaml:"max_logins_per_ip"`
	UploadRate     int    `yaml:"upload_rate"`
	DownloadRate   int    `yaml:"download_rate"`
}

func toRecord(s *session, u *usermgr.User) record {
	cl := u.ConcurrentLogins()
	tr := u.TransferRate()
	return record{
		Name:           u.Name,
		Admin:          s.users.IsAdmin(u.Name),
		Home:           u.HomeDirectory,
		Enabled:        u.Enabled,
		Write:          u.CanWrite("/"),
		IdleTime:       u.MaxIdleTime,
		MaxLogins:      cl.MaxConcurrentLogins,
		MaxLoginsPerIP: cl.MaxConcurrentLoginsPerIP,
		UploadRate:     tr.MaxUploadRate,
		DownloadRate:   tr.MaxDownloadRate,
	}
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
