package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/models"
)

func (c *CLI) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users (list, show, add, delete, login)",
	}
	cmd.AddCommand(
		c.usersListCmd(),
		c.usersShowCmd(),
		c.usersAddCmd(),
		c.usersDeleteCmd(),
		c.usersLoginCmd(),
	)
	return cmd
}

func (c *CLI) usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List public users",
		Long:  `List users without credentials in the order they were created.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := c.store().ListPublicUsers(cmd.Context())
			if err != nil {
				return err
			}
			if users == nil {
				users = []models.UserSummary{}
			}
			return printJSON(c.out, users)
		},
	}
}

func (c *CLI) usersShowCmd() *cobra.Command {
	var byName bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a user with their movies",
		Long:  `Show a user by id, or by name with --name.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				u   *models.User
				err error
			)
			if byName {
				u, err = c.store().GetUserByName(cmd.Context(), args[0])
			} else {
				var id int64
				if id, err = parseUserID(args[0]); err != nil {
					return err
				}
				u, err = c.store().GetUserByID(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("%w: user %s", common.ErrNotFound, args[0])
			}
			return printJSON(c.out, newUserView(u))
		},
	}
	cmd.Flags().BoolVar(&byName, "name", false, "treat the argument as a user name")
	return cmd
}

func (c *CLI) usersAddCmd() *cobra.Command {
	var (
		withPassword bool
		avatar       string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a user",
		Long: `Create a public user, or a registered one with --with-password, which
prompts for the password without echo. Registered users without --avatar get
the default avatar.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nu := models.NewUser{Name: args[0], Avatar: avatar}
			if withPassword {
				pw, err := GetPassword(c.errOut, "Enter password: ")
				if err != nil {
					return err
				}
				nu.Password = pw
			}

			u, err := c.store().AddUser(cmd.Context(), nu)
			if err != nil {
				return err
			}
			return printJSON(c.out, newUserView(u))
		},
	}
	cmd.Flags().BoolVarP(&withPassword, "with-password", "p", false, "prompt for a password")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar image name")
	return cmd
}

func (c *CLI) usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user with their reviews",
		Long:  `Delete a user, their reviews and every movie no other user owns.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if err := c.store().DeleteUser(cmd.Context(), id); err != nil {
				return err
			}
			return printJSON(c.out, map[string]int64{"deleted": id})
		},
	}
}

func (c *CLI) usersLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <name>",
		Short: "Check a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := GetPassword(c.errOut, "Enter password: ")
			if err != nil {
				return err
			}

			ok, err := c.store().IsPasswordValid(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			if err := printJSON(c.out, map[string]any{"name": args[0], "valid": ok}); err != nil {
				return err
			}
			if !ok {
				return errInvalidCredentials
			}
			return nil
		},
	}
}
