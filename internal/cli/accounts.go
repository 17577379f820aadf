package cli

import (
	"errors"
	"fmt"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/internal/services"
	"event_staffing_backend/pkg/utils"

	"github.com/spf13/cobra"
)

type createAdminOptions struct {
	username string
	password string
	email    string
	fullName string
}

// NewCreateAdminCommand creates the create-admin command.
func NewCreateAdminCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &createAdminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rootOpts.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			req := services.CreateUserRequest{
				Username: opts.username,
				Password: opts.password,
				RoleName: models.RoleAdmin,
				Email:    utils.NewNullString(opts.email),
				FullName: utils.NewNullString(opts.fullName),
			}

			user, err := services.NewAuthService(repositories.NewAuthRepository(db), db).CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %q (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&opts.email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.fullName, "full-name", "", "display name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewSetKioskCodeCommand creates the set-kiosk-code command.
func NewSetKioskCodeCommand(rootOpts *RootOptions) *cobra.Command {
	var clearCode bool

	cmd := &cobra.Command{
		Use:   "set-kiosk-code <staff-id> [code]",
		Short: "Set or clear a staff member's personal kiosk code",
		Long:  "Store the HMAC of a personal kiosk code for a staff member. Use --clear to remove it.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			staffID, err := utils.StrToInt64(args[0])
			if err != nil {
				return fmt.Errorf("invalid staff id %q: %w", args[0], err)
			}
			var code string
			switch {
			case clearCode && len(args) == 2:
				return errors.New("--clear does not take a code")
			case !clearCode && len(args) != 2:
				return errors.New("a code is required unless --clear is set")
			case !clearCode:
				code = args[1]
			}

			db, err := rootOpts.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			staff := services.NewStaffService(db, repositories.NewStaffRepository(db),
				repositories.NewInvitationRepository(db), rootOpts.Config.KioskCodeSecret)
			if err := staff.SetKioskCode(cmd.Context(), staffID, code); err != nil {
				return err
			}
			if clearCode {
				fmt.Fprintf(cmd.OutOrStdout(), "kiosk code cleared for staff %d\n", staffID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "kiosk code set for staff %d\n", staffID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearCode, "clear", false, "remove the code")
	return cmd
}
