package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/pkg/config"
	"github.com/johnquangdev/interview-analyzer/pkg/jwt"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		Long:  "Signs an access token with JWT_ACCESS_SECRET. Leave --user empty to generate a new user ID.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userFlag, _ := cmd.Flags().GetString("user")
			roleFlag, _ := cmd.Flags().GetString("role")
			email, _ := cmd.Flags().GetString("email")
			expiry, _ := cmd.Flags().GetDuration("expiry")

			userID := uuid.New()
			if userFlag != "" {
				parsed, err := uuid.Parse(userFlag)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				userID = parsed
			}

			role := entities.UserRole(roleFlag)
			if !role.IsValid() {
				return fmt.Errorf("%w %q, expected admin, recruiter or candidate", entities.ErrInvalidRole, roleFlag)
			}

			cfg := config.FromEnv()
			if expiry <= 0 {
				expiry = cfg.JWT.AccessExpiry
			}
			manager := jwt.NewManager(cfg.JWT.AccessSecret, expiry, cfg.JWT.Issuer)

			token, err := manager.GenerateAccessToken(userID, email, string(role))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user_id: %s\n", userID)
			fmt.Fprintf(out, "role:    %s\n", role)
			fmt.Fprintf(out, "expires: %s\n", expiry)
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().String("user", "", "User ID (UUID)")
	cmd.Flags().String("role", string(entities.RoleRecruiter), "Role: admin, recruiter or candidate")
	cmd.Flags().String("email", "dev@localhost", "Email claim")
	cmd.Flags().Duration("expiry", 0, "Token lifetime (defaults to JWT_ACCESS_EXPIRY)")
	return cmd
}
