package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/adapters/auth"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"go.uber.org/zap"
)

var (
	userEmail string
	userName  string
	userKey   string
	userAdmin bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local contributors",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a contributor and print their key",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		key := userKey
		if key == "" {
			key = uuid.NewString()
		}
		u := &domain.User{Email: userEmail, Name: userName, Key: key, Admin: userAdmin, Valid: true}
		if err := repo.CreateUser(cmd.Context(), u); err != nil {
			return err
		}
		zlog.Info("user saved", zap.String("email", u.Email), zap.Bool("admin", u.Admin))
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		issuer := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTTTL)
		token, exp, err := issuer.Issue(domain.User{
			Email: userEmail,
			Name:  userName,
			Key:   userKey,
			Admin: userAdmin || cfg.IsAdminEmail(userEmail),
			Valid: true,
		})
		if err != nil {
			return err
		}
		zlog.Info("token issued", zap.String("email", userEmail), zap.Time("expires", exp))
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{userAddCmd, tokenCmd} {
		c.Flags().StringVar(&userEmail, "email", "", "User email")
		c.Flags().StringVar(&userName, "name", "", "Display name")
		c.Flags().StringVar(&userKey, "key", "", "Legacy user key")
		c.Flags().BoolVar(&userAdmin, "admin", false, "Grant moderator rights")
		_ = c.MarkFlagRequired("email")
	}
	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd, tokenCmd)
}
