package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/spf13/cobra"
)

const signInWait = 5 * time.Second

// signedIn waits until the session reports uid as the signed-in user
func (a *app) signedIn(ctx context.Context, uid string) (*model.User, error) {
	updates, stop := a.session.Watch()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, signInWait)
	defer cancel()
	for {
		select {
		case u := <-updates:
			if u != nil && u.UID == uid {
				return u, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (a *app) greet(cmd *cobra.Command, user *model.User) {
	u, err := a.signedIn(cmd.Context(), user.UID)
	if err != nil {
		slog.Warn("session did not pick up the sign-in", "error", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", u.Email)
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	var signup bool
	var name string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Long: `Log in with email and password. With --signup a new account is created
instead, optionally with a full name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if signup {
				return a.signup(cmd, email, password, name)
			}
			if u := a.session.Current(); u != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Already logged in as %s\n", u.Email)
				return nil
			}
			u, err := a.api.SignIn(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("Error: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Login successful!")
			a.greet(cmd, u)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&signup, "signup", false, "Create a new account")
	cmd.Flags().StringVar(&name, "name", "", "Full name for a new account")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) signupCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.signup(cmd, email, password, name)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&name, "name", "", "Full name (optional)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) signup(cmd *cobra.Command, email, password, name string) error {
	u, err := a.api.SignUp(cmd.Context(), email, password, name)
	if err != nil {
		return fmt.Errorf("Error: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Account created successfully!")
	a.greet(cmd, u)
	return nil
}

func (a *app) googleCmd() *cobra.Command {
	var idToken string
	cmd := &cobra.Command{
		Use:   "google",
		Short: "Log in with a Google ID token",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.api.SignInWithGoogle(cmd.Context(), idToken)
			if err != nil {
				return fmt.Errorf("Google Login Failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in with Google!")
			a.greet(cmd, u)
			return nil
		},
	}
	cmd.Flags().StringVar(&idToken, "id-token", "", "Google ID token")
	cmd.MarkFlagRequired("id-token")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the saved session",
		Run: func(cmd *cobra.Command, args []string) {
			a.session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.user()
			if err != nil {
				return err
			}
			if fresh, err := a.api.Me(cmd.Context()); err != nil {
				slog.Warn("failed to load profile, showing saved session", "error", err)
			} else {
				u = fresh
			}
			printUser(cmd, *u)
			return nil
		},
	}
}

func printUser(cmd *cobra.Command, u model.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s\n", u.Initial(), u.Name())
	fmt.Fprintf(out, "Email: %s\n", u.Email)
	if u.PhotoURL != "" {
		fmt.Fprintf(out, "Photo: %s\n", u.PhotoURL)
	}
}
