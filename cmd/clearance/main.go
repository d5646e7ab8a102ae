// Command clearance is the customer-facing client of the customs clearance
// server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/client"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/localstore"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/pkg/logger"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/session"
	"github.com/spf13/cobra"
)

var errSignInRequired = errors.New("please log in first: clearance login --email <email>")

// app is the state shared by every command of one invocation
type app struct {
	server   string
	home     string
	logLevel string
	in       io.Reader

	store   *localstore.Store
	api     *client.Client
	session *session.Provider
}

func defaultHome() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".clearance")
	}
	return ".clearance"
}

func defaultServer() string {
	if s := os.Getenv("CLEARANCE_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func newRootCmd(in io.Reader) *cobra.Command {
	a := &app{in: in}

	root := &cobra.Command{
		Use:   "clearance",
		Short: "Customs clearance assistant client",
		Long: `clearance signs you in to the customs clearance server, manages your
trade lanes and their checklists, verifies documents and talks to the AI assistant.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.server, "server", defaultServer(), "Server base URL (or set CLEARANCE_SERVER)")
	root.PersistentFlags().StringVar(&a.home, "home", defaultHome(), "Directory for the saved session and chat history")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		a.loginCmd(),
		a.signupCmd(),
		a.googleCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.lanesCmd(),
		a.docsCmd(),
		a.assistantCmd(),
	)
	return root
}

func (a *app) open(ctx context.Context, logOut io.Writer) error {
	logger.Init(&logger.Config{Level: a.logLevel, Format: "text", Output: logOut})

	store, err := localstore.Open(a.home)
	if err != nil {
		return err
	}
	a.store = store
	a.api = client.New(a.server, client.NewTokenStore(store))

	a.session = session.New(a.api)
	a.session.Start(ctx)
	select {
	case <-a.session.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (a *app) close() {
	if a.session != nil {
		a.session.Stop()
	}
}

// user returns the signed-in user or errSignInRequired
func (a *app) user() (*model.User, error) {
	u := a.session.Current()
	if u == nil {
		return nil, errSignInRequired
	}
	return u, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
