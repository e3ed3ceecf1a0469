package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/launcher-auth/auth"
	"github.com/jrsteele09/launcher-auth/internal/config"
	"github.com/jrsteele09/launcher-auth/internal/console"
	"github.com/jrsteele09/launcher-auth/internal/logging"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

type loginOptions struct {
	configFile      string
	jsonOutput      bool
	noBrowser       bool
	verifySignature bool
}

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "launcher-auth",
		Short:         "Log in to a Jagex account the way the game launcher does",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newLoginCommand(in, out), newVersionCommand(out))
	return root
}

func newVersionCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(out, version)
		},
	}
}

func newLoginCommand(in io.Reader, out io.Writer) *cobra.Command {
	opts := &loginOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the browser and print the account and its characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, in, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console or json)")
	flags.Duration("http-timeout", 0, "Timeout for each provider request")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the account as JSON on stdout")
	flags.BoolVar(&opts.noBrowser, "no-browser", false, "Print login addresses instead of opening the system browser")
	flags.BoolVar(&opts.verifySignature, "verify-signature", false, "Verify id token signatures against the provider JWKS")
	return cmd
}

func run(cmd *cobra.Command, opts *loginOptions, in io.Reader, out io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := logging.Init(c); err != nil {
		return err
	}

	// prompts and progress go to stderr when stdout carries JSON
	ui := out
	if opts.jsonOutput {
		ui = os.Stderr
	} else {
		displayAppname(ui, c.GetAppName())
	}

	var browserOptions []console.BrowserOption
	if opts.noBrowser {
		browserOptions = append(browserOptions, console.WithoutLauncher())
	}
	service, err := auth.NewLoginService(c, console.NewBrowser(in, ui, browserOptions...), console.NewNotifier(ui))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	account, err := service.Login(ctx)
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(account)
	}
	return nil
}

func loadConfig(cmd *cobra.Command, opts *loginOptions) (config.Config, error) {
	configOptions := []config.Option{config.WithFlags(cmd.Flags())}
	if opts.configFile != "" {
		configOptions = append(configOptions, config.WithConfigFile(opts.configFile))
	}
	if cmd.Flags().Changed("verify-signature") {
		configOptions = append(configOptions, config.WithOverrides(map[string]any{
			"security.verify_id_token_signature": opts.verifySignature,
		}))
	}
	return config.New(configOptions...)
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
