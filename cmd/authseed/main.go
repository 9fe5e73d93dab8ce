// Command authseed validates configuration and captures seeded browser
// storage snapshots from the command line.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"

	"github.com/kuitang/authseed"
	"github.com/kuitang/authseed/internal/config"
	"github.com/kuitang/authseed/internal/obs"
	"github.com/kuitang/authseed/internal/provider"
)

var (
	flagProfile string
	flagDebug   bool
)

func main() {
	// Local .env is optional; service-account paths and API keys commonly
	// live there during development.
	_ = godotenv.Load()
	obs.Init()

	root := &cobra.Command{
		Use:           "authseed",
		Short:         "Seed authenticated browser sessions for end-to-end tests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				obs.SetDebug(true)
			}
		},
	}
	root.PersistentFlags().StringVar(&flagProfile, "profile", "", "config profile whose fields override the active provider")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newSnapshotCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "authseed:", err)
		os.Exit(1)
	}
}

// newValidateCmd resolves the config, applies the profile, and runs the
// provider's validation without touching the network or a browser.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file and the active provider's settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Default().Load()
			if err != nil {
				return err
			}
			block, err := cfg.ApplyProfile(flagProfile)
			if err != nil {
				return err
			}
			strat, err := provider.Lookup(cfg.Provider)
			if err != nil {
				return err
			}
			if _, err := strat.ValidateConfig(block); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration valid (provider %q)\n", cfg.Provider)
			return nil
		},
	}
}

// newSnapshotCmd runs the full pipeline in a headless browser and writes the
// resulting Playwright storage state to a file, reusable via the
// storage_state launch option in test suites.
func newSnapshotCmd() *cobra.Command {
	var (
		out     string
		headful bool
		wait    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inject a session in a headless browser and save its storage state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			pw, err := playwright.Run()
			if err != nil {
				return fmt.Errorf("start playwright: %w", err)
			}
			defer pw.Stop()

			browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
				Headless: playwright.Bool(!headful),
			})
			if err != nil {
				return fmt.Errorf("launch browser: %w", err)
			}
			defer browser.Close()

			browserCtx, err := browser.NewContext()
			if err != nil {
				return fmt.Errorf("new browser context: %w", err)
			}
			page, err := browserCtx.NewPage()
			if err != nil {
				return fmt.Errorf("new page: %w", err)
			}

			opts := &authseed.Options{Profile: flagProfile}
			if wait > 0 {
				opts.WaitAfter = wait
			}
			if err := authseed.InjectAuth(cmd.Context(), page, opts); err != nil {
				return err
			}
			if _, err := browserCtx.StorageState(out); err != nil {
				return fmt.Errorf("save storage state: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "storage state written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "storage-state.json", "output path for the captured storage state")
	cmd.Flags().BoolVar(&headful, "headful", false, "run the browser with a visible window")
	cmd.Flags().DurationVar(&wait, "wait", 0, "override the settle delay after navigation")
	return cmd
}
