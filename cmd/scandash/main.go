package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avety/scandash/internal/api"
	"github.com/avety/scandash/internal/cache"
	"github.com/avety/scandash/internal/config"
	"github.com/avety/scandash/internal/selection"
	"github.com/avety/scandash/internal/tui"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scandash",
		Short: "Terminal dashboard for document accessibility scan results",
		Long: `scandash is a terminal dashboard for browsing document accessibility
scan results: groups, folders, and scanned files, with severity and
category breakdowns per entity.

Configuration is read from .scandash.yaml (current directory or home),
SCANDASH_* environment variables, and flags, in increasing precedence.
Set the API token via the token key or SCANDASH_TOKEN.`,
		RunE: run,
	}

	rootCmd.PersistentFlags().String("server", "", "Scan server base URL")
	rootCmd.PersistentFlags().String("token", "", "API bearer token")
	rootCmd.Flags().String("group", "", "Group ID to preselect at startup")
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("group", rootCmd.Flags().Lookup("group"))

	rootCmd.AddCommand(newCheckCmd())

	cobra.OnInitialize(initConfig)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initConfig wires the config file and environment into viper.
func initConfig() {
	viper.SetConfigName(".scandash")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetEnvPrefix("SCANDASH")
	viper.AutomaticEnv()

	// Missing config file is fine; defaults and env cover it.
	_ = viper.ReadInConfig()
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	client := api.New(cfg.ServerURL,
		api.WithToken(cfg.Token),
		api.WithTimeout(cfg.RequestTimeout),
	)
	store := cache.New()
	controller := selection.New(client, store)

	app := tui.NewAppModel(client, controller, cfg, context.Background())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
