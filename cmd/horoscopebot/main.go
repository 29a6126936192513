// Command horoscopebot runs the Telegram horoscope bot and its tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/horoscopebot/core/cmd"
	coretelegram "github.com/m3rciful/horoscopebot/core/telegram"
	"github.com/m3rciful/horoscopebot/internal/bot"
)

const defaultConfigPath = "config.yaml"

var (
	configPath string

	fetchSign string
	fetchDay  string
)

var rootCmd = &cobra.Command{
	Use:   "horoscopebot",
	Short: "Telegram bot serving daily horoscopes",
	Long: `horoscopebot walks a Telegram user through choosing a zodiac sign and a
day, then replies with the daily horoscope.

Configuration is read from a YAML file (--config, CONFIG_PATH or
config.yaml), a .env file and the environment.`,
	SilenceUsage: true,
	RunE:         runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot (long polling or webhook)",
	RunE:  runBot,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one horoscope from the provider and print it",
	Long: `Fetch calls the horoscope provider directly, without Telegram.

Example:
  horoscopebot fetch --sign leo --day TODAY`,
	RunE: runFetch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run:   runVersion,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config (default: $CONFIG_PATH or config.yaml)")

	fetchCmd.Flags().StringVar(&fetchSign, "sign", "", "Zodiac sign, e.g. leo (required)")
	fetchCmd.Flags().StringVar(&fetchDay, "day", "TODAY", "TODAY, TOMORROW, YESTERDAY or YYYY-MM-DD")
	_ = fetchCmd.MarkFlagRequired("sign")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	return corecmd.Run(corecmd.Options{
		Context:           cmd.Context(),
		ConfigPath:        configPath,
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bot.Bootstrap(cfg.(*bot.Config))
		},
		RunTelegram: coretelegram.RunTelegram,
	})
}
