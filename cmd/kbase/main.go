package main

import (
	"fmt"
	"log"
	"os"

	"kbase/internal/config"
	"kbase/internal/version"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kbase",
	Short: "kbase - retrieval-augmented knowledge base",
	Long: `kbase ingests PDF manuals and crawled web pages into a persistent
vector index and answers questions over them with a language model.

Documents are chunked, embedded and stored locally; search and ask work
entirely against the local index.`,
	Version: version.Short(),
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("kbase %s\n", version.Full())
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
}

// initConfig loads the configuration before any command runs.
func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
