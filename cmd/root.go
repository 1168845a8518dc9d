package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/clipask/clipask/internal/exitcode"
)

var (
	debugLogs bool
	logFile   string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Emit debug logs")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
}

var rootCmd = &cobra.Command{
	Use:   "clipask",
	Short: "Ask an LLM about captured questions",
	Long: `clipask sends exam questions to an LLM backend and turns the reply into
paste-ready editor input, optionally attaching the latest screenshot.

Examples:
  clipask ask "Which of these is a programming language?" --type multiple-choice
  clipask ask "Summarize this passage" --image shot.png
  clipask watch --dir ~/Pictures/Screenshots
  clipask config test                   # probe the current backend`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

var logFileHandle *os.File

func setupLogging() error {
	if debugLogs {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFileHandle = f
		log.SetOutput(f)
		// Logs to a file are worth keeping verbose.
		if !debugLogs {
			log.SetLevel(log.InfoLevel)
		}
	}
	return nil
}

func Execute() {
	err := rootCmd.Execute()
	if logFileHandle != nil {
		logFileHandle.Close()
	}
	if err != nil {
		if exitErr, ok := err.(exitcode.ExitError); ok {
			os.Exit(exitErr.Code)
		}
		os.Exit(exitcode.Error)
	}
}
