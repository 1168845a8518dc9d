package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/clipask/clipask/internal/clipboard"
	"github.com/clipask/clipask/internal/config"
	"github.com/clipask/clipask/internal/dispatch"
	"github.com/clipask/clipask/internal/exitcode"
	"github.com/clipask/clipask/internal/llm"
	"github.com/clipask/clipask/internal/prompt"
)

var (
	watchDir  string
	watchType string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for screenshots and answer typed questions",
	Long: `Watch a capture directory for screenshots while reading questions from
stdin, one per line. Each question automatically attaches the most recent
unconsumed screenshot.

A line of the form "/type <kind>" switches the question type, "/peek" shows
the pending capture without consuming it; everything else is sent as a
question. An empty line re-sends the last capture with no text.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchDir, "dir", "d", "", "Capture directory to watch (default: config watch_dir)")
	watchCmd.Flags().StringVarP(&watchType, "type", "t", "multiple-choice", "Initial question type")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dir := watchDir
	if dir == "" {
		dir = cfg.WatchDir
	}
	if dir == "" {
		return exitcode.Invalid("no capture directory: pass --dir or set watch_dir in config")
	}

	kind, err := prompt.ParseKind(watchType)
	if err != nil {
		return exitcode.Invalid(err.Error())
	}

	watcher, err := clipboard.New(dir)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	watcher.Start(ctx)
	defer watcher.Stop()

	// Announce captures as they land so the user knows a screenshot is
	// armed before typing the next question.
	go func() {
		for capture := range watcher.Events() {
			fmt.Printf("capture ready: %s\n", capture.Path)
		}
	}()

	manager := llm.NewManager(cfg.Backend())
	dispatcher := dispatch.New(manager)
	logger := log.With("component", "watch")

	fmt.Printf("watching %s for captures; type questions below (/type <kind> to switch, ctrl+d to quit)\n", dir)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return exitcode.Cancel()
		}
		line := strings.TrimSpace(scanner.Text())

		if after, ok := strings.CutPrefix(line, "/type "); ok {
			next, err := prompt.ParseKind(strings.TrimSpace(after))
			if err != nil {
				fmt.Println(err)
				continue
			}
			kind = next
			fmt.Printf("question type: %s\n", kind)
			continue
		}
		if line == "/peek" {
			if capture, ok := watcher.Latest(); ok {
				fmt.Printf("pending capture: %s\n", capture.Path)
			} else {
				fmt.Println("no pending capture")
			}
			continue
		}

		imagePath := ""
		if capture, ok := watcher.Take(); ok {
			imagePath = capture.Path
			logger.Info("attaching capture", "path", capture.Path)
		}
		if line == "" && imagePath == "" {
			continue
		}

		question := prompt.NewQuestion(kind, line, imagePath)
		call := dispatcher.Dispatch(ctx, dispatch.ChatRequest{
			Text:      question.PromptText(),
			ImagePath: imagePath,
		})

		reply, err := drainFinal(call)
		if err != nil {
			fmt.Printf("request failed: %v\n", err)
			continue
		}
		question.SetReply(reply)
		logger.Info("question answered", "question", question.Summary())
		fmt.Println(question.FinalOutput())
	}
	if ctx.Err() != nil {
		return exitcode.Cancel()
	}
	return scanner.Err()
}
