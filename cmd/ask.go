package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/clipask/clipask/internal/config"
	"github.com/clipask/clipask/internal/dispatch"
	"github.com/clipask/clipask/internal/exitcode"
	"github.com/clipask/clipask/internal/llm"
	"github.com/clipask/clipask/internal/prompt"
	"github.com/clipask/clipask/internal/tui"
)

var (
	askImage    string
	askType     string
	askPlain    bool
	askProvider string
	askModelF   string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and stream the answer",
	Long: `Send a question to the current LLM backend and stream the reply.

With --type, the question is wrapped in that question type's prompt template
and the reply is post-processed into paste-ready editor input. With --image,
the screenshot is attached to the request.

Examples:
  clipask ask "What is the capital of France?"
  clipask ask "Transcribe and answer this" --image shot.png --type multiple-choice
  clipask ask "List 5 programming languages" --plain`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askImage, "image", "i", "", "Attach an image to the question")
	askCmd.Flags().StringVarP(&askType, "type", "t", "", "Question type (multiple-choice, reading, cloze, listening, listening-compound, multi-blank)")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "Output plain text instead of rendered markdown")
	askCmd.Flags().StringVar(&askProvider, "provider", "", "Override the configured provider (openai, github)")
	askCmd.Flags().StringVar(&askModelF, "model", "", "Override the configured model")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyOverrides(askProvider, askModelF)

	var question *prompt.Question
	if askType != "" {
		kind, err := prompt.ParseKind(askType)
		if err != nil {
			return exitcode.Invalid(err.Error())
		}
		question = prompt.NewQuestion(kind, text, askImage)
		text = question.PromptText()
	}

	manager := llm.NewManager(cfg.Backend())
	dispatcher := dispatch.New(manager)

	call := dispatcher.Dispatch(ctx, dispatch.ChatRequest{Text: text, ImagePath: askImage})
	// Detach the producer if we stop reading early (TUI quit); otherwise the
	// backend goroutine blocks on a full chunk buffer and Err never returns.
	defer call.Abandon()

	if question != nil {
		// Typed questions need the raw reply for post-processing; stream
		// progress plainly and print the final paste-ready block.
		reply, err := drainFinal(call)
		if err != nil {
			return err
		}
		question.SetReply(reply)
		fmt.Println(question.FinalOutput())
		return nil
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if askPlain || !isTTY {
		err = tui.StreamPlain(call.Chunks())
	} else {
		err = tui.Stream(call.Chunks())
	}
	if err != nil {
		return err
	}

	return finishDisplayed(cmd, call.Err())
}

// finishDisplayed maps a backend error to an exit status after its terminal
// "Error: ..." chunk has already been rendered. Cobra would print the same
// message a second time, so the reprint is suppressed; the exit code still
// reports the failure.
func finishDisplayed(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	cmd.SilenceErrors = true
	return exitcode.ExitError{Code: exitcode.Error, Message: err.Error()}
}

// drainFinal consumes the stream and returns the terminal chunk's content.
func drainFinal(call *dispatch.Call) (string, error) {
	defer call.Abandon()
	var last string
	for chunk := range call.Chunks() {
		last = chunk.Content
	}
	if err := call.Err(); err != nil {
		return "", err
	}
	return last, nil
}
