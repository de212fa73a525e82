package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jakoblorz/airflowctl/internal/tui"
	"github.com/spf13/cobra"
)

func stdout(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}

func stderr(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stderr
	}
	return cmd.ErrOrStderr()
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd == nil || cmd.Context() == nil {
		return context.Background()
	}
	return cmd.Context()
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintln(w, tui.SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintln(w, tui.WarningStyle.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

// FormatError renders err for the terminal.
func FormatError(err error) string {
	return tui.ErrorStyle.Render("Error: " + err.Error())
}
