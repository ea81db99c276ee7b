package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/autonomous-analyst/internal/tools"
)

// RenderResult formats a tool result for the terminal. Error results are
// styled as failures; plain guidance is shown as information.
func RenderResult(res tools.Result) string {
	switch {
	case res.IsError:
		return FormatError(res.Text)
	case res.Path != "":
		return FormatSuccess(res.Text)
	default:
		return res.Text
	}
}

// PrintResult writes a rendered tool result followed by a newline.
func PrintResult(w io.Writer, res tools.Result) error {
	_, err := fmt.Fprintln(w, RenderResult(res))
	return err
}

// RenderTools lists tools with their parameters and LLM usage.
func RenderTools(list []tools.Tool) string {
	var b strings.Builder
	for i, t := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		name := NameStyle.Render(t.Name)
		if t.UsesLLM {
			name += " " + SubtleStyle.Render("("+RobotIcon+" LLM)")
		}
		fmt.Fprintf(&b, "%s\n  %s\n", name, t.Description)
		for _, p := range t.Params {
			fmt.Fprintf(&b, "  %s %s (%s, default %v)\n",
				SubtleStyle.Render("-"), p.Name, p.Type, p.Default)
		}
	}
	return b.String()
}
