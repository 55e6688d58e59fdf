package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/integrations/summit"
)

// maxPackageWidth bounds the package column; longer build IDs are cut.
const maxPackageWidth = 50

// buildsCommand creates the "builds" command.
func (c *CLI) buildsCommand() *cobra.Command {
	var (
		pages  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List recent builds from Summit",
		Long: `List the most recent build tasks known to Summit. Tasks that are
building come first, then queued ones, then everything else.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages <= 0 {
				return errors.New(errors.ErrCodeInvalidConfig, "--pages must be positive, got %d", pages)
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			client := summit.NewClient().WithBaseURL(cfg.Summit.URL)

			var tasks []summit.Task
			if asJSON {
				tasks, err = client.FetchRecent(cmd.Context(), pages)
			} else {
				spinner := newSpinnerWithContext(cmd.Context(), "Fetching builds...")
				spinner.Start()
				tasks, err = client.FetchRecent(cmd.Context(), pages)
				if err != nil {
					spinner.StopWithError("Could not reach Summit")
				} else {
					spinner.Stop()
				}
			}
			if err != nil {
				return err
			}

			tasks = summit.Order(tasks)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			renderBuilds(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", summit.DefaultPages, "number of task pages to read")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the tasks as JSON")
	return cmd
}

var statusColors = map[summit.Status]lipgloss.Color{
	summit.StatusNew:        colorCyan,
	summit.StatusFailed:     colorRed,
	summit.StatusBuilding:   colorYellow,
	summit.StatusPublishing: colorBlue,
	summit.StatusCompleted:  colorGreen,
	summit.StatusBlocked:    colorRed,
}

func renderBuilds(w io.Writer, tasks []summit.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, StyleDim.Render("No builds"))
		return
	}

	data := make([][]string, len(tasks))
	for i, t := range tasks {
		data[i] = []string{strconv.FormatInt(t.ID, 10), truncate(t.Package(), maxPackageWidth), t.Architecture, t.Status.String()}
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Package", "Arch", "Status").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			if row < 0 || row >= len(tasks) {
				return base
			}
			switch col {
			case 0:
				return base.Bold(true).Align(lipgloss.Right)
			case 1:
				return base.Foreground(colorCyan)
			case 3:
				return base.Bold(true).Foreground(statusColors[tasks[row].Status])
			}
			return base
		})

	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintln(w, StyleDim.Render(count(len(tasks), "task")))
}

// truncate cuts s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
