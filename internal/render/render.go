package render

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/arcoapp/arco/internal/model"
)

const fallbackWidth = 80

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	focusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// OddsRow pairs a display name with a selection probability.
type OddsRow struct {
	Ref         model.ItemRef
	DisplayName string
	Probability float64
}

// PracticeSet prints a generated practice set as a numbered table, with
// weekly-focus items highlighted.
func PracticeSet(w io.Writer, items []model.GeneratedItem) error {
	if len(items) == 0 {
		return writeLines(w, []string{dimStyle.Render("No enabled items in the catalog; nothing to practice.")})
	}
	headers := []string{"#", "Item", "Articulation", "BPM", ""}
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		focus := ""
		if item.IsWeeklyFocus {
			focus = focusStyle.Render("focus")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			item.DisplayName,
			string(item.Articulation),
			fmt.Sprintf("%d", item.TargetBPM),
			focus,
		})
	}
	lines := append([]string{titleStyle.Render("Practice set")}, formatTable(headers, rows, map[int]bool{0: true, 3: true})...)
	return writeLines(w, lines)
}

// Likelihoods prints baseline selection probabilities, most likely first.
func Likelihoods(w io.Writer, rows []OddsRow) error {
	if len(rows) == 0 {
		return writeLines(w, []string{dimStyle.Render("No enabled items.")})
	}
	sorted := make([]OddsRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Probability == sorted[j].Probability {
			return sorted[i].DisplayName < sorted[j].DisplayName
		}
		return sorted[i].Probability > sorted[j].Probability
	})
	headers := []string{"Item", "Chance"}
	table := make([][]string, 0, len(sorted))
	for _, row := range sorted {
		table = append(table, []string{row.DisplayName, fmt.Sprintf("%.1f%%", row.Probability*100)})
	}
	lines := append([]string{titleStyle.Render("Baseline selection odds")}, formatTable(headers, table, map[int]bool{1: true})...)
	return writeLines(w, lines)
}

// History prints practice history aggregates, least practiced first.
func History(w io.Writer, rows []model.HistoryItem) error {
	if len(rows) == 0 {
		return writeLines(w, []string{dimStyle.Render("No enabled items.")})
	}
	headers := []string{"Item", "Sessions", "Practiced", "Last", "Max BPM"}
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		last := "never"
		if row.LastPracticed != nil {
			last = row.LastPracticed.Local().Format("2006-01-02")
		}
		maxBPM := "-"
		if row.MaxPracticedBPM > 0 {
			maxBPM = fmt.Sprintf("%d", row.MaxPracticedBPM)
		}
		table = append(table, []string{
			row.DisplayName,
			fmt.Sprintf("%d", row.TotalSessions),
			fmt.Sprintf("%d", row.TimesPracticed),
			last,
			maxBPM,
		})
	}
	lines := append([]string{titleStyle.Render("Practice history")}, formatTable(headers, table, map[int]bool{1: true, 2: true, 4: true})...)
	return writeLines(w, lines)
}

// Catalog prints catalog items with their selection-relevant fields.
func Catalog(w io.Writer, items []model.CatalogItem) error {
	if len(items) == 0 {
		return writeLines(w, []string{dimStyle.Render("No matching items.")})
	}
	headers := []string{"ID", "Item", "Enabled", "Weight", "BPM", "Articulation"}
	table := make([][]string, 0, len(items))
	for _, item := range items {
		enabled := "no"
		if item.Enabled {
			enabled = "yes"
		}
		bpm := "-"
		if item.TargetBPM > 0 {
			bpm = fmt.Sprintf("%d", item.TargetBPM)
		}
		table = append(table, []string{
			fmt.Sprintf("%d", item.ID),
			item.DisplayName(),
			enabled,
			fmt.Sprintf("%.1f", item.Weight),
			bpm,
			string(item.ArticulationMode),
		})
	}
	lines := formatTable(headers, table, map[int]bool{0: true, 3: true, 4: true})
	return writeLines(w, lines)
}

// SelectionSets prints saved presets with the active one highlighted.
func SelectionSets(w io.Writer, sets []model.SelectionSet) error {
	if len(sets) == 0 {
		return writeLines(w, []string{dimStyle.Render("No saved selection sets.")})
	}
	headers := []string{"ID", "Name", "Scales", "Arpeggios", ""}
	table := make([][]string, 0, len(sets))
	for _, set := range sets {
		active := ""
		if set.Active {
			active = focusStyle.Render("active")
		}
		table = append(table, []string{
			fmt.Sprintf("%d", set.ID),
			set.Name,
			fmt.Sprintf("%d", len(set.ScaleIDs)),
			fmt.Sprintf("%d", len(set.ArpeggioIDs)),
			active,
		})
	}
	lines := append([]string{titleStyle.Render("Selection sets")}, formatTable(headers, table, map[int]bool{0: true, 2: true, 3: true})...)
	return writeLines(w, lines)
}

func writeLines(w io.Writer, lines []string) error {
	width := terminalWidth()
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, truncateLine(line, width)); err != nil {
			return err
		}
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}
