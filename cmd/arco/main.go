// Package main provides the CLI entrypoint for arco.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcoapp/arco/internal/config"
	"github.com/arcoapp/arco/internal/model"
	"github.com/arcoapp/arco/internal/render"
	"github.com/arcoapp/arco/internal/selector"
	"github.com/arcoapp/arco/internal/server"
	"github.com/arcoapp/arco/internal/store"
)

const defaultServeAddr = "127.0.0.1:8765"

var (
	dbPath string

	historyCategory string

	logSkip []string
	logBPM  int

	catalogCategory string
	catalogNote     string
	catalogType     string
	catalogOctaves  int
	catalogEnabled  string

	setsUpdate bool

	setWeight       float64
	setBPM          int
	setArticulation string
	setEnabled      bool

	settingsTotal           int
	settingsVariation       float64
	settingsSlurred         float64
	settingsOctaveVariety   bool
	settingsFocusEnabled    bool
	settingsFocusKeys       []string
	settingsFocusTypes      []string
	settingsFocusCategories []string
	settingsFocusBoost      float64

	serveAddr string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "arco",
		Short:         "Practice set generator for scales and arpeggios",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runGenerateCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: XDG data dir)")

	rootCmd.AddCommand(newOddsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newSetsCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	sel := selector.New(st)
	items, err := sel.Generate(context.Background())
	if err != nil {
		return fmt.Errorf("failed to generate practice set: %w", err)
	}
	if len(items) == 0 {
		logErrln("No enabled items. Run: arco init, then enable items with: arco catalog enable")
		return fmt.Errorf("no enabled items")
	}
	return render.PracticeSet(cmd.OutOrStdout(), items)
}

func newOddsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "odds",
		Short: "Show per-item selection likelihoods",
		Args:  cobra.NoArgs,
		RunE:  runOddsCmd,
	}
}

func runOddsCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	sel := selector.New(st)
	odds, err := sel.Likelihoods(context.Background())
	if err != nil {
		return fmt.Errorf("failed to compute likelihoods: %w", err)
	}

	var rows []render.OddsRow
	for _, category := range []model.Category{model.CategoryScale, model.CategoryArpeggio} {
		items, err := st.ListEnabledItems(context.Background(), category)
		if err != nil {
			return fmt.Errorf("failed to list items: %w", err)
		}
		for _, item := range items {
			rows = append(rows, render.OddsRow{
				Ref:         item.Ref(),
				DisplayName: item.DisplayName(),
				Probability: odds[item.Ref()],
			})
		}
	}
	if len(rows) == 0 {
		logErrln("No enabled items. Run: arco init, then enable items with: arco catalog enable")
		return fmt.Errorf("no enabled items")
	}
	return render.Likelihoods(cmd.OutOrStdout(), rows)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show practice history, least practiced first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyCategory, "category", "", "filter by category (scale or arpeggio)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	category := model.Category(historyCategory)
	if category != "" && !category.Valid() {
		return fmt.Errorf("invalid --category %q", historyCategory)
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	history, err := st.History(context.Background(), category)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return render.History(cmd.OutOrStdout(), history)
}

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log <category:id>...",
		Short: "Record a practice session",
		Args:  cobra.ArbitraryArgs,
		RunE:  runLogCmd,
	}
	cmd.Flags().StringSliceVar(&logSkip, "skip", nil, "items that were generated but not practiced (category:id)")
	cmd.Flags().IntVar(&logBPM, "bpm", 0, "practiced tempo, applied to every practiced item")
	return cmd
}

func runLogCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(logSkip) == 0 {
		return fmt.Errorf("nothing to log: pass category:id arguments or --skip")
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	var entries []model.PracticeEntry
	appendEntry := func(raw string, practiced bool) error {
		ref, err := parseRef(raw)
		if err != nil {
			return err
		}
		item, err := st.GetItem(context.Background(), ref.Category, ref.ID)
		if err != nil {
			return fmt.Errorf("failed to look up %s: %w", raw, err)
		}
		entry := model.PracticeEntry{
			ItemType:     ref.Category,
			ItemID:       ref.ID,
			WasPracticed: practiced,
			TargetBPM:    item.TargetBPM,
		}
		if practiced && logBPM > 0 {
			entry.PracticedBPM = logBPM
			entry.MatchedTargetBPM = item.TargetBPM > 0 && logBPM >= item.TargetBPM
		}
		entries = append(entries, entry)
		return nil
	}
	for _, raw := range args {
		if err := appendEntry(raw, true); err != nil {
			return err
		}
	}
	for _, raw := range logSkip {
		if err := appendEntry(raw, false); err != nil {
			return err
		}
	}

	summary, err := st.InsertSession(context.Background(), entries)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged session %d: %d practiced, %d skipped\n",
		summary.ID, summary.PracticedCount, summary.EntriesCount-summary.PracticedCount)
	return err
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and edit the item catalog",
	}
	cmd.PersistentFlags().StringVar(&catalogCategory, "category", "scale", "category (scale or arpeggio)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		Args:  cobra.NoArgs,
		RunE:  runCatalogListCmd,
	}
	listCmd.Flags().StringVar(&catalogNote, "note", "", "filter by note")
	listCmd.Flags().StringVar(&catalogType, "type", "", "filter by type")
	listCmd.Flags().IntVar(&catalogOctaves, "octaves", 0, "filter by octave count")
	listCmd.Flags().StringVar(&catalogEnabled, "enabled", "", "filter by enabled state (true or false)")

	enableCmd := &cobra.Command{
		Use:   "enable <id>...",
		Short: "Enable items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogToggleCmd(cmd, args, true)
		},
	}
	disableCmd := &cobra.Command{
		Use:   "disable <id>...",
		Short: "Disable items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogToggleCmd(cmd, args, false)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Update a single item",
		Args:  cobra.ExactArgs(1),
		RunE:  runCatalogSetCmd,
	}
	setCmd.Flags().Float64Var(&setWeight, "weight", 0, "base weight")
	setCmd.Flags().IntVar(&setBPM, "bpm", 0, "target tempo (0 clears)")
	setCmd.Flags().StringVar(&setArticulation, "articulation", "", "articulation mode (both, separate_only, slurred_only)")
	setCmd.Flags().BoolVar(&setEnabled, "enabled", true, "enabled state")

	cmd.AddCommand(listCmd)
	cmd.AddCommand(enableCmd)
	cmd.AddCommand(disableCmd)
	cmd.AddCommand(setCmd)
	return cmd
}

func catalogCategoryArg() (model.Category, error) {
	category := model.Category(catalogCategory)
	if !category.Valid() {
		return "", fmt.Errorf("invalid --category %q", catalogCategory)
	}
	return category, nil
}

func runCatalogListCmd(cmd *cobra.Command, _ []string) error {
	category, err := catalogCategoryArg()
	if err != nil {
		return err
	}
	filter := model.CatalogFilter{
		Note:    catalogNote,
		Type:    catalogType,
		Octaves: catalogOctaves,
	}
	if catalogEnabled != "" {
		enabled, err := strconv.ParseBool(catalogEnabled)
		if err != nil {
			return fmt.Errorf("invalid --enabled %q", catalogEnabled)
		}
		filter.Enabled = &enabled
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	items, err := st.ListItems(context.Background(), category, filter)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	return render.Catalog(cmd.OutOrStdout(), items)
}

func runCatalogToggleCmd(cmd *cobra.Command, args []string, enabled bool) error {
	category, err := catalogCategoryArg()
	if err != nil {
		return err
	}
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	updated, err := st.BulkEnable(context.Background(), category, ids, enabled)
	if err != nil {
		return fmt.Errorf("failed to update items: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %d item(s)\n", updated)
	return err
}

func runCatalogSetCmd(cmd *cobra.Command, args []string) error {
	category, err := catalogCategoryArg()
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", args[0])
	}

	var update store.CatalogUpdate
	if cmd.Flags().Changed("weight") {
		if setWeight <= 0 {
			return fmt.Errorf("--weight must be > 0")
		}
		update.Weight = &setWeight
	}
	if cmd.Flags().Changed("bpm") {
		update.TargetBPM = &setBPM
	}
	if cmd.Flags().Changed("articulation") {
		mode := model.ArticulationMode(setArticulation)
		if !mode.Valid() {
			return fmt.Errorf("invalid --articulation %q", setArticulation)
		}
		update.ArticulationMode = &mode
	}
	if cmd.Flags().Changed("enabled") {
		update.Enabled = &setEnabled
	}
	if update.Weight == nil && update.TargetBPM == nil && update.ArticulationMode == nil && update.Enabled == nil {
		return fmt.Errorf("nothing to update: pass --weight, --bpm, --articulation or --enabled")
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	item, err := st.UpdateItem(context.Background(), category, id, update)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return render.Catalog(cmd.OutOrStdout(), []model.CatalogItem{item})
}

func newSetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "Manage named selection presets",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved selection sets",
		Args:  cobra.NoArgs,
		RunE:  runSetsListCmd,
	}

	saveCmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the current selection under a name",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetsSaveCmd,
	}
	saveCmd.Flags().BoolVar(&setsUpdate, "update", false, "overwrite an existing set with the current selection")

	loadCmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Load a set: enable its items, disable everything else",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetsLoadCmd,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a selection set",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetsDeleteCmd,
	}

	offCmd := &cobra.Command{
		Use:   "off",
		Short: "Deactivate all sets and disable all items",
		Args:  cobra.NoArgs,
		RunE:  runSetsOffCmd,
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(saveCmd)
	cmd.AddCommand(loadCmd)
	cmd.AddCommand(deleteCmd)
	cmd.AddCommand(offCmd)
	return cmd
}

func runSetsListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	sets, err := st.ListSelectionSets(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list selection sets: %w", err)
	}
	return render.SelectionSets(cmd.OutOrStdout(), sets)
}

func runSetsSaveCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	name := args[0]
	var set model.SelectionSet
	if setsUpdate {
		existing, err := st.GetSelectionSetByName(context.Background(), name)
		if err != nil {
			return fmt.Errorf("failed to find selection set %q: %w", name, err)
		}
		set, err = st.UpdateSelectionSet(context.Background(), existing.ID, store.SelectionSetUpdate{FromCurrent: true})
		if err != nil {
			return fmt.Errorf("failed to update selection set: %w", err)
		}
	} else {
		set, err = st.CreateSelectionSet(context.Background(), name)
		if err != nil {
			return fmt.Errorf("failed to save selection set: %w", err)
		}
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %q with %d scales and %d arpeggios\n",
		set.Name, len(set.ScaleIDs), len(set.ArpeggioIDs))
	return err
}

func runSetsLoadCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	set, err := st.GetSelectionSetByName(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to find selection set %q: %w", args[0], err)
	}
	result, err := st.LoadSelectionSet(context.Background(), set.ID)
	if err != nil {
		return fmt.Errorf("failed to load selection set: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %q: %d scales and %d arpeggios enabled\n",
		set.Name, result.ScalesEnabled, result.ArpeggiosEnabled)
	return err
}

func runSetsDeleteCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	set, err := st.GetSelectionSetByName(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to find selection set %q: %w", args[0], err)
	}
	if err := st.DeleteSelectionSet(context.Background(), set.ID); err != nil {
		return fmt.Errorf("failed to delete selection set: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", set.Name)
	return err
}

func runSetsOffCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.DeactivateSelectionSets(context.Background()); err != nil {
		return fmt.Errorf("failed to deactivate selection sets: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "All selection sets deactivated, all items disabled")
	return err
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and edit the selection algorithm settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShowCmd,
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update settings fields",
		Args:  cobra.NoArgs,
		RunE:  runSettingsSetCmd,
	}
	setCmd.Flags().IntVar(&settingsTotal, "total", 0, "items per generated set")
	setCmd.Flags().Float64Var(&settingsVariation, "variation", 0, "slot size variation in percent")
	setCmd.Flags().Float64Var(&settingsSlurred, "slurred", 0, "slurred articulation chance in percent")
	setCmd.Flags().BoolVar(&settingsOctaveVariety, "octave-variety", true, "penalize repeated octave counts")
	setCmd.Flags().BoolVar(&settingsFocusEnabled, "focus", false, "enable weekly focus")
	setCmd.Flags().StringSliceVar(&settingsFocusKeys, "focus-keys", nil, "weekly focus keys (e.g. C,Fsharp)")
	setCmd.Flags().StringSliceVar(&settingsFocusTypes, "focus-types", nil, "weekly focus types")
	setCmd.Flags().StringSliceVar(&settingsFocusCategories, "focus-categories", nil, "weekly focus categories")
	setCmd.Flags().Float64Var(&settingsFocusBoost, "focus-boost", 0, "weekly focus share in percent")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsResetCmd,
	}

	cmd.AddCommand(showCmd)
	cmd.AddCommand(setCmd)
	cmd.AddCommand(resetCmd)
	return cmd
}

func runSettingsShowCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	cfg, err := st.AlgorithmConfig(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	return printSettings(cmd, cfg)
}

func runSettingsSetCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	cfg, err := st.AlgorithmConfig(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	changed := false
	flags := cmd.Flags()
	if flags.Changed("total") {
		cfg.TotalItems = settingsTotal
		changed = true
	}
	if flags.Changed("variation") {
		cfg.Variation = settingsVariation
		changed = true
	}
	if flags.Changed("slurred") {
		cfg.SlurredPercent = settingsSlurred
		changed = true
	}
	if flags.Changed("octave-variety") {
		cfg.OctaveVariety = settingsOctaveVariety
		changed = true
	}
	if flags.Changed("focus") {
		cfg.WeeklyFocus.Enabled = settingsFocusEnabled
		changed = true
	}
	if flags.Changed("focus-keys") {
		cfg.WeeklyFocus.Keys = settingsFocusKeys
		changed = true
	}
	if flags.Changed("focus-types") {
		cfg.WeeklyFocus.Types = settingsFocusTypes
		changed = true
	}
	if flags.Changed("focus-categories") {
		categories := make([]model.Category, 0, len(settingsFocusCategories))
		for _, raw := range settingsFocusCategories {
			category := model.Category(raw)
			if !category.Valid() {
				return fmt.Errorf("invalid focus category %q", raw)
			}
			categories = append(categories, category)
		}
		cfg.WeeklyFocus.Categories = categories
		changed = true
	}
	if flags.Changed("focus-boost") {
		cfg.WeeklyFocus.ProbabilityIncrease = settingsFocusBoost
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to update: pass at least one settings flag")
	}

	if err := st.SaveAlgorithmConfig(context.Background(), cfg); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	saved, err := st.AlgorithmConfig(context.Background())
	if err != nil {
		return fmt.Errorf("failed to reload settings: %w", err)
	}
	return printSettings(cmd, saved)
}

func runSettingsResetCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.ResetAlgorithmConfig(context.Background()); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	cfg, err := st.AlgorithmConfig(context.Background())
	if err != nil {
		return fmt.Errorf("failed to reload settings: %w", err)
	}
	return printSettings(cmd, cfg)
}

func printSettings(cmd *cobra.Command, cfg config.Algorithm) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and seed the item catalog",
		Args:  cobra.NoArgs,
		RunE:  runInitCmd,
	}
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	result, err := st.SeedCatalog(context.Background())
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if !result.Seeded {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "Catalog already seeded")
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d scales and %d arpeggios (disabled). Enable with: arco catalog enable\n",
		result.Scales, result.Arpeggios)
	return err
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	srv := server.New(st, selector.New(st))
	logErrf("Listening on http://%s\n", serveAddr)
	if err := http.ListenAndServe(serveAddr, srv); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Database.Path)
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func parseRef(raw string) (model.ItemRef, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return model.ItemRef{}, fmt.Errorf("invalid item reference %q (want category:id)", raw)
	}
	category := model.Category(parts[0])
	if !category.Valid() {
		return model.ItemRef{}, fmt.Errorf("invalid category in %q", raw)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return model.ItemRef{}, fmt.Errorf("invalid id in %q", raw)
	}
	return model.ItemRef{Category: category, ID: id}, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# arco configuration
# Uncomment a value to enable it. CLI flags override config values.

[database]
# path = "~/.local/share/arco/arco.db"  # SQLite database location

[serve]
# addr = %q  # HTTP listen address for arco serve
`, defaultServeAddr)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
