package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/vanderheijden86/categorytree/pkg/config"
	"github.com/vanderheijden86/categorytree/pkg/export"
	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/loader"
	"github.com/vanderheijden86/categorytree/pkg/logging"
	"github.com/vanderheijden86/categorytree/pkg/model"
	"github.com/vanderheijden86/categorytree/pkg/store"
	"github.com/vanderheijden86/categorytree/pkg/treestate"
	"github.com/vanderheijden86/categorytree/pkg/ui"
)

const version = "0.1.0"

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	initFlag := flag.Bool("init", false, "Create .ct/config.yaml in the current directory")
	sourceFlag := flag.String("source", "", "Category file or database (overrides the config)")
	debug := flag.Bool("debug", false, "Log at debug level")
	robotTree := flag.Bool("robot-tree", false, "Print the nested category tree as JSON")
	robotValidate := flag.Bool("robot-validate", false, "Check the source for cycles and broken parents, print JSON, exit 1 on problems")
	exportMD := flag.String("export-md", "", "Export the tree to a Markdown file")
	exportSVG := flag.String("export-svg", "", "Export the tree to an SVG file")
	exportPNG := flag.String("export-png", "", "Export the tree to a PNG file")
	flag.Parse()

	if *help {
		fmt.Println("Usage: ct [options]")
		fmt.Println("\nBrowse and reorganize a category tree in the terminal.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("ct %s\n", version)
		os.Exit(0)
	}

	if *initFlag {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting current directory: %v\n", err)
			os.Exit(1)
		}
		path, created, err := config.InitProject(cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
			os.Exit(1)
		}
		if created {
			fmt.Printf("Created %s\n", path)
		} else {
			fmt.Printf("%s already exists\n", path)
		}
		if err := loader.EnsureStateDirInGitignore(cwd, config.StateDirName); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not update .gitignore: %v\n", err)
		}
		os.Exit(0)
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *sourceFlag != "" {
		cfg.Source.Path, _ = filepath.Abs(*sourceFlag)
		cfg.Source.Kind = config.InferSourceKind(*sourceFlag)
	}

	logOpts := logging.Options{Debug: *debug || cfg.Log.Debug, JSON: cfg.Log.JSON}
	if cfg.LogEnabled() {
		logOpts.Path = cfg.Log.Path
	}
	if err := logging.Init(logOpts); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer logging.Sync()
	log := logging.Named("main")

	st, err := store.Open(cfg.Source.Kind, cfg.Source.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", cfg.Source.Path, err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	forest, err := st.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading categories: %v\n", err)
		os.Exit(1)
	}
	log.Infow("categories loaded", "source", st.Path(), "kind", cfg.Source.Kind, "count", forest.Len())

	if *robotTree {
		if err := writeRobotTree(os.Stdout, st.Path(), forest); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding tree: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *robotValidate {
		report, err := validateSource(cfg.Source.Kind, st.Path(), forest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error validating categories: %v\n", err)
			os.Exit(1)
		}
		if err := writeJSON(os.Stdout, report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			os.Exit(1)
		}
		if !report.Valid {
			os.Exit(1)
		}
		os.Exit(0)
	}

	targets := exportTargets{Markdown: *exportMD, SVG: *exportSVG, PNG: *exportPNG}
	if !targets.empty() {
		title := exportTitle(st.Path())
		if err := runExports(ctx, forest, title, targets); err != nil {
			fmt.Printf("Error exporting: %v\n", err)
			os.Exit(1)
		}
		for _, p := range targets.paths() {
			fmt.Printf("Exported %s\n", p)
		}
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "ct needs an interactive terminal; use --robot-tree or --export-md for scripted use")
		os.Exit(1)
	}

	if cfg.Root != "" {
		if _, err := os.Stat(filepath.Join(cfg.Root, config.StateDirName)); err == nil {
			if err := loader.EnsureStateDirInGitignore(cfg.Root, config.StateDirName); err != nil {
				log.Warnw("could not update .gitignore", "error", err)
			}
		}
	}

	afterMode, err := treestate.ParseAfterMode(cfg.Tree.AfterMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in config: %v\n", err)
		os.Exit(1)
	}

	worker, err := ui.NewBackgroundWorker(ui.WorkerConfig{
		Source:        st,
		DebounceDelay: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		Watch:         cfg.WatchEnabled(),
	})
	if err != nil {
		// live reload is optional
		log.Warnw("file watcher unavailable", "error", err)
		worker, _ = ui.NewBackgroundWorker(ui.WorkerConfig{Source: st})
	}
	worker.Prime(forest)

	m := ui.NewModel(forest, ui.Options{
		Source: filepath.Base(st.Path()),
		Tree: ui.TreeOptions{
			Persistence: treestate.NewFilePersistence(cfg.State.Dir, cfg.State.Key),
			AfterMode:   afterMode,
			IndentWidth: cfg.Tree.IndentWidth,
			Icons:       cfg.IconsEnabled(),
		},
		Writer: ui.NewCategoryWriter(st),
		Worker: worker,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithReportFocus())
	worker.SetProgram(p)
	if err := worker.Start(); err != nil {
		log.Warnw("live reload disabled", "error", err)
	}
	defer worker.Stop()

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running ct: %v\n", err)
		os.Exit(1)
	}
}

// robotTree is the --robot-tree payload.
type robotTree struct {
	Source      string           `json:"source"`
	GeneratedAt time.Time        `json:"generated_at"`
	Count       int              `json:"count"`
	Roots       int              `json:"roots"`
	Categories  []model.Category `json:"categories"`
}

func writeRobotTree(w io.Writer, source string, f *hierarchy.Forest) error {
	cats := f.Nested()
	if cats == nil {
		cats = []model.Category{}
	}
	return writeJSON(w, robotTree{
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		Count:       f.Len(),
		Roots:       len(f.Roots()),
		Categories:  cats,
	})
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// validationReport is the --robot-validate payload.
type validationReport struct {
	Source     string              `json:"source"`
	Categories int                 `json:"categories"`
	Valid      bool                `json:"valid"`
	Cycles     [][]int             `json:"cycles,omitempty"`
	Problems   []hierarchy.Problem `json:"problems"`
}

// validateSource checks the rows as stored. JSON files are re-read so
// cycles the tree builder broke apart are still reported. SQLite rows are
// checked through the loaded forest, whose broken ids count as cycles.
func validateSource(kind, path string, f *hierarchy.Forest) (validationReport, error) {
	report := validationReport{Source: path, Problems: []hierarchy.Problem{}}

	var rows []model.Category
	if kind == config.SourceSQLite {
		rows = f.Flatten()
		for _, id := range f.Broken() {
			report.Problems = append(report.Problems, hierarchy.Problem{
				ID:      id,
				Kind:    hierarchy.ProblemCycle,
				Message: "category was detached from a parent cycle",
			})
		}
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			report.Valid = true
			return report, nil
		}
		cats, err := loader.LoadCategoriesFromFile(path)
		if err != nil {
			return report, err
		}
		rows = cats
		if loader.IsNested(cats) {
			rows = hierarchy.Build(cats).Flatten()
		}
	}
	report.Categories = len(rows)

	problems, err := hierarchy.Validate(rows)
	var cycleErr *hierarchy.CycleError
	switch {
	case errors.As(err, &cycleErr):
		report.Cycles = cycleErr.Cycles
	case errors.Is(err, hierarchy.ErrDuplicateID):
		problems = append(problems, hierarchy.Problem{Kind: "duplicate_id", Message: err.Error()})
	case err != nil:
		return report, err
	}
	report.Problems = append(report.Problems, problems...)
	report.Valid = len(report.Problems) == 0
	return report, nil
}

// exportTargets holds the output files of one export run.
type exportTargets struct {
	Markdown string
	SVG      string
	PNG      string
}

func (t exportTargets) empty() bool {
	return t.Markdown == "" && t.SVG == "" && t.PNG == ""
}

func (t exportTargets) paths() []string {
	var out []string
	for _, p := range []string{t.Markdown, t.SVG, t.PNG} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// runExports writes every requested format concurrently. The first failure
// is returned.
func runExports(ctx context.Context, f *hierarchy.Forest, title string, t exportTargets) error {
	g, _ := errgroup.WithContext(ctx)
	if t.Markdown != "" {
		g.Go(func() error { return export.SaveMarkdownToFile(f, title, t.Markdown) })
	}
	if t.SVG != "" {
		g.Go(func() error { return export.SaveSVGToFile(f, title, t.SVG) })
	}
	if t.PNG != "" {
		g.Go(func() error { return export.SavePNGToFile(f, title, t.PNG) })
	}
	return g.Wait()
}

// exportTitle names an export after its source file.
func exportTitle(source string) string {
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." {
		return "Categories"
	}
	return fmt.Sprintf("Categories: %s", name)
}
