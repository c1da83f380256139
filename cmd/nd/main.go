// Package main provides the nd CLI: parse and export NodeKit Blender
// presets, diff and merge scripts, and keep snapshots in a local store.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nodediff/blender"
	"nodediff/config"
	"nodediff/diff"
	"nodediff/gitio"
	"nodediff/merge"
	"nodediff/script"
	"nodediff/store"
)

const (
	ndDir  = ".nd"
	dbFile = "db.sqlite"
)

// Version is the current nd CLI version.
var Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:     "nd",
	Short:   "nd - structural versioning for node-graph documents",
	Long:    `nd parses NodeKit Blender presets into a structural model, diffs two versions of a document, merges concurrent diffs against a common ancestor, and exports the result back to the editor's preset format.`,
	Version: Version,
}

var parseCmd = &cobra.Command{
	Use:   "parse <preset-name> <preset.json>",
	Short: "Parse a NodeKit Blender preset into a script",
	Args:  cobra.ExactArgs(2),
	RunE:  runParse,
}

var exportCmd = &cobra.Command{
	Use:   "export <preset-name> <script.json>",
	Short: "Export a script back to a NodeKit Blender preset",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

var diffCmd = &cobra.Command{
	Use:   "diff <script1.json> [script2.json]",
	Short: "Diff two scripts",
	Long: `Diff two scripts.

With two positional files the diff runs between them. With --repo, a single
path is read at --base and --head refs of a Git repository instead:

  nd diff script1.json script2.json
  nd diff --repo . --base main --head feature preset.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDiff,
}

var mergeCmd = &cobra.Command{
	Use:   "merge <ancestor.json> <diff1.json> <diff2.json>",
	Short: "Merge two script diffs against their common ancestor",
	Args:  cobra.ExactArgs(3),
	RunE:  runMerge,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <script.json>",
	Short: "Store a script in the artifact database",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List stored artifacts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

var (
	outputPath string
	indentSize int
	configPath string

	// Export flags
	rebuildPath string
	shadingType string
	isShading   bool

	// Diff flags
	visOutputPath string
	repoPath      string
	baseRef       string
	headRef       string
	storeArtifact bool

	// Log flags
	logKind string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputPath, "out", "o", "", "Output file (default depends on the command)")
	rootCmd.PersistentFlags().IntVarP(&indentSize, "indent-size", "i", 4, "Indentation size for JSON output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Run configuration file (YAML)")

	exportCmd.Flags().StringVar(&rebuildPath, "rebuild", "blender_rebuild_structure.json", "Preset rebuild structure (JSON)")
	exportCmd.Flags().StringVar(&shadingType, "shading-type", "OBJECT", "Shading type field of the exported preset [OBJECT, WORLD, LINESTYLE]")
	exportCmd.Flags().BoolVar(&isShading, "is-shading", false, "Export a shading node tree instead of a geometry one")

	diffCmd.Flags().StringVarP(&visOutputPath, "blender-vis", "b", "", "Output file for the Blender diff visualization preset")
	diffCmd.Flags().StringVar(&repoPath, "repo", "", "Read the script from a Git repository instead of the worktree")
	diffCmd.Flags().StringVar(&baseRef, "base", "", "Git ref of the first version (with --repo)")
	diffCmd.Flags().StringVar(&headRef, "head", "", "Git ref of the second version (with --repo)")
	diffCmd.Flags().BoolVar(&storeArtifact, "store", false, "Store the diff in the artifact database")

	mergeCmd.Flags().StringVarP(&visOutputPath, "blender-vis", "b", "", "Output file for the Blender merge visualization preset")
	mergeCmd.Flags().BoolVar(&storeArtifact, "store", false, "Store the merge result in the artifact database")

	logCmd.Flags().StringVar(&logKind, "kind", "", "Filter by artifact kind (script, diff, merge)")

	rootCmd.AddCommand(parseCmd, exportCmd, diffCmd, mergeCmd, snapshotCmd, logCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func marshalIndented(v interface{}) ([]byte, error) {
	if indentSize <= 0 {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", strings.Repeat(" ", indentSize))
}

func saveJSON(path string, v interface{}) error {
	data, err := marshalIndented(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// emitJSON writes v to the output file, or to stdout when none is set.
func emitJSON(v interface{}) error {
	if outputPath == "" {
		data, err := marshalIndented(v)
		if err != nil {
			return fmt.Errorf("marshaling output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	return saveJSON(outputPath, v)
}

func openStore() (*store.DB, error) {
	if err := os.MkdirAll(ndDir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s directory: %w", ndDir, err)
	}
	return store.Open(filepath.Join(ndDir, dbFile))
}

func storeJSON(kind store.Kind, name string, v interface{}) (string, error) {
	db, err := openStore()
	if err != nil {
		return "", err
	}
	defer db.Close()

	content, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling artifact: %w", err)
	}
	return db.Put(kind, name, content)
}

func runParse(cmd *cobra.Command, args []string) error {
	presetName, presetPath := args[0], args[1]

	presets := map[string]*blender.Preset{}
	if err := loadJSON(presetPath, &presets); err != nil {
		return err
	}
	preset, ok := presets[presetName]
	if !ok {
		return fmt.Errorf("preset %q not found in %s", presetName, presetPath)
	}

	s, err := blender.ParseScript(preset)
	if err != nil {
		return fmt.Errorf("parsing preset %q: %w", presetName, err)
	}

	out := outputPath
	if out == "" {
		out = fmt.Sprintf("nd_%s.json", presetName)
	}
	if err := saveJSON(out, s); err != nil {
		return err
	}
	fmt.Printf("Script saved at: %s\n", out)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	presetName, scriptPath := args[0], args[1]

	s := &script.Script{}
	if err := loadJSON(scriptPath, s); err != nil {
		return err
	}
	rs, err := blender.LoadRebuildStructure(rebuildPath)
	if err != nil {
		return err
	}
	if isShading {
		rs.EditorType = "ShaderNodeTree"
	} else {
		rs.EditorType = "GeometryNodeTree"
	}
	rs.ShaderType = shadingType

	exported, err := blender.ExportScript(s, rs)
	if err != nil {
		return fmt.Errorf("exporting script: %w", err)
	}

	out := outputPath
	if out == "" {
		out = fmt.Sprintf("blender_%s.json", presetName)
	}
	if err := saveJSON(out, map[string]interface{}{presetName: exported}); err != nil {
		return err
	}
	fmt.Printf("Blender preset saved at: %s\n", out)
	return nil
}

// diffInputs loads the two script versions: from two files, or from two Git
// refs of a single path when --repo is set.
func diffInputs(args []string) (*script.Script, *script.Script, error) {
	if repoPath == "" {
		if len(args) != 2 {
			return nil, nil, fmt.Errorf("two script files required without --repo")
		}
		s1, s2 := &script.Script{}, &script.Script{}
		if err := loadJSON(args[0], s1); err != nil {
			return nil, nil, err
		}
		if err := loadJSON(args[1], s2); err != nil {
			return nil, nil, err
		}
		return s1, s2, nil
	}

	if len(args) != 1 {
		return nil, nil, fmt.Errorf("exactly one path required with --repo")
	}
	if baseRef == "" || headRef == "" {
		return nil, nil, fmt.Errorf("--base and --head required with --repo")
	}
	repo, err := gitio.Open(repoPath)
	if err != nil {
		return nil, nil, err
	}
	s1, err := scriptAt(repo, baseRef, args[0])
	if err != nil {
		return nil, nil, err
	}
	s2, err := scriptAt(repo, headRef, args[0])
	if err != nil {
		return nil, nil, err
	}
	return s1, s2, nil
}

func scriptAt(repo *gitio.Repository, ref, path string) (*script.Script, error) {
	content, err := repo.FileAt(ref, path)
	if err != nil {
		return nil, err
	}
	s := &script.Script{}
	if err := json.Unmarshal(content, s); err != nil {
		return nil, fmt.Errorf("parsing %s at %s: %w", path, ref, err)
	}
	return s, nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	s1, s2, err := diffInputs(args)
	if err != nil {
		return err
	}

	start := time.Now()
	scriptDiff := diff.DiffScripts(s1, s2, diff.MatchGraphs(s1, s2, blender.NodeType), blender.NodeType)

	ignore, err := diff.NewIgnore(cfg.Ignore)
	if err != nil {
		return err
	}
	ignore.StripScript(scriptDiff)

	if err := emitJSON(scriptDiff); err != nil {
		return err
	}
	if storeArtifact {
		digest, err := storeJSON(store.KindDiff, args[0], scriptDiff)
		if err != nil {
			return err
		}
		fmt.Printf("Diff stored as %s\n", digest)
	}

	if visOutputPath != "" {
		diff.ApplyScript(s1, scriptDiff)
		blender.PatchScript(s1, scriptDiff, cfg.Palette)
		if err := saveJSON(visOutputPath, s1); err != nil {
			return err
		}
		fmt.Printf("Blender diff visualization preset saved at: %s\n", visOutputPath)
	}

	fmt.Fprintf(os.Stderr, "Total execution time: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	ancestor := &script.Script{}
	if err := loadJSON(args[0], ancestor); err != nil {
		return err
	}
	diff1, diff2 := &diff.ScriptDiff{}, &diff.ScriptDiff{}
	if err := loadJSON(args[1], diff1); err != nil {
		return err
	}
	if err := loadJSON(args[2], diff2); err != nil {
		return err
	}

	start := time.Now()
	diff.RemoveCommonAdds(diff1, diff2)
	result := merge.MergeScripts(ancestor, diff1, diff2)

	if result.Failed() {
		if err := emitJSON(result.Conflicts); err != nil {
			return err
		}
		if visOutputPath != "" {
			fmt.Fprintln(os.Stderr, "Merge has conflicts, skipping visualization")
		}
		fmt.Fprintf(os.Stderr, "Total execution time: %s\n", time.Since(start).Round(time.Millisecond))
		return nil
	}

	if err := emitJSON(result.Result); err != nil {
		return err
	}
	if storeArtifact {
		digest, err := storeJSON(store.KindMerge, args[0], result.Result)
		if err != nil {
			return err
		}
		fmt.Printf("Merge stored as %s\n", digest)
	}

	if visOutputPath != "" {
		blender.PatchMerge(result.Result, diff1, diff2, cfg)
		if err := saveJSON(visOutputPath, result.Result); err != nil {
			return err
		}
		fmt.Printf("Blender merge visualization preset saved at: %s\n", visOutputPath)
	}

	fmt.Fprintf(os.Stderr, "Total execution time: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]

	// Validate before storing.
	s := &script.Script{}
	if err := loadJSON(scriptPath, s); err != nil {
		return err
	}

	digest, err := storeJSON(store.KindScript, scriptPath, s)
	if err != nil {
		return err
	}
	fmt.Printf("Script stored as %s\n", digest)
	return nil
}

func runLog(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	artifacts, err := db.List(store.Kind(logKind))
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Println("No artifacts stored")
		return nil
	}
	for _, a := range artifacts {
		created := time.UnixMilli(a.CreatedAt).Format(time.RFC3339)
		fmt.Printf("%s  %-6s  %s  %s\n", shortID(a.Digest), a.Kind, created, a.Name)
	}
	return nil
}

// shortID safely truncates a digest string to 12 characters.
func shortID(s string) string {
	if len(s) >= 12 {
		return s[:12]
	}
	return s
}
