package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"regex-workbench/api"
	"regex-workbench/config"
	"regex-workbench/engine"
	"regex-workbench/macro"
	"regex-workbench/preset"
	"regex-workbench/script"
	"regex-workbench/store"
)

var (
	configPath string
	serveAddr  string
	ioScope    string
	outPath    string
)

var rootCmd = &cobra.Command{
	Use:          "regex-workbench",
	Short:        "Regex find/replace pipeline for chat text",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import scripts from a JSON file into a scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a scope's scripts as JSON",
	RunE:  runExport,
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a script file without importing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	importCmd.Flags().StringVar(&ioScope, "scope", "global", "target scope")
	exportCmd.Flags().StringVar(&ioScope, "scope", "global", "source scope")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	log, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	scriptsPath := filepath.Join(cfg.DataDir, "scripts.json")
	presetsPath := filepath.Join(cfg.DataDir, "presets.json")

	st, err := store.New(scriptsPath, log.Named("store"))
	if err != nil {
		return err
	}
	st.SetExtraMacros(cfg.Macros)

	pm, err := preset.NewManager(presetsPath, st, log.Named("preset"))
	if err != nil {
		return err
	}

	eng := engine.New(st, macro.New(), cfg.CacheSize, log.Named("engine"))

	if cfg.Watch {
		w, err := store.NewWatcher([]string{scriptsPath, presetsPath}, func() {
			if err := st.Reload(); err != nil {
				log.Warn("store reload failed", zap.Error(err))
			}
			if err := pm.Reload(); err != nil {
				log.Warn("preset reload failed", zap.Error(err))
			}
			eng.Cache().Clear()
		}, log.Named("watch"))
		if err != nil {
			log.Warn("file watching disabled", zap.Error(err))
		} else {
			w.Start()
			defer w.Stop()
		}
	}

	router := api.RegisterRoutes(st, eng, pm, log.Named("api"))
	log.Info("regex-workbench listening", zap.String("addr", cfg.Addr))
	return http.ListenAndServe(cfg.Addr, router)
}

func runImport(cmd *cobra.Command, args []string) error {
	scope, ok := script.ParseScope(ioScope)
	if !ok {
		return fmt.Errorf("unknown scope %q", ioScope)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	st, err := store.New(filepath.Join(cfg.DataDir, "scripts.json"), zap.NewNop())
	if err != nil {
		return err
	}
	imported, warnings, err := st.Import(scope, payload)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Printf("imported %d script(s) into %s scope\n", len(imported), scope)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	scope, ok := script.ParseScope(ioScope)
	if !ok {
		return fmt.Errorf("unknown scope %q", ioScope)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	st, err := store.New(filepath.Join(cfg.DataDir, "scripts.json"), zap.NewNop())
	if err != nil {
		return err
	}
	scripts := st.Scripts(scope, false)
	if scripts == nil {
		scripts = []script.Script{}
	}
	data, err := json.MarshalIndent(scripts, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(outPath, data, 0644)
}

func runCheck(cmd *cobra.Command, args []string) error {
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	scripts, err := script.DecodeImport(payload)
	if err != nil {
		return err
	}

	bad := 0
	for i := range scripts {
		s := &scripts[i]
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("entry %d", i+1)
		}
		script.Normalize(s)
		warnings, err := script.Validate(s)
		if err != nil {
			fmt.Printf("%s: error: %v\n", name, err)
			bad++
			continue
		}
		for _, w := range warnings {
			fmt.Printf("%s: warning: %s\n", name, w)
		}
		if s.FindRegex == "" {
			continue
		}
		if _, err := engine.Compile(s.FindRegex); err != nil {
			// Patterns with macro substitution enabled may only compile
			// once the tokens are filled in, so flag those softly.
			if s.Substitute != script.SubstituteNone {
				fmt.Printf("%s: warning: %v\n", name, err)
				continue
			}
			fmt.Printf("%s: error: %v\n", name, err)
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d script(s) failed validation", bad)
	}
	fmt.Printf("%d script(s) ok\n", len(scripts))
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
