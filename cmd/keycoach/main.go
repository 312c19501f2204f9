// Package main provides the CLI entrypoint for keycoach.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keycoach/internal/config"
	"github.com/verte-zerg/keycoach/internal/engine"
	"github.com/verte-zerg/keycoach/internal/generator"
	"github.com/verte-zerg/keycoach/internal/httpapi"
	"github.com/verte-zerg/keycoach/internal/model"
	"github.com/verte-zerg/keycoach/internal/stats"
	"github.com/verte-zerg/keycoach/internal/statsui"
	"github.com/verte-zerg/keycoach/internal/store"
	"github.com/verte-zerg/keycoach/internal/tui"
	"github.com/verte-zerg/keycoach/internal/wordlist"
)

const (
	defaultAddr          = ":8080"
	defaultAnalyzeWindow = 24 * time.Hour
)

var (
	practiceUser      int64
	practiceLearnMode bool
	practiceEasyWords string

	serveAddr    string
	serveOrigins []string

	analyzeSince time.Duration
	analyzeUI    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keycoach",
		Short:         "Adaptive typing trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().Int64Var(&practiceUser, "user", 0, "registered user id (0 practices as guest)")
	rootCmd.Flags().BoolVar(&practiceLearnMode, "learn-mode", true, "block the cursor on mistakes")
	rootCmd.Flags().StringVar(&practiceEasyWords, "easy-words", "", "word list replacing the built-in easy words")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyInt64Config(cmd, "user", &practiceUser, fileCfg.Practice.UserID)
	applyBoolConfig(cmd, "learn-mode", &practiceLearnMode, fileCfg.Practice.LearnMode)
	applyStringConfig(cmd, "easy-words", &practiceEasyWords, fileCfg.Practice.EasyWords)

	cfg := model.Config{
		UserID:        practiceUser,
		LearnMode:     practiceLearnMode,
		EasyWordsPath: practiceEasyWords,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	gen := generator.New()
	if cfg.EasyWordsPath != "" {
		words, err := wordlist.LoadWords(cfg.EasyWordsPath)
		if err != nil {
			return fmt.Errorf("failed to load easy words: %w", err)
		}
		gen.WithEasyWords(words)
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	opts := engine.OptionsFromConfig(fileCfg.Engine.Engine())
	opts.FreeMode = !cfg.LearnMode
	opts.Logger = newLogger(slog.LevelWarn)
	eng := engine.New(st, gen, nil, opts)

	ctx := context.Background()
	account := engine.AccountFor(cfg.UserID)
	m, err := tui.NewModel(ctx, eng, account, "")
	if err != nil {
		if errors.Is(err, engine.ErrProgressMissing) {
			return fmt.Errorf("user %d not found; create one with: keycoach user add <name>", cfg.UserID)
		}
		return fmt.Errorf("failed to start session: %w", err)
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if u, ok := account.(engine.User); ok {
		if err := eng.ForceSaveUser(ctx, u.ID); err != nil {
			logErrf("failed to save progress: %v\n", err)
		}
	}
	logErrf("Session %s\n", m.SessionID())
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the practice API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "CORS origin allowed to call the API (repeatable; default any)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	if !cmd.Flags().Changed("allow-origin") && len(fileCfg.Server.AllowOrigins) > 0 {
		serveOrigins = fileCfg.Server.AllowOrigins
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	logger := newLogger(slog.LevelInfo)
	opts := engine.OptionsFromConfig(fileCfg.Engine.Engine())
	opts.Logger = logger
	eng := engine.New(st, generator.New(), engine.NewRegistry(), opts)

	srv := httpapi.New(eng, st, httpapi.Options{
		Config: model.ServerConfig{Addr: serveAddr, AllowOrigins: serveOrigins},
		Logger: logger,
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [session-id]",
		Short: "Analyze the keystrokes of a session (default: latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnalyzeCmd,
	}
	cmd.Flags().DurationVar(&analyzeSince, "since", defaultAnalyzeWindow, "only keystrokes newer than this (0 for all)")
	cmd.Flags().BoolVar(&analyzeUI, "ui", false, "open the interactive viewer")
	return cmd
}

func runAnalyzeCmd(_ *cobra.Command, args []string) error {
	if analyzeSince < 0 {
		return fmt.Errorf("--since must be >= 0")
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	sessionID := ""
	if len(args) == 1 {
		sessionID = args[0]
	} else {
		id, ok, err := st.LatestSessionID(ctx)
		if err != nil {
			return fmt.Errorf("failed to find latest session: %w", err)
		}
		if !ok {
			return fmt.Errorf("no sessions recorded yet; practice first")
		}
		sessionID = id
	}

	load := func() (stats.Analysis, error) {
		return analyzeSession(ctx, st, sessionID, analyzeSince)
	}
	if analyzeUI {
		program := tea.NewProgram(statsui.NewModel(sessionID, load), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run analysis TUI: %w", err)
		}
		return nil
	}
	a, err := load()
	if err != nil {
		return err
	}
	return stats.RenderAnalysis(os.Stdout, a, stats.DefaultReportOptions(os.Stdout))
}

func analyzeSession(ctx context.Context, st *store.Store, sessionID string, since time.Duration) (stats.Analysis, error) {
	recent, err := st.KeystrokeHistory(ctx, sessionID, 0)
	if err != nil {
		return stats.Analysis{}, fmt.Errorf("failed to load keystrokes: %w", err)
	}
	log := make([]model.KeystrokeEvent, len(recent))
	for i, ev := range recent {
		log[len(recent)-1-i] = ev
	}
	if since > 0 {
		log = stats.Window(log, time.Now().Add(-since))
	}
	return stats.Analyze(log), nil
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage registered users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserAddCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE:  runUserListCmd,
	})
	return cmd
}

func runUserAddCmd(_ *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	id, err := st.CreateUser(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return fmt.Errorf("user %q already exists", args[0])
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Printf("Created user %q with id %d\n", args[0], id)
	fmt.Printf("Practice with: keycoach --user %d\n", id)
	return nil
}

func runUserListCmd(_ *cobra.Command, _ []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	users, err := st.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		logErrln("No users yet. Add one with: keycoach user add <name>")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLEVEL\tSCORE\tBEST WPM")
	for _, u := range users {
		p, _, err := st.UserProgress(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("failed to load progress for %s: %w", u.Name, err)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.1f\n", u.ID, u.Name, p.CurrentLevel, p.TotalScore, p.MaxWPM)
	}
	return tw.Flush()
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

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
