package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/keycoach/internal/engine"
	"github.com/verte-zerg/keycoach/internal/model"
)

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# keycoach configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# user = 1                  # Registered user id (0 practices as guest)
# learn-mode = true         # Block the cursor on mistakes
# easy-words = ""           # Word list replacing the built-in easy words

[server]
# addr = %q             # Listen address for keycoach serve
# allow-origins = []        # CORS origins (empty allows any)

[engine]
# initial-words = %d        # Words in the first text of a session
# analysis-interval = %d    # Seconds between analysis checkpoints
# analysis-chars = %d       # Characters between analysis checkpoints
# history-limit = 0         # Keystrokes fed to each analysis (0 for all)
`,
		defaultAddr,
		engine.DefaultInitialWords,
		int(engine.DefaultAnalysisInterval.Seconds()),
		engine.DefaultAnalysisChars,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.UserID < 0 {
		return fmt.Errorf("--user must be >= 0")
	}
	if cfg.EasyWordsPath != "" {
		if _, err := os.Stat(cfg.EasyWordsPath); err != nil {
			return fmt.Errorf("--easy-words: %w", err)
		}
	}
	return nil
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
