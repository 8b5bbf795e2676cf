package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"markestedt/textrewriter/completion"
	"markestedt/textrewriter/config"
	"markestedt/textrewriter/platform"
	"markestedt/textrewriter/secrets"
	"markestedt/textrewriter/storage"
	"markestedt/textrewriter/systray"
	"markestedt/textrewriter/web"
)

var (
	version    = "0.1.0"
	configFile string
	debug      bool
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var noTray bool

	rootCmd := &cobra.Command{
		Use:     "textrewriter",
		Short:   "Rewrite text in any app with a keyboard shortcut",
		Version: version,
		Long: `TextRewriter watches for two global shortcuts:

  Rewrite All Text       selects everything in the focused field first
  Rewrite Selected Text  rewrites the current selection

The text is copied, sent to the chat completion API and pasted back.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(noTray)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&noTray, "no-tray", false, "Run without the menu bar icon")

	rootCmd.AddCommand(runCmd(), rewriteCmd(), setKeyCmd(), shortcutsCmd(), configPathCmd())
	return rootCmd
}

func setupLogging(w io.Writer) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

func runCmd() *cobra.Command {
	var noTray bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Listen for shortcuts (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(noTray)
		},
	}
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "Run without the menu bar icon")
	return cmd
}

func runAgent(noTray bool) error {
	setupLogging(os.Stdout)

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return err
	}
	slog.Info("Configuration loaded", "path", cfg.Path())

	store := secrets.NewStore()
	if !store.HasAPIKey() {
		slog.Warn("No OpenAI API key configured. Run 'textrewriter set-key' or set OPENAI_API_KEY")
	}

	var db *storage.DB
	if cfg.History.Enabled {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		db, err = storage.Open(dir)
		if err != nil {
			slog.Error("Failed to open history database", "error", err)
			return err
		}
		defer db.Close()
	}

	agent := NewAgent(cfg, AgentDeps{
		Keys:      platform.NewKeySource(),
		Clipboard: platform.NewClipboard(),
		Keyboard:  platform.NewKeyboard(),
		Completer: completion.NewClient(cfg.Rewrite.BaseURL, cfg.Timeout()),
		Secrets:   store,
		DB:        db,
	})

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	webURL := ""
	if cfg.Web.Enabled {
		server := web.NewServer(agent, db, cfg.Web.Port)
		webURL = server.URL()
		agent.OnResult(server.BroadcastResult)
		agent.OnStatus(server.BroadcastStatus)

		go func() {
			if err := server.Run(ctx); err != nil {
				slog.Error("Web server error", "error", err)
			}
		}()
	}

	var tray *systray.SystrayManager
	if !noTray {
		tray = systray.NewSystrayManager(agent, webURL, nil)
		agent.OnResult(tray.SetResult)
		agent.OnStatus(func(status string) {
			tray.SetStatus(status)
			tray.RefreshShortcuts()
		})
	}

	agentErr := make(chan error, 1)
	go func() {
		agentErr <- agent.Run(ctx)
		cancel()
	}()

	if tray != nil {
		go func() {
			select {
			case <-ctx.Done():
				tray.Stop()
			case <-tray.WaitForQuit():
				cancel()
			}
		}()

		// systray needs the main goroutine on macOS
		tray.Run()
		cancel()
	}

	if err := <-agentErr; err != nil {
		slog.Error("Agent error", "error", err)
		return err
	}

	slog.Info("TextRewriter stopped")
	return nil
}

func rewriteCmd() *cobra.Command {
	var prompt, model string
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite text from stdin and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(os.Stderr)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			text := string(input)
			if strings.TrimSpace(text) == "" {
				return errors.New("no text found on stdin")
			}

			key, err := secrets.NewStore().APIKey()
			if err != nil {
				return err
			}

			if prompt == "" {
				prompt = cfg.Rewrite.SystemPrompt
			}
			if model == "" {
				model = cfg.Rewrite.Model
			}

			client := completion.NewClient(cfg.Rewrite.BaseURL, cfg.Timeout())
			out, err := client.Complete(cmd.Context(), completion.Request{
				Text:   text,
				Prompt: prompt,
				APIKey: key,
				Model:  model,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "Override the system prompt")
	cmd.Flags().StringVar(&model, "model", "", "Override the model")
	return cmd
}

func setKeyCmd() *cobra.Command {
	var del bool
	cmd := &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the OpenAI API key in the system keychain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := secrets.NewStore()
			if del {
				if err := store.DeleteAPIKey(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓"), "API key removed")
				return nil
			}

			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				fmt.Fprint(cmd.ErrOrStderr(), "OpenAI API key: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("failed to read key: %w", err)
				}
				key = line
			}

			if err := store.SetAPIKey(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓"), "API key stored")
			return nil
		},
	}
	cmd.Flags().BoolVar(&del, "delete", false, "Remove the stored key")
	return cmd
}

func shortcutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shortcuts",
		Short: "Show the configured shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-24s %s\n", "Rewrite All Text", color.CyanString(cfg.ShortcutAll().String()))
			fmt.Fprintf(w, "%-24s %s\n", "Rewrite Selected Text", color.CyanString(cfg.ShortcutHighlighted().String()))

			keyStatus := color.RedString("✗ missing")
			if secrets.NewStore().HasAPIKey() {
				keyStatus = color.GreenString("✓ configured")
			}
			fmt.Fprintf(w, "%-24s %s\n", "API key", keyStatus)
			return nil
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config-path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" {
				var err error
				path, err = config.ConfigPath()
				if err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
