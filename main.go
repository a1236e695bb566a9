package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"logchat/agent"
	"logchat/config"
	"logchat/model"
	"logchat/provider"
	"logchat/ratelimit"
	"logchat/storage"
	"logchat/ui"
)

const Version = "v0.1.0"

var (
	logsPath    string
	backendFlag string
	tierFlag    string
	vendorFlag  string
)

// errCancelled ends startup quietly when the user backs out of a prompt.
var errCancelled = errors.New("cancelled")

var rootCmd = &cobra.Command{
	Use:     "logchat",
	Short:   "Chat with an assistant about your system logs",
	Version: Version,
	Long: `logchat is a terminal chat assistant for a corpus of system logs.

The assistant searches the logs, groups recurring errors, traces an error
back through the entries before it and filters your log view. It can run on
a hosted model, a model already on this machine, or a model downloaded on
first use.

Run without arguments to start the interactive chat.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

var importCmd = &cobra.Command{
	Use:   "import <file.jsonl>...",
	Short: "Import JSON Lines log files into the corpus",
	Long: `Imports log entries, one JSON object per line:

  {"id": "...", "timestamp": "2025-03-14T09:00:00Z", "level": "ERROR", "daemon": "wifid", "message": "..."}

A file is imported completely or not at all. Entries whose id is already in
the corpus are skipped; entries without an id get a generated one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "List exported conversation transcripts",
	Args:  cobra.NoArgs,
	RunE:  runTranscripts,
}

func init() {
	rootCmd.Flags().StringVar(&logsPath, "logs", "", "import a JSON Lines log file before starting")
	rootCmd.Flags().StringVar(&backendFlag, "backend", "", "backend to start with: hosted, ondevice or downloadable")
	rootCmd.Flags().StringVar(&tierFlag, "tier", "", "hosted tier to request")
	rootCmd.PersistentFlags().StringVar(&vendorFlag, "vendor", "", "hosted vendor: gemini, openai, anthropic or openrouter")
	rootCmd.AddCommand(importCmd, transcriptsCmd)
}

func main() {
	err := rootCmd.Execute()
	config.SyncDebugLog()
	if err != nil && !errors.Is(err, errCancelled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration, applies command line overrides and
// starts debug logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.InitDebugLog(cfg.DataDir())

	if vendorFlag != "" {
		cfg.Vendor = vendorFlag
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if tierFlag != "" {
		cfg.DefaultTier = tierFlag
	}
	if _, err := parseBackend(cfg.Backend); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openCorpus(cfg *config.Config) (*storage.DB, *storage.LogStore, error) {
	db, err := storage.Open(config.DatabasePath(cfg.DataDir()))
	if err != nil {
		return nil, nil, err
	}
	logs, err := storage.NewLogStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, logs, nil
}

func importFile(logs *storage.LogStore, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	n, err := logs.ImportJSONL(f)
	if err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", path, err)
	}
	config.DebugLog.Infof("[Main] Imported %d entries from %s", n, path)
	return n, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, logs, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, path := range args {
		n, err := importFile(logs, path)
		if err != nil {
			return err
		}
		cmd.Printf("Imported %d entries from %s\n", n, path)
	}
	cmd.Printf("Corpus now holds %d entries from %d daemons\n", logs.Count(), len(logs.Daemons()))
	return nil
}

func runTranscripts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	transcripts, err := storage.NewTranscriptStorage(cfg.DataDir())
	if err != nil {
		return err
	}
	list, err := transcripts.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		cmd.Println("No transcripts yet. Press Ctrl+E in a chat to export one.")
		return nil
	}
	for _, t := range list {
		cmd.Printf("%s  %-40s %3d messages  %s\n", t.SavedAt.Local().Format("2006-01-02 15:04"), t.Name, t.MessageCount, t.Path)
	}
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return showError("Configuration Error", err)
	}

	db, logs, err := openCorpus(cfg)
	if err != nil {
		return showError("Storage Error", err)
	}
	defer db.Close()

	if logsPath != "" {
		if _, err := importFile(logs, logsPath); err != nil {
			return showError("Import Failed", err)
		}
	}

	transcripts, err := storage.NewTranscriptStorage(cfg.DataDir())
	if err != nil {
		return showError("Storage Error", err)
	}
	findings := storage.NewFindingsStore(db)

	vendor := provider.MapVendorToType(cfg.Vendor)
	creds := config.NewCredentialStore(cfg.DataDir(), cfg.SecurityMethod, cfg.SSHKeyPath, string(vendor), cfg.EnvAPIKey)
	if err := unlockCredentials(creds, cfg.SSHKeyPath); err != nil {
		if errors.Is(err, errCancelled) {
			return err
		}
		return showError("Credentials Error", err)
	}

	consent, err := config.LoadConsentStore(cfg.DataDir())
	if err != nil {
		return showError("Configuration Error", err)
	}

	backends, err := provider.InitializeBackends(cfg, creds, consent)
	if err != nil {
		return showError("Model Configuration Error", err)
	}

	kind, _ := parseBackend(cfg.Backend)
	logView := ui.NewLogView(logs)
	notifier := &ui.Notifier{}

	conv, err := agent.NewConversation(agent.Options{
		Backends:    backends.Map(),
		Backend:     kind,
		Tier:        pickTier(cfg.DefaultTier, backends.Hosted.Tiers()),
		Corpus:      logs,
		Daemons:     logs,
		Filters:     logView,
		Navigator:   logView,
		Findings:    findings,
		Credentials: creds,
		Consent:     consent,
		Advisor:     backends.Hosted,
		OnUpdate:    notifier.Notify,
	})
	if err != nil {
		backends.Close()
		return showError("Startup Error", err)
	}
	defer func() {
		if err := conv.Close(); err != nil {
			config.DebugLog.Warnf("[Main] Failed to close conversation: %v", err)
		}
	}()

	app := ui.NewAppView(ui.AppOptions{
		Conversation:  conv,
		Logs:          logView,
		Findings:      findings,
		Transcripts:   transcripts,
		DownloadModel: cfg.DownloadModel,
		SaveSelection: func(backend model.BackendKind, tier string) error {
			return config.SaveSelection(cfg.DataDir(), string(backend), tier)
		},
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	notifier.Attach(p)

	config.DebugLog.Infof("[Main] Starting chat: backend=%s vendor=%s corpus=%d entries", kind, vendor, logs.Count())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running logchat: %w", err)
	}
	return nil
}

// unlockCredentials loads saved credentials, asking for the SSH key
// passphrase when the sealing key is encrypted.
func unlockCredentials(creds *config.CredentialStore, keyPath string) error {
	err := creds.Load()
	if !errors.Is(err, config.ErrPassphraseRequired) {
		return err
	}

	final, err := tea.NewProgram(ui.NewPassphraseModal(creds, keyPath), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("failed to run passphrase prompt: %w", err)
	}
	if pm, ok := final.(ui.PassphraseModal); !ok || !pm.Unlocked() {
		return errCancelled
	}
	return nil
}

// showError displays err in a modal and returns it.
func showError(title string, err error) error {
	config.DebugLog.Errorf("[Main] %s: %v", title, err)
	if _, runErr := tea.NewProgram(ui.NewErrorModal(title, err.Error()), tea.WithAltScreen()).Run(); runErr != nil {
		config.DebugLog.Warnf("[Main] Failed to show error modal: %v", runErr)
	}
	return err
}

func parseBackend(name string) (model.BackendKind, error) {
	switch kind := model.BackendKind(name); kind {
	case model.KindHosted, model.KindOnDevice, model.KindDownloadable:
		return kind, nil
	case "":
		return model.KindHosted, nil
	}
	return "", fmt.Errorf("unknown backend %q (want hosted, ondevice or downloadable)", name)
}

// pickTier returns requested when the hosted vendor has it. Otherwise it
// returns "" so the conversation starts on the first tier.
func pickTier(requested string, tiers []ratelimit.Tier) string {
	for _, t := range tiers {
		if t.Name == requested {
			return requested
		}
	}
	if requested != "" {
		config.DebugLog.Warnf("[Main] Tier %q is not offered by the hosted vendor, using the default", requested)
	}
	return ""
}
