package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/craftable-labs/triage/internal/classify"
	"github.com/craftable-labs/triage/internal/config"
	"github.com/craftable-labs/triage/internal/deals"
	"github.com/craftable-labs/triage/internal/inbox"
	"github.com/craftable-labs/triage/internal/notify"
	"github.com/craftable-labs/triage/internal/pipeline"
	"github.com/craftable-labs/triage/internal/store"
	"github.com/craftable-labs/triage/internal/tone"
	"github.com/craftable-labs/triage/internal/web"
)

var (
	cfgFile   string
	dealsFile string
)

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func resolveDealsPath(cfg *config.Config) string {
	if dealsFile != "" {
		return dealsFile
	}
	if cfg != nil && cfg.Deals.Path != "" {
		return cfg.Deals.Path
	}
	return "data/deals.yaml"
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "triage",
		Short: "Triage - Sales inbox classification and tone scoring",
		Long: `Triage watches a sales inbox, classifies incoming mail by urgency
(URGENT, REPLY_NEEDED, FYI, JUNK), links senders to in-flight deals,
and scores drafts for tone fidelity against your team's style guide.

Urgent mail tied to an active deal raises an alert that can be
delivered by email.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.triage/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dealsFile, "deals", "", "deal directory file (default from config, else ./data/deals.yaml)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(toneCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(addDealCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long:  "Create a new configuration file with your inbox credentials and tone guide settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Triage unread mail once",
		Long:  "Fetch unread emails, classify them, link deals, score tone and raise urgent alerts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Days of unread mail to fetch (default from config)")

	return cmd
}

func statusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent classifications and statistics",
		Long:  "Display recently triaged mail, open alerts and category counts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of recent classifications to show")

	return cmd
}

func toneCmd() *cobra.Command {
	var recipient string

	cmd := &cobra.Command{
		Use:   "tone [file]",
		Short: "Score a draft against the team voice",
		Long: `Score an email draft for tone fidelity against the team style guide.
Reads the draft from the given file, or from stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runTone(recipient, file)
		},
	}

	cmd.Flags().StringVar(&recipient, "recipient", "unknown", "Recipient type from the style guide (e.g. prospect_early, customer)")

	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local dashboard",
		Long: `Start a local web server exposing the triage dashboard API.

The server runs locally on your machine - no data is sent to external
servers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")

	return cmd
}

func addDealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-deal",
		Short: "Add a deal to the deal directory",
		Long:  "Interactively add a deal and its contact addresses to the local deal directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddDeal()
		},
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("📬 Triage Configuration Setup")
	fmt.Println("==============================")
	fmt.Println()

	cfg := &config.Config{}

	fmt.Println("Inbox (IMAP) settings:")
	fmt.Println("  (For Gmail, use an app password: https://support.google.com/accounts/answer/185833)")
	fmt.Println()

	provider := prompt(reader, "Provider (gmail/outlook/imap) [gmail]: ")
	if provider == "" {
		provider = "gmail"
	}
	cfg.Inbox.Provider = provider
	if provider == "imap" {
		cfg.Inbox.Server = prompt(reader, "IMAP server: ")
		fmt.Sscanf(prompt(reader, "IMAP port [993]: "), "%d", &cfg.Inbox.Port)
		if cfg.Inbox.Port == 0 {
			cfg.Inbox.Port = 993
		}
	}
	cfg.Inbox.Email = prompt(reader, "Email address: ")
	cfg.Inbox.Password = prompt(reader, "App password: ")

	fmt.Println()
	fmt.Println("Deal directory:")
	cfg.Deals.Path = prompt(reader, "Path to deals file [data/deals.yaml]: ")
	if cfg.Deals.Path == "" {
		cfg.Deals.Path = "data/deals.yaml"
	}

	fmt.Println()
	fmt.Println("Tone guide (optional):")
	cfg.Style.GuideURL = prompt(reader, "Published style guide URL (blank to skip): ")

	configPath := resolveConfigPath()
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("✅ Configuration saved to: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Add deals with 'triage add-deal'")
	fmt.Println("  2. Run 'triage run' to triage unread mail")
	fmt.Println("  3. Run 'triage serve' for the dashboard")

	return nil
}

func runTriage(days int) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.ValidateNotify(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if days <= 0 {
		days = cfg.Options.FetchDays
	}

	directory, err := deals.LoadFromFile(resolveDealsPath(cfg))
	if err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}
	fmt.Printf("Loaded %d deals (%d active)\n", len(directory.Deals), len(directory.Active()))

	recordStore, err := store.NewStore(store.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer recordStore.Close()

	monitor := inbox.NewMonitor(cfg.Inbox)
	ctx := context.Background()
	if err := monitor.Connect(ctx); err != nil {
		return err
	}
	defer monitor.Disconnect()

	var scorer pipeline.ToneScorer
	if cfg.Style.GuideURL != "" {
		cache := tone.NewCache(tone.NewHTTPSource(cfg.Style.GuideURL))
		scorer = tone.NewScorer(cache)
	}

	processor := pipeline.NewProcessor(monitor, directory, recordStore, scorer)
	if cfg.Notify.Enabled {
		notifier, err := notify.NewNotifier(cfg.Notify)
		if err != nil {
			return fmt.Errorf("failed to create notifier: %w", err)
		}
		processor.WithNotifier(notifier, cfg.Notify.From, cfg.Notify.To)
	}

	summary, err := processor.Run(ctx, days)
	if err != nil {
		return err
	}

	if cfg.Inbox.AutoArchive && len(summary.ProcessedUIDs) > 0 {
		if err := monitor.EnsureFolderExists(cfg.Inbox.ArchiveFolder); err != nil {
			fmt.Printf("⚠️  Could not prepare archive folder: %v\n", err)
		} else if err := monitor.ArchiveEmails(summary.ProcessedUIDs, cfg.Inbox.ArchiveFolder); err != nil {
			fmt.Printf("⚠️  Could not archive processed mail: %v\n", err)
		}
	}

	fmt.Println()
	fmt.Println("📊 Triage Summary")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Checked: %d\n", summary.Checked)
	fmt.Printf("  Processed: %d\n", summary.Processed)
	fmt.Printf("  Failed: %d\n", summary.Failed)
	for _, category := range []classify.Category{classify.CategoryUrgent, classify.CategoryReplyNeeded, classify.CategoryFYI, classify.CategoryJunk} {
		if n := summary.ByCategory[category]; n > 0 {
			fmt.Printf("  %s: %d\n", category, n)
		}
	}
	if summary.Alerts > 0 {
		fmt.Printf("  🚨 Urgent alerts: %d\n", summary.Alerts)
	}

	return nil
}

func runStatus(limit int) error {
	recordStore, err := store.NewStore(store.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer recordStore.Close()

	stats, err := recordStore.GetCategoryStats()
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	total := 0
	for _, n := range stats {
		total += n
	}

	fmt.Println("📊 Triage Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
	fmt.Printf("  Total triaged: %d\n", total)
	for _, category := range []string{"URGENT", "REPLY_NEEDED", "FYI", "JUNK"} {
		fmt.Printf("  %s: %d\n", category, stats[category])
	}

	alerts, err := recordStore.GetRecentAlerts(limit, true)
	if err != nil {
		return fmt.Errorf("failed to get alerts: %w", err)
	}
	if len(alerts) > 0 {
		fmt.Println()
		fmt.Printf("🚨 Open Alerts (%d)\n", len(alerts))
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		for _, a := range alerts {
			fmt.Printf("  #%d %s - %s", a.ID, a.Sender, a.Subject)
			if a.DealName != "" {
				fmt.Printf(" [%s]", a.DealName)
			}
			fmt.Println()
		}
	}

	records, err := recordStore.GetRecentClassifications(limit)
	if err != nil {
		return fmt.Errorf("failed to get recent classifications: %w", err)
	}
	if len(records) > 0 {
		fmt.Println()
		fmt.Printf("📜 Recent Mail (last %d)\n", limit)
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		for _, r := range records {
			marker := map[string]string{
				"URGENT":       "🔴",
				"REPLY_NEEDED": "🟡",
				"FYI":          "🟢",
				"JUNK":         "⚪",
			}[r.Category]
			fmt.Printf("%s %s - %s (%s)\n",
				marker,
				r.ReceivedAt.Format("2006-01-02 15:04"),
				r.Subject,
				r.Sender,
			)
			if r.DealName != "" {
				fmt.Printf("   Deal: %s\n", r.DealName)
			}
		}
	}

	return nil
}

func runTone(recipient, file string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Style.GuideURL == "" {
		return fmt.Errorf("no tone guide configured: set style.guide_url in the config")
	}

	var body []byte
	if file != "" {
		body, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read draft: %w", err)
		}
	} else {
		body, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read draft from stdin: %w", err)
		}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("draft is empty")
	}

	cache := tone.NewCache(tone.NewHTTPSource(cfg.Style.GuideURL))
	scorer := tone.NewScorer(cache)

	score, err := scorer.Score(context.Background(), string(body), recipient)
	if err != nil {
		return fmt.Errorf("failed to score draft: %w", err)
	}
	if score == nil {
		fmt.Println("⚠️  Tone guide is empty; nothing to score against")
		return nil
	}

	fmt.Println("🎯 Tone Score")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Humor: %d\n", score.Scores.Humor)
	fmt.Printf("  Urgency: %d\n", score.Scores.Urgency)
	fmt.Printf("  Warmth: %d\n", score.Scores.Warmth)
	fmt.Printf("  Voice match: %s\n", score.Verdict)
	for _, s := range score.Suggestions {
		fmt.Printf("  💡 %s\n", s)
	}

	return nil
}

func runServe(port int) error {
	configPath := resolveConfigPath()
	var cfg *config.Config
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			fmt.Printf("⚠️  Config exists but failed to load: %v\n", err)
			cfg = nil
		}
	}

	recordStore, err := store.NewStore(store.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer recordStore.Close()

	var cache *tone.Cache
	if cfg != nil && cfg.Style.GuideURL != "" {
		cache = tone.NewCache(tone.NewHTTPSource(cfg.Style.GuideURL))
	}

	server, err := web.NewServer(port, recordStore, cache)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	return server.Start()
}

func runAddDeal() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("➕ Add Deal")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	d := deals.Deal{}

	d.Name = prompt(reader, "Deal name: ")
	d.ID = strings.ToLower(strings.ReplaceAll(d.Name, " ", "-"))
	d.Company = prompt(reader, "Company (optional): ")
	stage := prompt(reader, "Stage (Qualification/Discovery/Evaluation/Confirmation/Negotiation/Closed Won/Closed Lost): ")
	d.Stage = deals.Stage(stage)

	contacts := prompt(reader, "Contact emails (comma separated): ")
	for _, c := range strings.Split(contacts, ",") {
		if addr := strings.TrimSpace(c); addr != "" {
			d.Contacts = append(d.Contacts, addr)
		}
	}

	dealsPath := resolveDealsPath(nil)
	if cfg, err := config.Load(resolveConfigPath()); err == nil {
		dealsPath = resolveDealsPath(cfg)
	}

	var directory *deals.Directory
	if _, err := os.Stat(dealsPath); os.IsNotExist(err) {
		directory = &deals.Directory{}
	} else {
		var err error
		directory, err = deals.LoadFromFile(dealsPath)
		if err != nil {
			return fmt.Errorf("failed to load deals: %w", err)
		}
	}

	if err := directory.Add(d); err != nil {
		return err
	}

	if err := directory.Save(dealsPath); err != nil {
		return fmt.Errorf("failed to save deals: %w", err)
	}

	fmt.Println()
	fmt.Printf("✅ Added %s to the deal directory\n", d.Name)

	return nil
}

func prompt(reader *bufio.Reader, message string) string {
	fmt.Print(message)
	input, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(input)
}
