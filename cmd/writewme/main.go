package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"writewme/internal/agent"
	"writewme/internal/bible"
	"writewme/internal/book"
	"writewme/internal/config"
	"writewme/internal/guard"
	"writewme/internal/llm"
	"writewme/internal/pipeline"
	"writewme/internal/review"
	"writewme/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "writewme",
		Short: "AI-assisted long-form writing assistant",
	}
	dbPath     string
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Default DB path is local to the project
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "writewme.db", "Path to the local book database (SQLite)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")

	rewriteCmd.Flags().Bool("shorten", false, "Treat the instruction as a shortening request (skips the length floor)")
	continueCmd.Flags().Int("rounds", 0, "Maximum continuation rounds, 1-12 (default from config)")
	continueCmd.Flags().Bool("fixed", false, "Run exactly the requested rounds instead of letting the model stop early")
	newChapterCmd.Flags().String("preset", "", "Length preset: short, medium or long")
	addEntityCmd.Flags().String("aliases", "", "Comma-separated aliases")
	addEntityCmd.Flags().String("description", "", "Short description")

	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(continueCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(syncBibleCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(newChapterCmd)
	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(addEntityCmd)
	rootCmd.AddCommand(entitiesCmd)
}

// initStore initializes the SQLite store.
func initStore() (*storage.SQLiteStore, *config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

// initSession wires the full guard pipeline: store, model client, safe-mode
// gate with its terminal resolver, and the session itself. The returned
// cleanup cancels the resolver and closes the store.
func initSession(ctx context.Context) (*pipeline.Session, llm.Client, *config.Config, func(), error) {
	store, cfg, err := initStore()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	client, err := llm.NewClient(ctx, llm.ClientOptions{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
	})
	if err != nil {
		store.Close()
		return nil, nil, nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}

	gate := review.NewGate(cfg.Guard.SafeModeEnabled)
	resolverCtx, cancel := context.WithCancel(ctx)
	resolver := &review.TerminalResolver{In: os.Stdin, Out: os.Stdout}
	go resolver.Run(resolverCtx, gate)

	sess := pipeline.NewSession(cfg, store, client, gate)
	cleanup := func() {
		cancel()
		store.Close()
	}
	return sess, client, cfg, cleanup, nil
}

func reportOutcome(out *pipeline.Outcome) {
	if out.Rejected {
		fmt.Println("🚫 Change rejected in safe-mode review. Chapter left untouched.")
		return
	}
	if out.Guard.Corrected {
		fmt.Println("🛡️  Guards corrected the generated text before applying it.")
	}
	if out.Guard.SummaryText != "" {
		fmt.Printf("📝 Model summary: %s\n", out.Guard.SummaryText)
	}
	fmt.Printf("✅ Chapter %q updated (%d words).\n", out.Chapter.Title, out.Chapter.WordCount())
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <chapter-id> <instruction>",
	Short: "Rewrite a chapter following an instruction, guarded end to end",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sess, _, _, cleanup, err := initSession(ctx)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer cleanup()

		instruction := args[1]
		action := guard.ActionRewrite
		if shorten, _ := cmd.Flags().GetBool("shorten"); shorten {
			action = guard.ActionShorten
		}

		fmt.Println("🚀 Rewriting chapter...")
		out, err := sess.Rewrite(ctx, args[0], instruction, "", action)
		if err != nil {
			log.Fatalf("Rewrite failed: %v", err)
		}
		reportOutcome(out)
	},
}

var continueCmd = &cobra.Command{
	Use:   "continue <chapter-id> <instruction>",
	Short: "Run autonomous continuation rounds on a chapter",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sess, client, cfg, cleanup, err := initSession(ctx)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer cleanup()

		rounds, _ := cmd.Flags().GetInt("rounds")
		if rounds <= 0 {
			rounds = cfg.Guard.MaxRounds
		}
		fixed, _ := cmd.Flags().GetBool("fixed")

		fmt.Printf("🚀 Developing chapter (up to %d rounds)...\n", rounds)
		res, err := agent.NewContinuationAgent(sess, client).Run(ctx, args[0], args[1], rounds, !fixed, "")
		if err != nil {
			log.Fatalf("Continuation failed: %v", err)
		}

		switch res.State {
		case agent.StateDone:
			fmt.Printf("🎉 Chapter declared complete after %d rounds.\n", res.Rounds)
		case agent.StateCancelledByReview:
			fmt.Printf("🚫 Run stopped by safe-mode review after %d applied rounds.\n", res.Rounds)
		default:
			fmt.Printf("⏱️  Round budget exhausted after %d rounds.\n", res.Rounds)
		}
		fmt.Printf("📖 Chapter %q now has %d words.\n", res.Chapter.Title, res.Chapter.WordCount())
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo <chapter-id>",
	Short: "Restore the previous snapshot of a chapter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sess, _, _, cleanup, err := initSession(ctx)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer cleanup()

		ch, ok, err := sess.Undo(ctx, args[0])
		if err != nil {
			log.Fatalf("Undo failed: %v", err)
		}
		if !ok {
			fmt.Println("ℹ️  Nothing to undo.")
			return
		}
		fmt.Printf("↩️  Restored %q (%d words).\n", ch.Title, ch.WordCount())
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo <chapter-id>",
	Short: "Re-apply the change reverted by the last undo",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sess, _, _, cleanup, err := initSession(ctx)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer cleanup()

		ch, ok, err := sess.Redo(ctx, args[0])
		if err != nil {
			log.Fatalf("Redo failed: %v", err)
		}
		if !ok {
			fmt.Println("ℹ️  Nothing to redo.")
			return
		}
		fmt.Printf("↪️  Re-applied %q (%d words).\n", ch.Title, ch.WordCount())
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots <chapter-id>",
	Short: "List the saved versions of a chapter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, _, err := initStore()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		snaps, err := store.ListSnapshots(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to list snapshots: %v", err)
		}
		if len(snaps) == 0 {
			fmt.Println("ℹ️  No snapshots yet.")
			return
		}
		for _, s := range snaps {
			fmt.Printf("v%d  %s  %-24s  %d words\n",
				s.Version, s.CreatedAt.Format("2006-01-02 15:04"), s.Reason, s.Chapter.WordCount())
		}
	},
}

var syncBibleCmd = &cobra.Command{
	Use:   "sync-bible <chapter-id>",
	Short: "Detect new characters and locations in a chapter and add them to the story bible",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sess, client, _, cleanup, err := initSession(ctx)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer cleanup()

		fmt.Println("🔍 Scanning chapter for new story entities...")
		added, err := bible.NewSyncer(sess.Store(), client, sess.GenerateOptions()).Sync(ctx, args[0])
		if err != nil {
			log.Fatalf("Bible sync failed: %v", err)
		}
		if len(added) == 0 {
			fmt.Println("✅ Story bible already up to date.")
			return
		}
		for _, e := range added {
			label := "Character"
			if e.Kind == book.KindLocation {
				label = "Location"
			}
			fmt.Printf("➕ %s: %s — %s\n", label, e.Name, e.Description)
		}
		fmt.Printf("🎉 Added %d entities to the story bible.\n", len(added))
	},
}

var replaceCmd = &cobra.Command{
	Use:   "replace <chapter-id> <find> <replacement>",
	Short: "Literal search/replace over a chapter, with a snapshot taken first",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sess, _, _, cleanup, err := initSession(ctx)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer cleanup()

		ch, count, err := sess.SearchReplace(ctx, args[0], args[1], args[2])
		if err != nil {
			log.Fatalf("Replace failed: %v", err)
		}
		if count == 0 {
			fmt.Println("ℹ️  No occurrences found.")
			return
		}
		fmt.Printf("✅ Replaced %d occurrences in %q.\n", count, ch.Title)
	},
}

var newChapterCmd = &cobra.Command{
	Use:   "new-chapter <book-id> <title>",
	Short: "Create an empty chapter",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, _, err := initStore()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		preset, _ := cmd.Flags().GetString("preset")
		ch, err := store.SaveChapter(ctx, book.Chapter{
			BookID:       args[0],
			Title:        args[1],
			LengthPreset: book.LengthPreset(preset),
		})
		if err != nil {
			log.Fatalf("Failed to create chapter: %v", err)
		}
		fmt.Printf("✅ Created chapter %q (id: %s).\n", ch.Title, ch.ID)
	},
}

var chaptersCmd = &cobra.Command{
	Use:   "chapters <book-id>",
	Short: "List the chapters of a book",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, _, err := initStore()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		chapters, err := store.ListChapters(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to list chapters: %v", err)
		}
		if len(chapters) == 0 {
			fmt.Println("ℹ️  No chapters yet.")
			return
		}
		for _, ch := range chapters {
			fmt.Printf("%s  %-32s  %d words\n", ch.ID, ch.Title, ch.WordCount())
		}
	},
}

var addEntityCmd = &cobra.Command{
	Use:   "add-entity <book-id> <character|location> <name>",
	Short: "Add a story-bible entity by hand",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, _, err := initStore()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		kind := book.EntityKind(strings.ToLower(args[1]))
		if kind != book.KindCharacter && kind != book.KindLocation {
			log.Fatalf("Unknown entity kind %q (want character or location)", args[1])
		}

		aliases, _ := cmd.Flags().GetString("aliases")
		desc, _ := cmd.Flags().GetString("description")

		e, err := store.SaveEntity(ctx, book.Entity{
			BookID:      args[0],
			Kind:        kind,
			Name:        args[2],
			Aliases:     aliases,
			Description: desc,
		})
		if err != nil {
			log.Fatalf("Failed to save entity: %v", err)
		}
		fmt.Printf("✅ Saved %s %q (id: %s).\n", kind, e.Name, e.ID)
	},
}

var entitiesCmd = &cobra.Command{
	Use:   "entities <book-id>",
	Short: "List the story bible of a book",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, _, err := initStore()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		entities, err := store.ListEntities(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to list entities: %v", err)
		}
		if len(entities) == 0 {
			fmt.Println("ℹ️  Story bible is empty.")
			return
		}
		for _, e := range entities {
			fmt.Printf("%-9s  %-24s  %s\n", e.Kind, e.Name, e.Description)
		}
	},
}
