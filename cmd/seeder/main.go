package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/draftkit"
	"github.com/poiesic/draftkit/config"
	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/kb"
	"github.com/poiesic/draftkit/policy"
)

// Demo knowledge-base articles, one per line as "source|title|body".
var articles = []string{
	"billing-faq.md|Billing FAQ|Invoices are issued on the first business day of each month. Payment is due within 30 days. We accept credit cards and bank transfers.",
	"billing-faq.md|Billing FAQ|To update your payment method, open Settings, choose Billing, and select Update card. Changes apply to the next invoice.",
	"refund-policy.md|Refund policy|Refunds are processed within 5 business days of the request. Annual plans are refunded pro rata for unused months.",
	"password-reset.md|Password reset|To reset a password, use the Forgot password link on the sign-in page. Reset links expire after 24 hours.",
	"password-reset.md|Password reset|If the reset email does not arrive, check the spam folder and confirm the address on file matches the sign-in address.",
	"plans.md|Plans and pricing|The starter plan includes 3 seats and community support. The team plan adds unlimited seats and priority email support.",
	"plans.md|Plans and pricing|Enterprise plans include a dedicated support contact, single sign-on, and a 99.9 percent uptime commitment.",
	"data-export.md|Data export|Workspace admins can export all data as JSON from Settings. Exports include drafts, reviews, and knowledge-base documents.",
	"escalation.md|Escalation process|Urgent production issues should be escalated to the on-call contact listed in the support portal. Include the workspace name and a timeline.",
	"onboarding.md|Onboarding guide|New workspaces start with the default policy. Admins should set a tone level and blocklist before inviting the rest of the team.",
}

var (
	configPath  = flag.String("config", "", "path to YAML configuration file")
	seedFile    = flag.String("src", "", "file of seed articles, one source|title|body per line")
	workspaceID = flag.String("workspace", policy.DefaultWorkspaceID, "workspace to seed")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// seedPolicy writes the workspace policy from the configured defaults.
func seedPolicy(ctx context.Context, assistant *draftkit.Assistant, cfg *config.Config, workspaceID string) error {
	_, err := assistant.PolicyRepository().PutPolicy(ctx, &core.WorkspacePolicy{
		WorkspaceID: workspaceID,
		ToneLevel:   cfg.Policy.DefaultToneLevel,
		Blocklist:   cfg.Policy.DefaultBlocklist,
	})
	return err
}

// seedArticles ingests each source|title|body line into the workspace.
func seedArticles(ctx context.Context, assistant *draftkit.Assistant, source iter.Seq[string], workspaceID string) error {
	count := 0
	for line := range source {
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			slog.Warn("skipping malformed seed line", "line", line)
			continue
		}

		stats, err := assistant.Ingest(ctx, parts[2], workspaceID, parts[0], kb.DocumentMeta{
			Title: parts[1],
		})
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", parts[0], err)
		}
		count += stats.ChunksUploaded
	}

	slog.Info("seeded knowledge base", "workspace", workspaceID, "chunks", count)
	return nil
}

func main() {
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	assistant, err := draftkit.NewAssistant(cfg)
	if err != nil {
		panic(err)
	}
	defer assistant.Close()

	ctx := context.Background()

	if err := seedPolicy(ctx, assistant, cfg, *workspaceID); err != nil {
		panic(err)
	}

	var source iter.Seq[string]
	if *seedFile != "" {
		source, err = linesFromFile(*seedFile)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(articles)
	}

	if err := seedArticles(ctx, assistant, source, *workspaceID); err != nil {
		panic(err)
	}
}
