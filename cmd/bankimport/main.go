package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rumor-ml/commons.systems/bankimport/internal/accounts"
	"github.com/rumor-ml/commons.systems/bankimport/internal/ledger"
	"github.com/rumor-ml/commons.systems/bankimport/internal/output"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rulestore"
	"github.com/rumor-ml/commons.systems/bankimport/internal/scanner"
	"github.com/rumor-ml/commons.systems/bankimport/internal/session"
	"github.com/rumor-ml/commons.systems/bankimport/internal/ui"
	"github.com/rumor-ml/commons.systems/bankimport/internal/validate"
)

const version = "0.1.0"

var (
	versionFlag = flag.Bool("version", false, "Show version")

	inputDir = flag.String("input", "", "Input directory containing statements (required)")
	dryRun   = flag.Bool("dry-run", false, "Show what would be parsed without deriving")
	verbose  = flag.Bool("verbose", false, "Show detailed parsing logs")

	accountsFile = flag.String("accounts", "", "Known accounts YAML file")
	rulesFile    = flag.String("rules", "", "Rule set YAML file (default: embedded seed rules)")
	accountID    = flag.String("account", "", "Default account ID for rows without an account annotation")

	outputFile = flag.String("output", "", "Review document output file (default: stdout)")
	commitDB   = flag.String("commit", "", "Commit reviewable records into this sqlite ledger")

	templateOut = flag.String("template", "", "Write the sample CSV template to this path and exit")

	projectID = flag.String("project", "", "GCP project for the remote rule store")
	userID    = flag.String("user", "", "Rule store user ID (requires -project)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `bankimport - bank statement import and reconciliation

Usage:
  bankimport [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Derive a review document from a directory of statements
  bankimport -input ~/statements -accounts accounts.yaml

  # Use a custom rule set and commit to a local ledger
  bankimport -input ~/statements -rules rules.yaml -commit ledger.db

  # Load the user's rules from the remote rule store
  bankimport -input ~/statements -project my-project -user uid123

  # Download the sample CSV template
  bankimport -template sample.csv

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("bankimport version %s\n", version)
		os.Exit(0)
	}

	if *templateOut != "" {
		if err := output.WriteTemplate(*templateOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote sample template to %s\n", *templateOut)
		os.Exit(0)
	}

	if *inputDir == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	if !*verbose {
		ui.Header("Importing Bank Statements")
		ui.Step(1, 4, "Scanning directory")
	} else {
		fmt.Fprintf(os.Stderr, "Scanning directory: %s\n", *inputDir)
	}

	s := scanner.New(*inputDir)
	paths, err := s.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan directory %s: %w", *inputDir, err)
	}

	if !*verbose {
		ui.Success(fmt.Sprintf("Found %d statement files", len(paths)))
	} else {
		fmt.Fprintf(os.Stderr, "Found %d statement files\n", len(paths))
		for _, p := range paths {
			fmt.Fprintf(os.Stderr, "  - %s\n", p)
		}
	}

	if *dryRun {
		fmt.Printf("Dry run complete. Would process %d files.\n", len(paths))
		return nil
	}

	if len(paths) == 0 {
		return fmt.Errorf("no statement files found in %s\n\nPlease check:\n  - Directory path is correct\n  - Files have supported extensions (.csv, .ofx, .qfx)\n  - You have read permissions on the directory and files", *inputDir)
	}

	if !*verbose {
		ui.Step(2, 4, "Loading accounts and rules")
	}

	var known *accounts.Known
	if *accountsFile != "" {
		known, err = accounts.LoadFromFile(*accountsFile)
		if err != nil {
			return err
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d asset and %d debt accounts\n", len(known.Assets), len(known.Debts))
		}
	}

	ruleSet, err := loadRules(ctx)
	if err != nil {
		return err
	}

	sess := session.New(known)
	sess.LoadRuleSet(ruleSet)

	if !*verbose {
		ui.Step(3, 4, "Parsing and deriving records")
	}

	for _, path := range paths {
		text, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		cfg := sess.AddFile(filepath.Base(path), string(text))
		if *accountID != "" && cfg.AccountColumn == "" {
			cfg.AccountID = *accountID
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "  Loaded %s\n", path)
		}
	}

	records, issues := sess.Derive(ctx)
	for _, issue := range issues {
		ui.Warning(fmt.Sprintf("%s: %v", issue.File, issue.Err))
	}

	result := validate.Records(records)
	for _, w := range result.Warnings {
		ui.Warning(fmt.Sprintf("%s: %s", w.RecordID, w.Message))
	}

	doc := output.BuildReview(records, issues)

	if !*verbose {
		ui.Step(4, 4, "Writing review document")
	}
	if err := output.WriteReviewToFile(doc, *outputFile); err != nil {
		return err
	}

	ui.Summary("Records", len(records))
	ui.Summary("Committable", doc.Committable)
	ui.Summary("Transfers", doc.Transfers)

	if *commitDB != "" {
		if !result.OK() {
			for _, e := range result.Errors {
				ui.Error(fmt.Sprintf("%s: %s", e.RecordID, e.Message))
			}
			return fmt.Errorf("refusing to commit: %d records failed validation", len(result.Errors))
		}
		return commit(ctx, sess, known)
	}

	return nil
}

// loadRules picks the rule source: the remote store when -project/-user
// are given, a YAML file when -rules is given, otherwise the embedded
// seed rules. A store load failure degrades to the embedded seed rules;
// the in-memory set is the source of truth for the rest of the run.
func loadRules(ctx context.Context) (*rules.RuleSet, error) {
	if *projectID != "" && *userID != "" {
		client, err := rulestore.NewClient(ctx, *projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rule store: %w", err)
		}
		defer client.Close()

		rs, err := client.LoadRuleSet(ctx, *userID)
		if err != nil {
			ui.Warning(fmt.Sprintf("rule store load failed, using embedded seed rules: %v", err))
			return rules.LoadEmbedded()
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d type mappings, %d merchant rules, %d transfer rules from store\n",
				len(rs.TypeMappings), len(rs.MerchantRules), len(rs.TransferRules))
		}
		return rs, nil
	}

	if *rulesFile != "" {
		return rules.LoadFromFile(*rulesFile)
	}
	return rules.LoadEmbedded()
}

// commit writes the committable record set into the sqlite ledger as one
// all-or-nothing batch
func commit(ctx context.Context, sess *session.Session, known *accounts.Known) error {
	store, err := ledger.Open(*commitDB)
	if err != nil {
		return err
	}
	defer store.Close()

	commitSet := sess.CommitSet(ctx)
	if len(commitSet) == 0 {
		ui.Warning("nothing to commit")
		return nil
	}

	batchID, err := store.CommitBatch(ctx, commitSet, known)
	if err != nil {
		return fmt.Errorf("commit failed, nothing was written: %w", err)
	}

	ui.Success(fmt.Sprintf("Committed %d records (batch %s)", len(commitSet), batchID))
	return nil
}
