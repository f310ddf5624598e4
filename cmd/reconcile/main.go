// Command reconcile runs the full reconciliation pipeline once over a
// single statement document in GCS and prints the outcome.
//
// Usage:
//
//	reconcile -uri gs://bucket/statement.pdf -bank "First National" \
//	    -opening 1000.00 -closing 950.00 -accounts "Office Supplies,Travel"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/harsh2517/bankrecon/internal/categorize"
	"github.com/harsh2517/bankrecon/internal/config"
	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/extract"
	"github.com/harsh2517/bankrecon/internal/gcs"
	infra "github.com/harsh2517/bankrecon/internal/infra/bigquery"
	"github.com/harsh2517/bankrecon/internal/logger"
	"github.com/harsh2517/bankrecon/internal/oracle"
	"github.com/harsh2517/bankrecon/internal/pipeline"
	"github.com/harsh2517/bankrecon/internal/reconcile"
)

func main() {
	var (
		uri         = flag.String("uri", "", "GCS URI of the statement document (required)")
		docType     = flag.String("type", string(domain.DocTypeBankStatement), "document type: bankStatement, creditCard, vendorBill or check")
		bank        = flag.String("bank", "", "bank name as printed on the statement")
		opening     = flag.Float64("opening", 0, "stated opening balance")
		closing     = flag.Float64("closing", 0, "stated closing balance")
		accounts    = flag.String("accounts", "", "comma-separated GL account vocabulary")
		periodStart = flag.String("period-start", "", "statement period start (YYYY-MM-DD)")
		periodEnd   = flag.String("period-end", "", "statement period end (YYYY-MM-DD)")
	)
	flag.Parse()

	if *uri == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := context.Background()

	gemini, err := oracle.NewGemini(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create oracle client")
	}

	storage, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storage.Close()

	repo, err := infra.NewRepository(ctx, cfg.GCPProjectID, cfg.BQDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger repository")
	}
	defer repo.Close()

	extractor := extract.NewExtractor(gemini)
	extractor.StatementYear = cfg.StatementYear

	svc := &pipeline.Service{
		Storage:     storage,
		Repo:        repo,
		Extractor:   extractor,
		Matcher:     categorize.NewMatcher(),
		Categorizer: categorize.NewCategorizer(gemini),
		Engine:      reconcile.NewEngine(gemini),
		Log:         log,
	}

	var vocab []string
	for _, a := range strings.Split(*accounts, ",") {
		if a = strings.TrimSpace(a); a != "" {
			vocab = append(vocab, a)
		}
	}

	start, err := parseDate(*periodStart)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -period-start")
	}
	end, err := parseDate(*periodEnd)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -period-end")
	}

	summary, err := svc.ProcessDocument(ctx, pipeline.Request{
		GCSURI:              *uri,
		DocumentType:        domain.DocumentType(*docType),
		BankName:            *bank,
		OpeningBalance:      *opening,
		ClosingBalance:      *closing,
		StatementStart:      start,
		StatementEnd:        end,
		AvailableGLAccounts: vocab,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Reconciliation failed")
	}

	fmt.Printf("document:    %s\n", summary.DocumentID)
	fmt.Printf("run:         %s\n", summary.RunID)
	fmt.Printf("status:      %s\n", summary.Status)
	fmt.Printf("rows:        %d\n", summary.RowCount)
	fmt.Printf("categorized: %d\n", summary.Categorized)
	fmt.Printf("discrepancy: %s\n", summary.Discrepancy)
	if summary.Explanation != "" {
		fmt.Printf("explanation: %s\n", summary.Explanation)
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
