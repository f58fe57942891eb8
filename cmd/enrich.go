package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/emailgen/internal/enrich"
	"github.com/sells-group/emailgen/internal/fetcher"
	"github.com/sells-group/emailgen/internal/model"
	"github.com/sells-group/emailgen/internal/store"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a CSV or XLSX lead file with generated emails",
	Long:  "Reads leads from a CSV or XLSX file (local path or http(s) URL), generates email candidates for each row and writes the enriched sheet.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		sheet, _ := cmd.Flags().GetString("sheet")
		limit, _ := cmd.Flags().GetInt("limit")
		samples, _ := cmd.Flags().GetInt("samples")

		enricher, err := buildEnricher(cfg)
		if err != nil {
			return err
		}

		var st store.Store
		if cfg.Server.TrackRuns {
			st, err = openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		res, err := enrichFile(ctx, enricher, st, enrichFileOptions{
			Input:     input,
			Output:    output,
			Sheet:     sheet,
			Limit:     limit,
			ChunkSize: cfg.Batch.ChunkSize,
		})
		if err != nil {
			return err
		}

		formatEnrichSummary(os.Stdout, res, samples)
		return nil
	},
}

func init() {
	enrichCmd.Flags().String("input", "", "input lead file (.csv or .xlsx, local path or URL)")
	enrichCmd.Flags().String("output", "", "output file (.csv or .xlsx)")
	enrichCmd.Flags().String("sheet", "", "XLSX sheet name (default first sheet)")
	enrichCmd.Flags().Int("limit", 0, "max leads to process (0 = all)")
	enrichCmd.Flags().Int("samples", 5, "number of sample results to print")
	_ = enrichCmd.MarkFlagRequired("input")
	_ = enrichCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(enrichCmd)
}

type enrichFileOptions struct {
	Input     string
	Output    string
	Sheet     string
	Limit     int
	ChunkSize int
}

type enrichFileResult struct {
	RunID   string
	Output  string
	Summary enrich.Summary
	Leads   []model.EnrichedLead
}

// enrichFile reads a lead file, enriches it chunk by chunk and writes the
// enriched sheet. When st is non-nil, progress is recorded as a file run.
func enrichFile(ctx context.Context, e *enrich.Enricher, st store.Store, opts enrichFileOptions) (*enrichFileResult, error) {
	if _, err := fetcher.DetectFormat(opts.Output); err != nil {
		return nil, eris.Wrap(err, "enrich: output")
	}

	sheet, err := fetcher.ReadLeads(ctx, opts.Input, fetcher.ReadOptions{
		Sheet: opts.Sheet,
		Limit: opts.Limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "enrich: read leads")
	}

	zap.L().Info("enrich: loaded leads",
		zap.String("input", opts.Input),
		zap.Int("leads", len(sheet.Records)),
		zap.Int("columns", len(sheet.Header)),
	)

	tracker := newRunTracker(ctx, st, model.RunInput{
		Source:     model.RunSourceFile,
		TotalLeads: len(sheet.Records),
		InputFile:  opts.Input,
		OutputFile: opts.Output,
	})

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(sheet.Records)
	}

	leads := make([]model.EnrichedLead, 0, len(sheet.Records))
	for start := 0; start < len(sheet.Records); start += chunkSize {
		if err := ctx.Err(); err != nil {
			tracker.fail(ctx, err)
			return nil, eris.Wrap(err, "enrich: canceled")
		}

		end := min(start+chunkSize, len(sheet.Records))
		leads = append(leads, e.EnrichMany(ctx, sheet.Records[start:end])...)
		tracker.progress(ctx, enrich.Summarize(leads).Progress())

		zap.L().Debug("enrich: chunk done", zap.Int("processed", len(leads)), zap.Int("total", len(sheet.Records)))
	}

	if err := fetcher.WriteLeads(opts.Output, sheet.Header, leads); err != nil {
		tracker.fail(ctx, err)
		return nil, eris.Wrap(err, "enrich: write leads")
	}

	summary := enrich.Summarize(leads)
	tracker.complete(ctx, summary.Progress())

	return &enrichFileResult{
		RunID:   tracker.id,
		Output:  opts.Output,
		Summary: summary,
		Leads:   leads,
	}, nil
}

// runTracker records a run in the store. Store failures are logged and
// never abort enrichment.
type runTracker struct {
	st store.Store
	id string
}

func newRunTracker(ctx context.Context, st store.Store, in model.RunInput) *runTracker {
	t := &runTracker{st: st}
	if st == nil {
		return t
	}
	run, err := st.CreateRun(ctx, in)
	if err != nil {
		zap.L().Warn("enrich: create run", zap.Error(err))
		return t
	}
	t.id = run.ID
	if err := st.UpdateRunStatus(ctx, t.id, model.RunStatusProcessing); err != nil {
		zap.L().Warn("enrich: update run status", zap.String("run_id", t.id), zap.Error(err))
	}
	return t
}

func (t *runTracker) progress(ctx context.Context, p model.RunProgress) {
	if t.id == "" {
		return
	}
	if err := t.st.UpdateRunProgress(ctx, t.id, p); err != nil {
		zap.L().Warn("enrich: update run progress", zap.String("run_id", t.id), zap.Error(err))
	}
}

func (t *runTracker) complete(ctx context.Context, p model.RunProgress) {
	if t.id == "" {
		return
	}
	if err := t.st.CompleteRun(ctx, t.id, p); err != nil {
		zap.L().Warn("enrich: complete run", zap.String("run_id", t.id), zap.Error(err))
	}
}

func (t *runTracker) fail(ctx context.Context, cause error) {
	if t.id == "" {
		return
	}
	// The run context may already be canceled.
	if err := t.st.FailRun(context.WithoutCancel(ctx), t.id, cause.Error()); err != nil {
		zap.L().Warn("enrich: fail run", zap.String("run_id", t.id), zap.Error(err))
	}
}

// formatEnrichSummary writes the batch summary and up to n sample results.
func formatEnrichSummary(out io.Writer, res *enrichFileResult, n int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Output:\t%s\n", res.Output)
	if res.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", res.RunID)
	}
	_, _ = fmt.Fprintf(w, "Total processed:\t%d\n", res.Summary.Total)
	_, _ = fmt.Fprintf(w, "Successful:\t%d\n", res.Summary.Successful)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", res.Summary.Failed)
	_, _ = fmt.Fprintf(w, "Success rate:\t%s\n", res.Summary.SuccessRate)
	_ = w.Flush()

	if n <= 0 || len(res.Leads) == 0 {
		return
	}

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDOMAIN\tEMAIL\tCONFIDENCE\tPATTERN")
	_, _ = fmt.Fprintln(w, "----\t------\t-----\t----------\t-------")
	for _, l := range res.Leads[:min(n, len(res.Leads))] {
		name := l.Source.String(model.KeyFirstName)
		if last := l.Source.String(model.KeyLastName); last != "" {
			name += " " + last
		}
		email := l.GeneratedEmail
		if email == "" {
			email = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%s\n",
			name,
			l.Source.String(model.KeyCompanyDomain),
			email,
			l.EmailConfidence,
			l.EmailPattern,
		)
	}
	_ = w.Flush()
}
