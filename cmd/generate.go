package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/emailgen/internal/enrich"
	"github.com/sells-group/emailgen/internal/model"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate email candidates for a single lead",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("generate"); err != nil {
			return err
		}

		first, _ := cmd.Flags().GetString("first")
		last, _ := cmd.Flags().GetString("last")
		domain, _ := cmd.Flags().GetString("domain")
		industry, _ := cmd.Flags().GetString("industry")
		size, _ := cmd.Flags().GetString("size")

		enricher, err := buildEnricher(cfg)
		if err != nil {
			return err
		}

		lead := model.Lead{
			FirstName:       first,
			LastName:        last,
			CompanyDomain:   domain,
			CompanyIndustry: industry,
			CompanySize:     model.CompanySize(size),
		}
		return writeGenerated(os.Stdout, enricher, lead)
	},
}

func init() {
	generateCmd.Flags().String("first", "", "first name")
	generateCmd.Flags().String("last", "", "last name")
	generateCmd.Flags().String("domain", "", "company domain or website URL")
	generateCmd.Flags().String("industry", "", "company industry")
	generateCmd.Flags().String("size", "", "company size band (1-10, 11-50, 51-200, 201-500, 501-1000, 1000+)")
	_ = generateCmd.MarkFlagRequired("first")
	_ = generateCmd.MarkFlagRequired("domain")

	rootCmd.AddCommand(generateCmd)
}

// writeGenerated enriches one lead and writes the enriched record as JSON.
func writeGenerated(out io.Writer, e *enrich.Enricher, lead model.Lead) error {
	enriched, err := e.EnrichOne(lead.Record())
	if err != nil {
		return eris.Wrap(err, "generate")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(enriched)
}
