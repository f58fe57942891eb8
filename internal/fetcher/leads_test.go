package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/emailgen/internal/model"
)

func TestRowsToRecords(t *testing.T) {
	header := []string{"firstName", " lastName ", "", "companyDomain"}
	rows := [][]string{
		{"Ann", "Lee", "dropped", "acme.com"},
		{"Bob", "", "x", " corp.io ", "beyond header"},
		{"", "  ", "", ""},
		{"Cy"},
	}

	recs := RowsToRecords(header, rows)
	require.Len(t, recs, 3)

	assert.Equal(t, []string{"firstName", "lastName", "companyDomain"}, recs[0].Keys())
	assert.Equal(t, "Lee", recs[0].String("lastName"))

	assert.Equal(t, []string{"firstName", "companyDomain"}, recs[1].Keys())
	assert.Equal(t, "corp.io", recs[1].String("companyDomain"))

	assert.Equal(t, []string{"firstName"}, recs[2].Keys())
}

func TestEnrichedTable(t *testing.T) {
	src := model.NewRecord()
	src.Set("firstName", "Ann")
	src.Set("companyDomain", "acme.com")

	other := model.NewRecord()
	other.Set("firstName", "Bob")
	other.Set("owner", "sales")

	leads := []model.EnrichedLead{
		{
			Source:          src,
			GeneratedEmail:  "ann@acme.com",
			EmailConfidence: 0.738,
			EmailPattern:    "firstname",
			EmailReasoning:  "Pattern: firstname (0.65)",
			EmailCandidates: []model.EmailCandidate{{Email: "ann@acme.com", Confidence: 0.738, Pattern: "firstname", Reasoning: "r"}},
		},
		model.NoCandidate(other, model.NoCandidateReasoning),
	}

	columns, rows := EnrichedTable([]string{"firstName", "lastName", "companyDomain"}, leads)
	assert.Equal(t, []string{
		"firstName", "lastName", "companyDomain",
		"generatedEmail", "emailConfidence", "emailPattern", "emailReasoning", "emailCandidates",
		"owner",
	}, columns)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"Ann", "", "acme.com",
		"ann@acme.com", "0.738", "firstname", "Pattern: firstname (0.65)",
		`[{"email":"ann@acme.com","confidence":0.738,"pattern":"firstname","reasoning":"r"}]`,
		"",
	}, rows[0])
	assert.Equal(t, []string{
		"Bob", "", "",
		"", "0", "", model.NoCandidateReasoning, "[]",
		"sales",
	}, rows[1])
}

func TestReadLeads_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	content := "firstName,lastName,companyDomain\nAnn,Lee,acme.com\n,,\nBob,Ray,corp.io\nCy,Oh,cy.dev\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sheet, err := ReadLeads(context.Background(), path, ReadOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"firstName", "lastName", "companyDomain"}, sheet.Header)
	require.Len(t, sheet.Records, 2)
	assert.Equal(t, "Bob", sheet.Records[1].String("firstName"))
}

func TestReadLeads_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Leads": {
			{"firstName", "companyDomain", "companySize"},
			{"Ann", "acme.com", "51-200"},
		},
	})

	sheet, err := ReadLeads(context.Background(), path, ReadOptions{Sheet: "Leads"})
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, "51-200", sheet.Records[0].String("companySize"))
}

func TestReadLeads_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/export/leads.csv", r.URL.Path)
		w.Write([]byte("firstName,companyDomain\nAnn,acme.com\n"))
	}))
	defer srv.Close()

	sheet, err := ReadLeads(context.Background(), srv.URL+"/export/leads.csv?key=1", ReadOptions{
		Fetcher: newTestFetcher(1),
	})
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, "acme.com", sheet.Records[0].String("companyDomain"))
}

func TestReadLeads_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadLeads(context.Background(), filepath.Join(dir, "leads.txt"), ReadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadLeads(context.Background(), empty, ReadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")

	_, err = ReadLeads(context.Background(), filepath.Join(dir, "missing.csv"), ReadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: open file")
}

func TestWriteLeads(t *testing.T) {
	src := model.NewRecord()
	src.Set("firstName", "Ann")
	leads := []model.EnrichedLead{model.NoCandidate(src, model.NoCandidateReasoning)}

	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteLeads(csvPath, []string{"firstName"}, leads))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "firstName,generatedEmail,emailConfidence,emailPattern,emailReasoning,emailCandidates", lines[0])

	xlsxPath := filepath.Join(dir, "out.xlsx")
	require.NoError(t, WriteLeads(xlsxPath, []string{"firstName"}, leads))
	rows, err := ReadXLSX(xlsxPath, XLSXOptions{SheetName: "Enriched Leads"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "generatedEmail", rows[0][1])

	require.Error(t, WriteLeads(filepath.Join(dir, "out.json"), nil, leads))
}
