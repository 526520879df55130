package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eventdesk/backend/internal/models"
)

var regDate = time.Date(2026, 5, 4, 13, 7, 9, 0, time.UTC)

func sampleSummaries() []models.RegistrationSummary {
	return []models.RegistrationSummary{
		{
			UserID: uuid.New(),
			Email:  "ana@example.com",
			Date:   regDate,
			Answers: []models.Answer{
				{FieldID: 2, Label: "Topics", Options: []string{"Go", "SQL"}},
				{FieldID: 1, Label: "Company", Options: []string{"Acme, Inc."}},
			},
		},
		{
			UserID:  uuid.New(),
			Email:   "bob@example.com",
			Date:    regDate.Add(time.Hour),
			Answers: []models.Answer{{FieldID: 3, Label: "Allergies", Options: []string{"nuts"}}},
		},
	}
}

func TestBuildTable(t *testing.T) {
	tbl := BuildTable(sampleSummaries())

	assert.Equal(t, []string{"Allergies", "Company", "Topics"}, tbl.Labels)
	assert.Equal(t, []string{"Email", "Date", "Allergies", "Company", "Topics"}, tbl.Header())
	require.Len(t, tbl.Rows, 2)

	assert.Equal(t, "ana@example.com", tbl.Rows[0].Email)
	assert.Nil(t, tbl.Rows[0].Values[0])
	assert.Equal(t, []string{"Acme, Inc."}, tbl.Rows[0].Values[1])
	assert.Equal(t, []string{"Go", "SQL"}, tbl.Rows[0].Values[2])

	assert.Equal(t, []string{"nuts"}, tbl.Rows[1].Values[0])
	assert.Nil(t, tbl.Rows[1].Values[1])
}

func TestBuildTableEmpty(t *testing.T) {
	tbl := BuildTable(nil)
	assert.Empty(t, tbl.Labels)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, []string{"Email", "Date"}, tbl.Header())
}

func TestCSV(t *testing.T) {
	data, err := CSV(BuildTable(sampleSummaries()))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte(utf8BOM)))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Email", "Date", "Allergies", "Company", "Topics"}, records[0])
	assert.Equal(t, []string{"ana@example.com", "2026-05-04 13:07:09", "", "Acme, Inc.", "Go; \nSQL"}, records[1])
	assert.Equal(t, []string{"bob@example.com", "2026-05-04 14:07:09", "nuts", "", ""}, records[2])
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(BuildTable(sampleSummaries()))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	header, err := f.GetCellValue(SheetName, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Topics", header)

	topics, err := f.GetCellValue(SheetName, "E2")
	require.NoError(t, err)
	assert.Equal(t, "Go\nSQL", topics)

	date, err := f.GetCellValue(SheetName, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04 14:07:09", date)

	styleID, err := f.GetCellStyle(SheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	require.NotNil(t, style.Alignment)
	assert.Equal(t, "center", style.Alignment.Horizontal)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "csv": FormatCSV, " XLSX ": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}
