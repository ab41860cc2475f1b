package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/outreachkit/prospector/internal/pipeline"
)

func sampleRecords() []pipeline.BestEmailRecord {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return []pipeline.BestEmailRecord{
		{
			UserID:      "u-1",
			Address:     "jane.doe@examplemail.com",
			Verdict:     pipeline.VerdictVerified,
			Source:      pipeline.SourceBioText,
			ProcessedAt: at,
		},
		{
			UserID:      "u-2",
			Address:     "booking@band.example",
			Verdict:     pipeline.VerdictUnknown,
			Source:      pipeline.SourceDeepLink,
			ProcessedAt: at,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	want := "user_id,address,verdict,source,processed_at\n" +
		"u-1,jane.doe@examplemail.com,verified,bio_text,2026-08-30T12:00:00Z\n" +
		"u-2,booking@band.example,unknown,deep_link,2026-08-30T12:00:00Z\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRecords()))

	var decoded []pipeline.BestEmailRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleRecords(), decoded)
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"user_id", "address", "verdict", "source", "processed_at"}, rows[0])
	assert.Equal(t, "jane.doe@examplemail.com", rows[1][1])
	assert.Equal(t, "unknown", rows[2][2])
}
