package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

func init() {
	text.DisableColors()
}

func TestNewPrinter_Formats(t *testing.T) {
	t.Parallel()

	p, err := NewPrinter(&bytes.Buffer{}, "")
	require.NoError(t, err)
	assert.False(t, p.JSONMode())

	p, err = NewPrinter(&bytes.Buffer{}, FormatJSON)
	require.NoError(t, err)
	assert.True(t, p.JSONMode())

	_, err = NewPrinter(&bytes.Buffer{}, "yaml")
	require.Error(t, err)
}

func TestPrinter_DiagnosisTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p, err := NewPrinter(&buf, FormatTable)
	require.NoError(t, err)

	d := domain.NewDiagnosis(domain.ResourceDataSource, "blob-ds")
	d.Add("type", domain.SeverityOK, "azureblob")
	require.NoError(t, p.Diagnosis(d))
	assert.Contains(t, buf.String(), "Diagnosis for datasource blob-ds")
	assert.Contains(t, buf.String(), "azureblob")

	d.Add("test", domain.SeverityFail, "connection failed")
	require.ErrorIs(t, p.Diagnosis(d), ErrUnhealthy)
}

func TestPrinter_DiagnosisJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p, err := NewPrinter(&buf, FormatJSON)
	require.NoError(t, err)

	d := domain.NewDiagnosis(domain.ResourceService, "")
	d.Add("reachability", domain.SeverityOK, "reachable")
	require.NoError(t, p.Diagnosis(d))
	assert.Contains(t, buf.String(), `"check": "reachability"`)
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		skip    bool
		wantErr error
	}{
		{name: "yes", input: "y\n"},
		{name: "yes word", input: "YES\n"},
		{name: "no", input: "n\n", wantErr: ErrCancelled},
		{name: "empty", input: "", wantErr: ErrCancelled},
		{name: "skipped", input: "", skip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			err := confirm(strings.NewReader(tt.input), &out, "Delete indexer x?", tt.skip)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if !tt.skip {
				assert.Contains(t, out.String(), "(y/N)")
			}
		})
	}
}

func TestCommandDeps_Validate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, CommandDeps{}.Validate(), ErrAppRequired)
}
