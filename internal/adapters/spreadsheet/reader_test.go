package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRead_CSV(t *testing.T) {
	csv := "Particulars,Outward Qty,Outward Rate\nPineapple,100 kg,45\nBanana,20 kg,30\n"

	table, err := Read(strings.NewReader(csv), "sales.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Particulars", "Outward Qty", "Outward Rate"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Pineapple", "100 kg", "45"}, table.Rows[0])
}

func TestRead_CSVRaggedRows(t *testing.T) {
	csv := "A,B,C\n1,2\n1,2,3,4\n"

	table, err := Read(strings.NewReader(csv), "ragged.csv")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Len(t, table.Rows[0], 2)
	assert.Len(t, table.Rows[1], 4)
}

func TestRead_CSVLeadingBlankRowsSkipped(t *testing.T) {
	csv := ",,\n,,\nParticulars,Amount\nRent,500\n"

	table, err := Read(strings.NewReader(csv), "pnl.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Particulars", "Amount"}, table.Headers)
	require.Len(t, table.Rows, 1)
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Particulars", "Amount"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Rent", 500}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Labour Wages", 1200.5}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := Read(&buf, "pnl.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"Particulars", "Amount"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Rent", table.Rows[0][0])
	assert.Equal(t, "500", table.Rows[0][1])
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := Read(strings.NewReader("data"), "sales.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestRead_EmptyFile(t *testing.T) {
	_, err := Read(strings.NewReader(""), "empty.csv")
	assert.Error(t, err)
}
