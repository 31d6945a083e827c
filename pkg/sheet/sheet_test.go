package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestHeadingKey(t *testing.T) {
	cases := map[string]string{
		"Nama":                       "nama",
		"Tanggal Lahir (YYYY-MM-DD)": "tanggal_lahir",
		" Jenis Kelamin* ":           "jenis_kelamin",
		"NIS Siswa":                  "nis_siswa",
		"no_hp":                      "no_hp",
	}
	for in, want := range cases {
		assert.Equal(t, want, HeadingKey(in), in)
	}
}

func buildWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Nama", "NIS", "Tanggal Lahir", "Alamat"}))
	require.NoError(t, f.SetCellStr(sheet, "A2", "  Rina Wulandari "))
	require.NoError(t, f.SetCellValue(sheet, "B2", 2024001))
	require.NoError(t, f.SetCellValue(sheet, "C2", 40000))
	require.NoError(t, f.SetCellStr(sheet, "D2", "Jl. Merdeka 1"))
	require.NoError(t, f.SetCellStr(sheet, "A3", "Dodi"))
	require.NoError(t, f.SetCellStr(sheet, "B3", "0012"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadXLSX(t *testing.T) {
	rows, err := ReadXLSX(buildWorkbook(t))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 2, first.Number)
	assert.Equal(t, "Rina Wulandari", first.Text("nama"))
	assert.Equal(t, Cell{Value: "2024001", Numeric: true}, first.Get("nis"))
	assert.Equal(t, Cell{Value: "40000", Numeric: true}, first.Get("tanggal_lahir"))
	assert.False(t, first.Get("alamat").Numeric)

	second := rows[1]
	assert.Equal(t, 3, second.Number)
	assert.Equal(t, Cell{Value: "0012"}, second.Get("nis"))
	assert.Equal(t, "", second.Text("alamat"))
	_, ok := second.Cells["alamat"]
	assert.True(t, ok)
}

func TestReadCSVSemicolon(t *testing.T) {
	input := "\ufeffNama;NIS;Jenis Kelamin\nBudi;001;L\n;;\nAni;002;P\n\n"
	rows, err := Read("siswa.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Budi", rows[0].Text("nama"))
	assert.Equal(t, "001", rows[0].Text("nis"))
	assert.True(t, rows[1].Blank())
	assert.Equal(t, 3, rows[1].Number)
	assert.Equal(t, "P", rows[2].Text("jenis_kelamin"))
	assert.Equal(t, map[string]string{"nama": "Ani", "nis": "002", "jenis_kelamin": "P"}, rows[2].Raw())
}

func TestReadCSVHeaderOnly(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("nama,nis\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadRejectsUnknownExtension(t *testing.T) {
	_, err := Read("siswa.pdf", strings.NewReader("x"))
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.False(t, Supported("siswa.pdf"))
	assert.True(t, Supported("SISWA.XLSX"))
}
