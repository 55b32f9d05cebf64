package docread

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadText_Plain(t *testing.T) {
	path := writeFile(t, "claim.txt", "  Claimant: Jane Doe\nVIN: 1HGCM82633A004352\n")

	text, err := ReadText(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "Claimant: Jane Doe\nVIN: 1HGCM82633A004352", text)
}

func TestReadText_Clips(t *testing.T) {
	path := writeFile(t, "long.md", strings.Repeat("é", 50))

	text, err := ReadText(path, 10)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 10), text)
}

func TestReadText_Unsupported(t *testing.T) {
	path := writeFile(t, "archive.zip", "PK")
	_, err := ReadText(path, 0)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestReadText_Missing(t *testing.T) {
	_, err := ReadText(filepath.Join(t.TempDir(), "nope.txt"), 0)
	assert.Error(t, err)
}

func TestReadText_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Policy"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Amount"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "PN-42"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 1800))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	text, err := ReadText(path, 0)
	require.NoError(t, err)
	assert.Contains(t, text, "## Sheet1")
	assert.Contains(t, text, "Policy\tAmount")
	assert.Contains(t, text, "PN-42\t1800")
}

func TestReadText_DOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.docx")
	out, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(out)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Case Number: 2024-117</w:t></w:r></w:p>
<w:p><w:r><w:t>Officer:</w:t></w:r><w:r><w:tab/><w:t>Smith</w:t></w:r></w:p>
</w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	text, err := ReadText(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "Case Number: 2024-117\nOfficer:\tSmith", text)
}
