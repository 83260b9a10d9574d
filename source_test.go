package reshape

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	input := "IndicatorCode,TimeDimType,TimeDim,NumericValue\n" +
		"X,YEAR,2000,10\n" +
		"X,YEAR,2001\n"

	header, rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []string{"IndicatorCode", "TimeDimType", "TimeDim", "NumericValue"}, header)
	require.Equal(t, []Row{
		{"IndicatorCode": "X", "TimeDimType": "YEAR", "TimeDim": "2000", "NumericValue": "10"},
		{"IndicatorCode": "X", "TimeDimType": "YEAR", "TimeDim": "2001"},
	}, rows)
}

func TestReadCSV_NoHeader(t *testing.T) {
	t.Parallel()

	_, _, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestReadZip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "source.zip")

	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, body := range map[string]string{
		"part_b.csv": "code,val\nX,2\n",
		"part_a.csv": "code,val\nX,1\n",
		"notes.txt":  "ignored",
	} {
		member, err := w.Create(name)
		require.NoError(t, err)
		_, err = member.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	header, rows, err := ReadZip(path)
	require.NoError(t, err)
	require.Equal(t, []string{"code", "val"}, header)

	// Members are read in name order.
	require.Equal(t, []Row{
		{"code": "X", "val": "1"},
		{"code": "X", "val": "2"},
	}, rows)
}

func TestReadZip_HeaderMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "source.zip")

	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)

	member, err := w.Create("a.csv")
	require.NoError(t, err)
	_, err = member.Write([]byte("code,val\nX,1\n"))
	require.NoError(t, err)

	member, err = w.Create("b.csv")
	require.NoError(t, err)
	_, err = member.Write([]byte("code,other\nX,2\n"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	_, _, err = ReadZip(path)
	require.Error(t, err)
}

func TestReadXLSX(t *testing.T) {
	t.Parallel()

	book := excelize.NewFile()
	sheet := book.GetSheetList()[0]

	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]interface{}{"code", "year", "val"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]interface{}{"X", 2000, 1.5}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]interface{}{"X", 2001, 2.5}))

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	header, rows, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []string{"code", "year", "val"}, header)
	require.Equal(t, []Row{
		{"code": "X", "year": "2000", "val": "1.5"},
		{"code": "X", "year": "2001", "val": "2.5"},
	}, rows)
}
