package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ContractsHeader is the column layout of the reference spreadsheet
var ContractsHeader = []any{"CIRCUITO", "ORIGEM", "DESTINO", "PROGRAMADOR", "OBS", "CONTRATO", "TIPO", "REALIZADO"}

// ContractRows yield two zones: CAMPINAS with two routes and SANTOS with one.
// Contracted volume totals 230 and realized volume totals 130.
var ContractRows = [][]any{
	{"C1", "CAMPINAS", "RJ", "Ana", "", 100, "", 40},
	{"C2", "CAMPINAS", "MG", "Ana", "", 50, "", 10},
	{"C3", "SANTOS", "RJ", "", "", 80, "", 80},
}

// ContractsCSV is ContractRows rendered as the semicolon separated export
const ContractsCSV = "CIRCUITO;ORIGEM;DESTINO;PROGRAMADOR;OBS;CONTRATO;TIPO;REALIZADO\n" +
	"C1;CAMPINAS;RJ;Ana;;100;;40\n" +
	"C2;CAMPINAS;MG;Ana;;50;;10\n" +
	"C3;SANTOS;RJ;;;80;;80\n"

// Workbook renders rows into the first sheet of a new xlsx file
func Workbook(t testing.TB, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

// ContractsWorkbook is the xlsx twin of ContractsCSV
func ContractsWorkbook(t testing.TB) []byte {
	t.Helper()
	rows := append([][]any{ContractsHeader}, ContractRows...)
	return Workbook(t, rows)
}

// WriteTempFile writes data under a fresh temp dir and returns its path
func WriteTempFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
