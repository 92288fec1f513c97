package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractpulse/pkg/contracts/domain"
)

var header = []any{"CIRCUITO", "ORIGEM", "DESTINO", "PROGRAMADOR", "OBS", "CONTRATO", "TIPO", "REALIZADO"}

func row(id, origin, dest, programmer string, contracted, realized any) []any {
	return []any{id, origin, dest, programmer, nil, contracted, nil, realized}
}

func newTestImporter() *Importer {
	return New(Options{})
}

func TestImport_DuplicateCircuitScenario(t *testing.T) {
	sheet := domain.Rows(
		header,
		row("C1", "SP", "RJ", "Ana", 200, 180),
		row("C1", "SP", "RJ", "Ana", 200, 999),
		row("C2", "SP", "RJ", "Ana", 100, 10),
	)

	result, err := newTestImporter().Import(context.Background(), sheet)
	require.NoError(t, err)

	require.Len(t, result.Zones, 1)
	zone := result.Zones[0]
	assert.Equal(t, "SP", zone.Name)
	require.Len(t, zone.Routes, 2)
	assert.Equal(t, "C1", zone.Routes[0].ID)
	assert.Equal(t, 180.0, zone.Routes[0].RealizedVolume)
	assert.Equal(t, "C2", zone.Routes[1].ID)

	assert.Equal(t, 2, result.ValidRowCount)
	assert.Equal(t, 1, result.DuplicateRowCount)
	assert.Equal(t, 2, result.RouteCount)
	assert.True(t, result.HeaderDetected)

	assert.Equal(t, 190.0*domain.RevenueRate, zone.FinancialRevenue)
	assert.Equal(t, 190.0*domain.BonusRate, zone.FinancialBonus)
}

func TestImport_HeaderOnlySheet(t *testing.T) {
	_, err := newTestImporter().Import(context.Background(), domain.Rows(header))
	require.Error(t, err)

	var empty *EmptyResultError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, 0, empty.ValidRows)
	assert.Equal(t, 0, empty.DuplicateRows)
}

func TestImport_AllRowsRejected(t *testing.T) {
	sheet := domain.Rows(
		header,
		row("C1", "TOTAL GERAL", "RJ", "", 10, 10),
		row("C1", "SP", "RJ", "", 10, 10),
		row("", "SP", "RJ", "", 10, 10),
	)
	_, err := newTestImporter().Import(context.Background(), sheet)

	var empty *EmptyResultError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 1, empty.DuplicateRows)
	assert.Equal(t, 2, empty.SkippedRows)
	assert.Equal(t, 3, empty.ScannedRows)
}

func TestImport_DedupCountsEveryRepeat(t *testing.T) {
	sheet := domain.Rows(
		header,
		row("A", "SP", "RJ", "", 1, 1),
		row("A", "SP", "RJ", "", 1, 1),
		row("A", "SP", "RJ", "", 1, 1),
		row("B", "SP", "RJ", "", 1, 1),
		row("B", "SP", "RJ", "", 1, 1),
	)
	result, err := newTestImporter().Import(context.Background(), sheet)
	require.NoError(t, err)

	assert.Equal(t, 3, result.DuplicateRowCount)
	ids := map[string]int{}
	for _, z := range result.Zones {
		for _, r := range z.Routes {
			ids[r.ID]++
		}
	}
	assert.Equal(t, map[string]int{"A": 1, "B": 1}, ids)
}

func TestImport_NordesteMerge(t *testing.T) {
	sheet := domain.Rows(
		header,
		row("1", "PERNAMBUCO", "RECIFE", "", 10, 5),
		row("2", "PERNAMBUCO / PARAIBA / ALAGOAS", "MACEIO", "", 20, 5),
		row("3", "BAHIA", "SALVADOR", "", 30, 5),
	)
	result, err := newTestImporter().Import(context.Background(), sheet)
	require.NoError(t, err)

	require.Len(t, result.Zones, 2)
	assert.Equal(t, "BAHIA", result.Zones[0].Name)
	assert.Equal(t, "NORDESTE", result.Zones[1].Name)
	assert.Len(t, result.Zones[1].Routes, 2)
}

func TestImport_OutOfCircuitOriginKey(t *testing.T) {
	sheet := domain.Rows(
		header,
		row("1", "CAMPINAS FORA DO CIRCUITO", "RJ", "", 10, 5),
		row("2", "CAMPINAS", "RJ", "", 10, 5),
		row("3", "FORA DO CIRCUITO", "RJ", "", 10, 5),
	)
	result, err := newTestImporter().Import(context.Background(), sheet)
	require.NoError(t, err)

	names := make([]string, len(result.Zones))
	for i, z := range result.Zones {
		names[i] = z.Name
	}
	assert.Equal(t, []string{"CAMPINAS", "FORA DO CIRCUITO"}, names)
	assert.Len(t, result.Zones[0].Routes, 2)
}

func TestImport_ProgrammerFirstWriteWins(t *testing.T) {
	sheet := domain.Rows(
		header,
		row("1", "SP", "RJ", "", 10, 5),
		row("2", "SP", "RJ", "Bruno", 10, 5),
		row("3", "SP", "RJ", "Carla", 10, 5),
		row("4", "MG", "RJ", "", 10, 5),
	)
	result, err := newTestImporter().Import(context.Background(), sheet)
	require.NoError(t, err)

	require.Len(t, result.Zones, 2)
	assert.Equal(t, "MG", result.Zones[0].Name)
	assert.Equal(t, domain.UnassignedProgrammer, result.Zones[0].Programmer)
	assert.Equal(t, "SP", result.Zones[1].Name)
	assert.Equal(t, "Bruno", result.Zones[1].Programmer)
}

func TestImport_DefaultMappingFallback(t *testing.T) {
	sheet := domain.Rows(
		[]any{"planilha sem cabecalho"},
		[]any{"X1", "rj", "sp", "Dora", nil, "1.200,50", nil, "600"},
	)
	result, err := newTestImporter().Import(context.Background(), sheet)
	require.NoError(t, err)

	assert.False(t, result.HeaderDetected)
	require.Len(t, result.Zones, 1)
	zone := result.Zones[0]
	assert.Equal(t, "RJ", zone.Name)
	assert.Equal(t, "Dora", zone.Programmer)
	require.Len(t, zone.Routes, 1)
	assert.Equal(t, 1200.5, zone.Routes[0].ContractedVolume)
	assert.Equal(t, 600.0, zone.Routes[0].RealizedVolume)
	assert.Equal(t, "RIO DE JANEIRO", zone.Routes[0].Origin)
	assert.Equal(t, "SAO PAULO", zone.Routes[0].Destination)
}

func TestImport_HeaderBelowTitleRows(t *testing.T) {
	sheet := domain.Rows(
		[]any{"RELATORIO MENSAL"},
		[]any{},
		[]any{"Nº", "Origem ", "destino", "META", "REAL", "Programador"},
		[]any{"7", "SP", "RJ", 50, 25, "Eva"},
	)
	result, err := newTestImporter().Import(context.Background(), sheet)
	require.NoError(t, err)

	require.Len(t, result.Zones, 1)
	route := result.Zones[0].Routes[0]
	assert.Equal(t, "7", route.ID)
	assert.Equal(t, 50.0, route.ContractedVolume)
	assert.Equal(t, 25.0, route.RealizedVolume)
	assert.Equal(t, "Eva", result.Zones[0].Programmer)
}

func TestImport_DeterministicZoneIDs(t *testing.T) {
	sheet := domain.Rows(
		header,
		row("1", "SAO PAULO", "RJ", "", 10, 5),
		row("2", "BELO HORIZONTE", "RJ", "", 10, 5),
	)
	first, err := newTestImporter().Import(context.Background(), sheet)
	require.NoError(t, err)
	second, err := newTestImporter().Import(context.Background(), sheet)
	require.NoError(t, err)

	assert.Equal(t, first.Zones, second.Zones)
	for _, z := range first.Zones {
		assert.True(t, strings.HasPrefix(z.ID, strings.ToUpper(z.Name[:3])+"-"), z.ID)
		assert.Len(t, z.ID, 8)
	}
}

func TestImportFile_CSV(t *testing.T) {
	csv := "CIRCUITO;ORIGEM;DESTINO;PROGRAMADOR;X;CONTRATO;Y;REALIZADO\n" +
		"C1;SP;RJ;Ana;;100;;\"45,5\"\n"
	result, err := newTestImporter().ImportFile(context.Background(), "circuitos.csv", strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, result.Zones, 1)
	assert.Equal(t, 45.5, result.Zones[0].Routes[0].RealizedVolume)
}

func TestImportFile_UnsupportedFormat(t *testing.T) {
	_, err := newTestImporter().ImportFile(context.Background(), "circuitos.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".pdf")
}
