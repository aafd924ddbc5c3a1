package chart

import (
	"testing"
	"time"
)

func TestIsChartableRejectsEmptyResult(t *testing.T) {
	if IsChartable([]string{}, [][]any{}) {
		t.Fatal("empty result should not be chartable")
	}
}

func TestIsChartableRejectsSingleScalar(t *testing.T) {
	if IsChartable([]string{"total"}, [][]any{{42}}) {
		t.Fatal("single scalar should not be chartable")
	}
}

func TestIsChartableAcceptsCategoricalPair(t *testing.T) {
	if !IsChartable([]string{"category", "count"}, [][]any{{"A", 1}, {"B", 2}}) {
		t.Fatal("categorical plus numeric should be chartable")
	}
}

func TestGenerateCategoricalChart(t *testing.T) {
	spec := Generate(
		[]string{"marca", "total_unidades"},
		[][]any{{"KOHLER", int64(120)}, {"Schlage", int64(45)}, {"Kallista", int64(12)}},
	)
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	if spec.Type != TypeCategorical {
		t.Fatalf("Type = %q", spec.Type)
	}
	if len(spec.Labels) != 3 || spec.Labels[0] != "KOHLER" {
		t.Fatalf("Labels = %v", spec.Labels)
	}
	if len(spec.Datasets) != 1 || spec.Datasets[0].Label != "total_unidades" {
		t.Fatalf("Datasets = %v", spec.Datasets)
	}
	if spec.Datasets[0].Data[1] != 45 {
		t.Fatalf("Data = %v", spec.Datasets[0].Data)
	}
}

func TestGenerateTimeSeriesFromTimeValues(t *testing.T) {
	spec := Generate(
		[]string{"periodo", "ventas"},
		[][]any{
			{time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), float64(1000)},
			{time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), float64(1500)},
		},
	)
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	if spec.Type != TypeTimeSeries {
		t.Fatalf("Type = %q", spec.Type)
	}
	if spec.Labels[0] != "2026-06-01" {
		t.Fatalf("Labels = %v", spec.Labels)
	}
}

func TestGenerateTimeSeriesFromDateShapedStrings(t *testing.T) {
	spec := Generate(
		[]string{"mes", "ingresos"},
		[][]any{{"2026-01", float64(900)}, {"2026-02", float64(1100)}},
	)
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	if spec.Type != TypeTimeSeries {
		t.Fatalf("Type = %q", spec.Type)
	}
}

func TestGenerateMultipleNumericSeries(t *testing.T) {
	spec := Generate(
		[]string{"bodega", "entradas", "salidas"},
		[][]any{{"Central", int64(30), int64(12)}, {"Pacifico", int64(18), int64(9)}},
	)
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	if len(spec.Datasets) != 2 {
		t.Fatalf("Datasets = %v", spec.Datasets)
	}
	if spec.Datasets[0].Label != "entradas" || spec.Datasets[1].Label != "salidas" {
		t.Fatalf("Datasets = %v", spec.Datasets)
	}
}

func TestGenerateFailsClosedOnAmbiguousShape(t *testing.T) {
	// Two numeric columns with no categorical or time-like label.
	if spec := Generate([]string{"a", "b"}, [][]any{{int64(1), int64(2)}}); spec != nil {
		t.Fatalf("Generate() = %v, want nil", spec)
	}
	// Label column present but no fully numeric companion.
	if spec := Generate([]string{"nombre", "nota"}, [][]any{{"A", "alta"}, {"B", "baja"}}); spec != nil {
		t.Fatalf("Generate() = %v, want nil", spec)
	}
	// Nil values make the column kind ambiguous.
	if spec := Generate([]string{"categoria", "total"}, [][]any{{nil, int64(4)}}); spec != nil {
		t.Fatalf("Generate() = %v, want nil", spec)
	}
}

func TestGenerateStringNumbersCountAsNumeric(t *testing.T) {
	spec := Generate(
		[]string{"proveedor", "monto"},
		[][]any{{"Acme", "1250.75"}, {"Delta", "980"}},
	)
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	if spec.Datasets[0].Data[0] != 1250.75 {
		t.Fatalf("Data = %v", spec.Datasets[0].Data)
	}
}
