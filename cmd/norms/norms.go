package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bigfive-api/internal/catalog"
	"bigfive-api/internal/domain"
	"bigfive-api/internal/scoring"
)

const (
	minValidTotal = 10
	maxValidTotal = 50
)

// columnKey es la clave de puntuacion del dataset publico IPIP-FFM. No
// coincide con la del catalogo: las columnas EST y OPN tienen su propio
// reparto de items invertidos.
type columnKey struct {
	Positive []string
	Negative []string
}

var datasetKeys = map[domain.Trait]columnKey{
	domain.TraitExtraversion: {
		Positive: []string{"EXT1", "EXT3", "EXT5", "EXT7", "EXT9"},
		Negative: []string{"EXT2", "EXT4", "EXT6", "EXT8", "EXT10"},
	},
	domain.TraitAgreeableness: {
		Positive: []string{"AGR2", "AGR4", "AGR6", "AGR8", "AGR10"},
		Negative: []string{"AGR1", "AGR3", "AGR5", "AGR7", "AGR9"},
	},
	domain.TraitConscientiousness: {
		Positive: []string{"CSN1", "CSN3", "CSN5", "CSN7", "CSN9"},
		Negative: []string{"CSN2", "CSN4", "CSN6", "CSN8", "CSN10"},
	},
	domain.TraitNeuroticism: {
		Positive: []string{"EST1", "EST3", "EST5", "EST6", "EST7", "EST8", "EST9", "EST10"},
		Negative: []string{"EST2", "EST4"},
	},
	domain.TraitOpenness: {
		Positive: []string{"OPN1", "OPN3", "OPN5", "OPN7", "OPN8", "OPN9", "OPN10"},
		Negative: []string{"OPN2", "OPN4", "OPN6"},
	},
}

// TraitNorm es el resultado de un rasgo sobre el dataset.
type TraitNorm struct {
	Trait   domain.Trait `json:"trait"`
	Mean    float64      `json:"mean"`
	Std     float64      `json:"std"`
	Samples int          `json:"samples"`
	Min     float64      `json:"min"`
	Max     float64      `json:"max"`
}

// ComputeNorms lee un dataset delimitado y devuelve media y desvio (muestral)
// de cada rasgo. Las respuestas fuera de 1..5 se ignoran y los totales fuera
// de 10..50 se descartan.
func ComputeNorms(r io.Reader, sep rune) (map[domain.Trait]TraitNorm, int, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for trait, key := range datasetKeys {
		if !hasAny(index, key) {
			return nil, 0, fmt.Errorf("dataset has no columns for %s", trait)
		}
	}

	totals := make(map[domain.Trait][]float64, len(datasetKeys))
	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rows, fmt.Errorf("row %d: %w", rows+2, err)
		}
		rows++
		for trait, key := range datasetKeys {
			total := rowTotal(record, index, key)
			if total < minValidTotal || total > maxValidTotal {
				continue
			}
			totals[trait] = append(totals[trait], total)
		}
	}

	out := make(map[domain.Trait]TraitNorm, len(datasetKeys))
	for _, trait := range domain.AllTraits() {
		values := totals[trait]
		if len(values) < 2 {
			return nil, rows, fmt.Errorf("not enough valid samples for %s (%d)", trait, len(values))
		}
		out[trait] = TraitNorm{
			Trait:   trait,
			Mean:    scoring.Round1(stat.Mean(values, nil)),
			Std:     scoring.Round1(stat.StdDev(values, nil)),
			Samples: len(values),
			Min:     floats.Min(values),
			Max:     floats.Max(values),
		}
	}
	return out, rows, nil
}

func hasAny(index map[string]int, key columnKey) bool {
	for _, col := range append(append([]string{}, key.Positive...), key.Negative...) {
		if _, ok := index[col]; ok {
			return true
		}
	}
	return false
}

func rowTotal(record []string, index map[string]int, key columnKey) float64 {
	total := 0.0
	for _, col := range key.Positive {
		if v, ok := cell(record, index, col); ok {
			total += v
		}
	}
	for _, col := range key.Negative {
		if v, ok := cell(record, index, col); ok {
			total += float64(scoring.ReverseScore(int(v)))
		}
	}
	return total
}

// cell devuelve el valor Likert de una columna, o false si falta o esta fuera de rango.
func cell(record []string, index map[string]int, col string) (float64, bool) {
	i, ok := index[col]
	if !ok || i >= len(record) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
	if err != nil || v != float64(int(v)) || !scoring.ValidResponse(int(v)) {
		return 0, false
	}
	return v, true
}

// ApplyNorms reemplaza las normas del documento y valida el resultado
// cargandolo como catalogo.
func ApplyNorms(doc catalog.Document, norms map[domain.Trait]TraitNorm) (catalog.Document, error) {
	updated := doc
	updated.Norms = make([]catalog.NormDoc, 0, len(domain.AllTraits()))
	for _, trait := range domain.AllTraits() {
		n, ok := norms[trait]
		if !ok {
			return catalog.Document{}, fmt.Errorf("missing norm for %s", trait)
		}
		mean, std := n.Mean, n.Std
		updated.Norms = append(updated.Norms, catalog.NormDoc{
			Trait:      string(trait),
			Mean:       &mean,
			Std:        &std,
			SampleSize: n.Samples,
		})
	}

	data, err := updated.Marshal()
	if err != nil {
		return catalog.Document{}, fmt.Errorf("marshal catalog: %w", err)
	}
	if _, _, err := catalog.Load(catalog.BytesSource{Label: "computed", Data: data}); err != nil {
		return catalog.Document{}, err
	}
	return updated, nil
}
