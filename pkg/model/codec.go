package model

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Compression is the stream compression of a model file.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZSTD
	CompressionLZ4
	CompressionGzip
)

// CompressionFromPath picks the compression from the file extension: .zst, .lz4 or .gz.
func CompressionFromPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZSTD
	case ".lz4":
		return CompressionLZ4
	case ".gz":
		return CompressionGzip
	}
	return CompressionNone
}

// symmetryTolerance is the relative asymmetry accepted in a stored covariance
const symmetryTolerance = 1e-9

// document is the YAML layout of a model file.
type document struct {
	Metric     string      `yaml:"metric"`
	Mean       []float64   `yaml:"mean"`
	Covariance [][]float64 `yaml:"covariance"`
	PCABasis   [][]float64 `yaml:"pcaBasis,omitempty"`
	PCAMean    []float64   `yaml:"pcaMean,omitempty"`
}

// Decode reads an uncompressed YAML model and validates it.
func Decode(r io.Reader) (*Model, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("error parsing model: %w", err)
	}

	m := &Model{Metric: Metric(doc.Metric), Mean: doc.Mean, PCAMean: doc.PCAMean}
	cov, err := symmetricFromRows(doc.Covariance)
	if err != nil {
		return nil, err
	}
	m.Covariance = cov
	if len(doc.PCABasis) > 0 {
		if m.PCABasis, err = denseFromRows(doc.PCABasis); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode writes m as uncompressed YAML.
func Encode(w io.Writer, m *Model) error {
	if err := m.Validate(); err != nil {
		return err
	}
	doc := document{
		Metric:     string(m.Metric),
		Mean:       m.Mean,
		Covariance: rowsOf(m.Covariance),
		PCAMean:    m.PCAMean,
	}
	if m.PCABasis != nil {
		doc.PCABasis = rowsOf(m.PCABasis)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("error encoding model: %w", err)
	}
	return enc.Close()
}

// Load reads a model file, decompressing it according to its extension.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening model file: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	switch CompressionFromPath(path) {
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("error opening zstd stream: %w", err)
		}
		defer dec.Close()
		r = dec
	case CompressionLZ4:
		r = lz4.NewReader(r)
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("error opening gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	m, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes a model file, compressing it according to its extension.
func Save(path string, m *Model) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating model file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var (
		w      io.Writer = f
		closer io.Closer
	)
	switch CompressionFromPath(path) {
	case CompressionZSTD:
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("error opening zstd stream: %w", err)
		}
		w, closer = enc, enc
	case CompressionLZ4:
		lw := lz4.NewWriter(f)
		w, closer = lw, lw
	case CompressionGzip:
		gz := gzip.NewWriter(f)
		w, closer = gz, gz
	}

	if err := Encode(w, m); err != nil {
		return err
	}
	if closer != nil {
		return closer.Close()
	}
	return nil
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	r := len(rows)
	c := len(rows[0])
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c || c == 0 {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrInvalidModel, i, len(row), c)
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}

func symmetricFromRows(rows [][]float64) (*mat.SymDense, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty covariance", ErrInvalidModel)
	}
	sym := mat.NewSymDense(n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d values, expected %d", ErrInvalidModel, i, len(row), n)
		}
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a, b := rows[i][j], rows[j][i]
			if math.Abs(a-b) > symmetryTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
				return nil, fmt.Errorf("%w: covariance is not symmetric at (%d, %d)", ErrInvalidModel, i, j)
			}
			sym.SetSym(i, j, (a+b)/2)
		}
	}
	return sym, nil
}

func rowsOf(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
