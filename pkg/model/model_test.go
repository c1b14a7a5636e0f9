package model

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func niqeModel() *Model {
	return &Model{
		Metric:     MetricNIQE,
		Mean:       []float64{0.5, 1.25, -3},
		Covariance: mat.NewSymDense(3, []float64{2, 0.1, 0, 0.1, 1, 0.3, 0, 0.3, 4}),
	}
}

func ilniqeModel() *Model {
	return &Model{
		Metric:     MetricILNIQE,
		Mean:       []float64{0.1, 0.2},
		Covariance: mat.NewSymDense(2, []float64{1, 0.5, 0.5, 1}),
		PCABasis:   mat.NewDense(4, 2, []float64{1, 0, 0, 1, 0.5, 0.5, 0.25, -0.125}),
		PCAMean:    []float64{10, 20, 30, 40},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, niqeModel().Validate())
	require.NoError(t, ilniqeModel().Validate())

	m := ilniqeModel()
	assert.Equal(t, 2, m.Dim())
	assert.Equal(t, 4, m.FeatureDim())
	assert.Equal(t, 3, niqeModel().FeatureDim())

	cases := map[string]func(*Model){
		"unknown metric":     func(m *Model) { m.Metric = "brisque" },
		"empty mean":         func(m *Model) { m.Mean = nil },
		"covariance size":    func(m *Model) { m.Covariance = mat.NewSymDense(3, nil) },
		"missing basis":      func(m *Model) { m.PCABasis = nil },
		"pca mean size":      func(m *Model) { m.PCAMean = m.PCAMean[:3] },
		"basis components":   func(m *Model) { m.PCABasis = mat.NewDense(4, 3, nil) },
		"non-finite mean":    func(m *Model) { m.Mean[0] = 1 / zero() },
		"non-finite pcaMean": func(m *Model) { m.PCAMean[1] = 1 / zero() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := ilniqeModel()
			mutate(m)
			assert.ErrorIs(t, m.Validate(), ErrInvalidModel)
		})
	}

	withBasis := niqeModel()
	withBasis.PCAMean = []float64{1, 2, 3}
	assert.ErrorIs(t, withBasis.Validate(), ErrInvalidModel)
}

func zero() float64 { return 0 }

func TestEncodeDecode(t *testing.T) {
	for _, m := range []*Model{niqeModel(), ilniqeModel()} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, m))

		got, err := Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, m.Metric, got.Metric)
		assert.Equal(t, m.Mean, got.Mean)
		assert.True(t, mat.Equal(m.Covariance, got.Covariance))
		if m.PCABasis != nil {
			assert.True(t, mat.Equal(m.PCABasis, got.PCABasis))
			assert.Equal(t, m.PCAMean, got.PCAMean)
		} else {
			assert.Nil(t, got.PCABasis)
		}
	}
}

func TestDecodeRejectsBadDocuments(t *testing.T) {
	docs := map[string]string{
		"asymmetric": "metric: niqe\nmean: [1, 2]\ncovariance: [[1, 0.5], [0.4, 1]]\n",
		"ragged":     "metric: niqe\nmean: [1, 2]\ncovariance: [[1, 0.5], [0.5]]\n",
		"missing":    "metric: niqe\nmean: [1, 2]\n",
		"basis":      "metric: ilniqe\nmean: [1]\ncovariance: [[1]]\npcaBasis: [[1], [1, 2]]\npcaMean: [0, 0]\n",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}

	_, err := Decode(strings.NewReader("metric: [unterminated"))
	assert.Error(t, err)
}

func TestCompressionFromPath(t *testing.T) {
	assert.Equal(t, CompressionZSTD, CompressionFromPath("niqe.yaml.zst"))
	assert.Equal(t, CompressionLZ4, CompressionFromPath("niqe.yaml.LZ4"))
	assert.Equal(t, CompressionGzip, CompressionFromPath("/models/ilniqe.yaml.gz"))
	assert.Equal(t, CompressionNone, CompressionFromPath("niqe.yaml"))
}

func TestSaveLoadCompressed(t *testing.T) {
	dir := t.TempDir()
	m := ilniqeModel()

	for _, name := range []string{"model.yaml", "model.yaml.zst", "model.yaml.lz4", "model.yaml.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, m))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, m.Mean, got.Mean)
			assert.True(t, mat.Equal(m.Covariance, got.Covariance))
			assert.True(t, mat.Equal(m.PCABasis, got.PCABasis))
		})
	}

	// a compressed file is not readable as plain YAML
	raw, err := os.ReadFile(filepath.Join(dir, "model.yaml.zst"))
	require.NoError(t, err)
	_, err = Decode(bytes.NewReader(raw))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}
