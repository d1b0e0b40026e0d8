package scoring

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitryikh/leaves"

	"github.com/hanko-field/namedivider/internal/features"
)

// ErrInvalidModel indicates a model blob that could not be parsed into a usable regressor.
var ErrInvalidModel = errors.New("scoring: invalid model")

// Regressor evaluates a trained model on one feature vector.
type Regressor interface {
	Predict(features []float64) float64
}

// Loader parses a serialized model into a Regressor. Loaders must be deterministic for a given blob.
type Loader func(blob []byte) (Regressor, error)

// Fingerprint returns the hex SHA-256 digest identifying a model blob.
func Fingerprint(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

type lightGBMRegressor struct {
	ensemble *leaves.Ensemble
}

func (r *lightGBMRegressor) Predict(fvals []float64) float64 {
	return r.ensemble.PredictSingle(fvals, 0)
}

// LoadLightGBM parses a LightGBM text model trained on the ranking feature vector.
func LoadLightGBM(blob []byte) (Regressor, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil, fmt.Errorf("%w: empty model", ErrInvalidModel)
	}
	ensemble, err := leaves.LGEnsembleFromReader(bufio.NewReader(bytes.NewReader(blob)), false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if n := ensemble.NFeatures(); n != features.RankingFeatureCount {
		return nil, fmt.Errorf("%w: model expects %d features, want %d", ErrInvalidModel, n, features.RankingFeatureCount)
	}
	return &lightGBMRegressor{ensemble: ensemble}, nil
}
