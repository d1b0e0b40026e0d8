package scoring

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hanko-field/namedivider/internal/features"
)

type modelVersion struct {
	blob        []byte
	fingerprint string
}

// modelHandle is an evaluator owned by one goroutine at a time, with its own scratch vector.
type modelHandle struct {
	fingerprint string
	model       Regressor
	buf         []float64
}

// ModelPool lends model handles to concurrent scorers. Handles are created lazily from the current
// model blob and recycled through a sync.Pool; a handle built for an older fingerprint is dropped
// instead of being reused after Reset.
type ModelPool struct {
	load    Loader
	current atomic.Pointer[modelVersion]
	handles sync.Pool
	created atomic.Int64
}

// NewModelPool validates blob with load and returns a pool serving it. A nil load uses LoadLightGBM.
func NewModelPool(blob []byte, load Loader) (*ModelPool, error) {
	if load == nil {
		load = LoadLightGBM
	}
	p := &ModelPool{load: load}
	if err := p.Reset(blob); err != nil {
		return nil, err
	}
	return p, nil
}

// Reset swaps in a new model. The blob is parsed before the swap so a bad model leaves the pool unchanged.
func (p *ModelPool) Reset(blob []byte) error {
	if p == nil {
		return errors.New("scoring: model pool is nil")
	}
	owned := append([]byte(nil), blob...)
	version := &modelVersion{blob: owned, fingerprint: Fingerprint(owned)}

	handle, err := p.newHandle(version)
	if err != nil {
		return err
	}
	p.current.Store(version)
	p.handles.Put(handle)
	return nil
}

// Fingerprint identifies the model currently served.
func (p *ModelPool) Fingerprint() string {
	if v := p.current.Load(); v != nil {
		return v.fingerprint
	}
	return ""
}

// HandlesCreated reports how many handles have been built over the pool's lifetime.
func (p *ModelPool) HandlesCreated() int64 {
	return p.created.Load()
}

func (p *ModelPool) acquire() (*modelHandle, error) {
	version := p.current.Load()
	if version == nil {
		return nil, errors.New("scoring: model pool has no model")
	}
	for {
		v := p.handles.Get()
		if v == nil {
			break
		}
		handle := v.(*modelHandle)
		if handle.fingerprint == version.fingerprint {
			return handle, nil
		}
	}
	return p.newHandle(version)
}

func (p *ModelPool) release(handle *modelHandle) {
	if handle == nil {
		return
	}
	if version := p.current.Load(); version == nil || version.fingerprint != handle.fingerprint {
		return
	}
	p.handles.Put(handle)
}

func (p *ModelPool) newHandle(version *modelVersion) (*modelHandle, error) {
	model, err := p.load(version.blob)
	if err != nil {
		if errors.Is(err, ErrInvalidModel) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: loader returned no model", ErrInvalidModel)
	}
	p.created.Add(1)
	return &modelHandle{
		fingerprint: version.fingerprint,
		model:       model,
		buf:         make([]float64, 0, features.RankingFeatureCount),
	}, nil
}
