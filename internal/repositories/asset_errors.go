package repositories

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetMissing indicates a required static asset could not be opened.
	ErrAssetMissing = errors.New("asset repository: asset missing")
	// ErrAssetMalformed indicates a static asset was readable but did not match the expected layout.
	ErrAssetMalformed = errors.New("asset repository: asset malformed")
)

// AssetError describes a failure to build a repository from a named asset.
type AssetError struct {
	Asset string
	Err   error
}

// Error implements the error interface.
func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %q: %v", e.Asset, e.Err)
}

// Unwrap exposes the underlying error.
func (e *AssetError) Unwrap() error { return e.Err }

// NewAssetError wraps err with the asset name.
func NewAssetError(asset string, err error) error {
	if err == nil {
		return nil
	}
	return &AssetError{Asset: asset, Err: err}
}

// Malformed builds an AssetError wrapping ErrAssetMalformed with a formatted reason.
func Malformed(asset, format string, args ...any) error {
	return &AssetError{Asset: asset, Err: fmt.Errorf("%w: %s", ErrAssetMalformed, fmt.Sprintf(format, args...))}
}
