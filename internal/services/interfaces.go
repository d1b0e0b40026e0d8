package services

import (
	"context"
	"time"

	domain "github.com/hanko-field/namedivider/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	DividedName        = domain.DividedName
	SystemHealthReport = domain.SystemHealthReport
)

// Divider splits one undivided name.
type Divider interface {
	Divide(name string) (DividedName, error)
}

// Engine is an immutable snapshot of the dividers built from one set of assets.
type Engine struct {
	Dividers         map[string]Divider
	ModelFingerprint string
	LoadedAt         time.Time
}

// Divider returns the divider registered for mode.
func (e *Engine) Divider(mode string) (Divider, bool) {
	if e == nil {
		return nil, false
	}
	d, ok := e.Dividers[mode]
	return d, ok && d != nil
}

// EngineProvider returns the engine currently serving requests, or nil before the first load.
type EngineProvider interface {
	Engine() *Engine
}

// EngineFunc adapts a function to EngineProvider.
type EngineFunc func() *Engine

// Engine implements EngineProvider.
func (f EngineFunc) Engine() *Engine { return f() }

// DivideCommand requests the division of a single name.
type DivideCommand struct {
	Name string
	Mode string
}

// DivideBatchCommand requests the division of several names with one mode.
type DivideBatchCommand struct {
	Names []string
	Mode  string
}

// DivideBatchResult carries batch results in input order.
type DivideBatchResult struct {
	Mode    string
	Results []DividedName
}

// NameDivisionService resolves a division mode against the loaded engine and divides names with it.
type NameDivisionService interface {
	Divide(ctx context.Context, cmd DivideCommand) (DividedName, error)
	DivideBatch(ctx context.Context, cmd DivideBatchCommand) (DivideBatchResult, error)
	Modes() []string
	DefaultMode() string
	MaxBatch() int
}

// SystemService aggregates health and readiness reporting.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}
