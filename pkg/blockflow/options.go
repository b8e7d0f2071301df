package blockflow

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lumenlab/blockflow/pkg/blockflow/config"
	"github.com/lumenlab/blockflow/pkg/blockflow/propagate"
)

// ExecutionOptions controls how a single run behaves. Construct via
// ExecuteOption functions; the zero value is filled in by defaults.
type ExecutionOptions struct {
	// MaxRetries is the number of retries per block beyond the first
	// attempt. Zero disables retries.
	MaxRetries int `validate:"gte=0,lte=10"`

	// RetryDelay is the base delay before the first retry. Subsequent
	// retries back off exponentially from this value.
	RetryDelay time.Duration `validate:"gte=0"`

	// MaxConcurrency bounds the number of blocks dispatched at once.
	// One means fully sequential execution.
	MaxConcurrency int `validate:"gte=1,lte=64"`

	// DispatchTimeout bounds each individual dispatch attempt.
	// Zero means no per-attempt timeout.
	DispatchTimeout time.Duration `validate:"gte=0"`

	// BatchInputs are externally supplied variable values, keyed by name.
	// Upstream block outputs with the same name take precedence.
	BatchInputs map[string]string

	// OnProgress, if set, is called after every block terminates with a
	// snapshot of the run's progress. Calls are serialized.
	OnProgress func(Progress)

	propagator propagate.Store
}

var optionsValidator = validator.New()

func defaultExecutionOptions() ExecutionOptions {
	return ExecutionOptions{
		MaxRetries:     0,
		RetryDelay:     time.Second,
		MaxConcurrency: 1,
	}
}

func (o *ExecutionOptions) validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return fmt.Errorf("invalid execution options: %w", err)
	}
	return nil
}

// ExecuteOption configures a single workflow run.
type ExecuteOption func(*ExecutionOptions)

// WithMaxRetries sets the number of retries per block beyond the first
// attempt.
func WithMaxRetries(n int) ExecuteOption {
	return func(o *ExecutionOptions) { o.MaxRetries = n }
}

// WithRetryDelay sets the base delay between retry attempts.
func WithRetryDelay(d time.Duration) ExecuteOption {
	return func(o *ExecutionOptions) { o.RetryDelay = d }
}

// WithMaxConcurrency bounds the number of blocks dispatched at once.
func WithMaxConcurrency(n int) ExecuteOption {
	return func(o *ExecutionOptions) { o.MaxConcurrency = n }
}

// WithDispatchTimeout bounds each individual dispatch attempt.
func WithDispatchTimeout(d time.Duration) ExecuteOption {
	return func(o *ExecutionOptions) { o.DispatchTimeout = d }
}

// WithBatchInputs supplies external variable values for prompt resolution.
func WithBatchInputs(inputs map[string]string) ExecuteOption {
	return func(o *ExecutionOptions) { o.BatchInputs = inputs }
}

// WithProgressFunc registers a callback invoked after every block
// terminates.
func WithProgressFunc(fn func(Progress)) ExecuteOption {
	return func(o *ExecutionOptions) { o.OnProgress = fn }
}

// WithPropagator sets the store used to carry block outputs downstream.
// By default each run uses a fresh in-memory store scoped to the graph.
func WithPropagator(store propagate.Store) ExecuteOption {
	return func(o *ExecutionOptions) { o.propagator = store }
}

// OptionsFromConfig derives execute options from a loaded config.
// Recognized keys: max_retries, retry_delay, max_concurrency,
// dispatch_timeout. Absent keys contribute nothing.
func OptionsFromConfig(cfg config.Config) []ExecuteOption {
	var opts []ExecuteOption
	if cfg.Has("max_retries") {
		opts = append(opts, WithMaxRetries(cfg.Int("max_retries", 0)))
	}
	if cfg.Has("retry_delay") {
		opts = append(opts, WithRetryDelay(cfg.Duration("retry_delay", time.Second)))
	}
	if cfg.Has("max_concurrency") {
		opts = append(opts, WithMaxConcurrency(cfg.Int("max_concurrency", 1)))
	}
	if cfg.Has("dispatch_timeout") {
		opts = append(opts, WithDispatchTimeout(cfg.Duration("dispatch_timeout", 0)))
	}
	return opts
}
