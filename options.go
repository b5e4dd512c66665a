package crt

import (
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultDequeSize is the default for Options.DequeSize, and the
// capacity NewDeque uses when given a non-positive capacity.
const DefaultDequeSize = 1024

// Options holds the configuration a Runtime is built from. It mirrors
// the teacher's Config/DefaultConfig shape: a plain struct populated
// either by literal construction or by a constructor that fills in
// defaults, rather than a builder or functional-options chain.
type Options struct {
	// NumWorkers is the number of worker goroutines to start. Read from
	// CRT_WORKERS; defaults to 1 with a logged warning if unset.
	NumWorkers int
	// HPTFile is the path to an external place-hierarchy description,
	// read from CRT_HPT_FILE. When it is set, OptionsFromEnv skips the
	// unset-worker-count warning and the positive-count check. The
	// runtime does not read the file and does not derive NumWorkers from
	// it; NumWorkers is still the number of workers Init starts.
	HPTFile string
	// BindThreads records CRT_BIND_THREADS (presence, not value). It is
	// reported in the stats banner; the runtime does not pin worker
	// goroutines to CPUs.
	BindThreads bool
	// Stats requests the startup banner and end-of-run statistics line.
	// Read from CRT_STATS (presence, not value).
	Stats bool
	// MMAllocBatchSize is the optional slab-allocator batch size. Read
	// from CRT_MM_ALLOCBATCHSIZE; the allocator itself is out of scope
	// for this runtime (spec.md Non-goals), so this is carried only as a
	// configuration value for callers that wire their own allocator.
	MMAllocBatchSize int
	// DequeSize bounds each worker's local deque.
	DequeSize int
	// CommWorker enables the dedicated communication deque serviced only
	// by worker 0 (SPEC_FULL.md's supplemented spawn_comm feature).
	CommWorker bool
	// Logger receives runtime diagnostics (deque overflow warnings, the
	// stats banner, and so on). Defaults to the global zerolog logger.
	Logger zerolog.Logger
}

// DefaultOptions returns sensible defaults: one worker, no hierarchy
// file, no thread binding, no stats, default deque size.
func DefaultOptions() Options {
	return Options{
		NumWorkers: 1,
		DequeSize:  DefaultDequeSize,
		Logger:     log.Logger,
	}
}

// OptionsFromEnv builds Options from the CRT_* environment variables
// documented in spec.md section 6, applying the same defaults and
// diagnostics as hclib's crt_entrypoint.
func OptionsFromEnv() (Options, error) {
	opts := DefaultOptions()

	if hpt := os.Getenv("CRT_HPT_FILE"); hpt != "" {
		opts.HPTFile = hpt
	}

	if workersEnv, ok := os.LookupEnv("CRT_WORKERS"); ok {
		n, err := strconv.Atoi(workersEnv)
		if err != nil {
			return Options{}, newConfigError("CRT_WORKERS must be an integer, got %q", workersEnv)
		}
		opts.NumWorkers = n
	} else if opts.HPTFile == "" {
		opts.Logger.Warn().Msg("CRT: number of workers not set, defaulting CRT_WORKERS to 1")
	}

	if opts.HPTFile == "" && opts.NumWorkers <= 0 {
		return Options{}, newConfigError("CRT_WORKERS must be positive, got %d", opts.NumWorkers)
	}

	if _, ok := os.LookupEnv("CRT_BIND_THREADS"); ok {
		opts.BindThreads = true
	}
	if _, ok := os.LookupEnv("CRT_STATS"); ok {
		opts.Stats = true
	}

	if batchEnv, ok := os.LookupEnv("CRT_MM_ALLOCBATCHSIZE"); ok {
		n, err := strconv.Atoi(batchEnv)
		if err != nil {
			return Options{}, newConfigError("CRT_MM_ALLOCBATCHSIZE must be an integer, got %q", batchEnv)
		}
		opts.MMAllocBatchSize = n
	}

	return opts, nil
}

// displayRuntime prints the startup banner hclib's display_runtime emits
// when CRT_STATS is set.
func displayRuntime(opts Options) {
	opts.Logger.Info().Str("section", "CRT_RUNTIME_INFO").
		Int("CRT_WORKERS", opts.NumWorkers).
		Str("CRT_HPT_FILE", opts.HPTFile).
		Bool("CRT_BIND_THREADS", opts.BindThreads).
		Bool("CRT_STATS", opts.Stats).
		Msg("runtime configuration")

	if opts.HPTFile != "" && opts.BindThreads {
		opts.Logger.Warn().Msg("CRT_BIND_THREADS assigns cores round robin; combining it with CRT_HPT_FILE may co-locate places meant to span sockets")
	}
}
