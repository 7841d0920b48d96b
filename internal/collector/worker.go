package collector

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"xrdcc/internal/collector/storage"
	"xrdcc/pkg/identifier"
	"xrdcc/pkg/xrdmodel"
)

// Pool drains a fixed queue of subsystem identifiers with N worker
// goroutines, recording one Subsystem result per identifier.
type Pool struct {
	Processor *Processor
	Backend   storage.Backend
	Logger    zerolog.Logger

	resultsMu sync.Mutex
	results   map[string]xrdmodel.Subsystem
}

// Run enqueues every subsystem in subsystems, starts workerCount workers,
// and blocks until every subsystem has a result. Once ctx is cancelled,
// subsystems not yet started are recorded as ERROR without being
// processed. It returns the accumulated results keyed by subsystem path.
func (p *Pool) Run(ctx context.Context, subsystems [][]string, workerCount int) map[string]xrdmodel.Subsystem {
	p.results = make(map[string]xrdmodel.Subsystem, len(subsystems))

	queue := make(chan []string, len(subsystems))
	for _, s := range subsystems {
		queue <- s
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			p.runWorker(ctx, workerNum, queue)
		}(i)
	}
	wg.Wait()

	return p.results
}

func (p *Pool) runWorker(ctx context.Context, workerNum int, queue <-chan []string) {
	logger := p.Logger.With().Int("worker", workerNum).Logger()

	for subsystem := range queue {
		if ctx.Err() != nil || !p.Backend.Active() {
			p.record(identifier.Join(subsystem), ErrorResult(subsystem))
			continue
		}

		result := p.processOne(ctx, subsystem, logger)
		p.record(identifier.Join(subsystem), result)
	}
}

// processOne runs the processor for one subsystem, converting any panic
// into an ERROR-status result so one bad subsystem never kills the pool.
func (p *Pool) processOne(ctx context.Context, subsystem []string, logger zerolog.Logger) (result xrdmodel.Subsystem) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Strs("subsystem", subsystem).Msg("subsystem processing panicked")
			result = ErrorResult(subsystem)
		}
	}()
	return p.Processor.Process(ctx, subsystem)
}

func (p *Pool) record(path string, result xrdmodel.Subsystem) {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()
	p.results[path] = result
}

// AllFailed reports whether every subsystem failed to list its methods,
// used to decide whether a run should exit non-zero even though the pool
// itself completed. An empty result set counts as total failure, and
// anything other than StatusOK (including StatusTimeout) counts as a
// failed subsystem; ServicesStatus does not factor in.
func AllFailed(results map[string]xrdmodel.Subsystem) bool {
	for _, r := range results {
		if r.MethodsStatus == xrdmodel.StatusOK {
			return false
		}
	}
	return true
}
