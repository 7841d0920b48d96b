package collector

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrdcc/internal/collector/storage"
	"xrdcc/internal/collector/xrdclient/fake"
	"xrdcc/pkg/identifier"
	"xrdcc/pkg/xrdmodel"
)

func TestPool_Run_OneResultPerSubsystem(t *testing.T) {
	client := fake.New()
	subsystems := [][]string{
		{"X", "A", "1", "s1"},
		{"X", "A", "1", "s2"},
		{"X", "A", "1", "s3"},
	}

	backend, _ := newTestBackend()
	pool := &Pool{
		Processor: &Processor{Client: client, Backend: backend, Logger: zerolog.Nop()},
		Backend:   backend,
		Logger:    zerolog.Nop(),
	}

	results := pool.Run(context.Background(), subsystems, 2)

	require.Len(t, results, 3)
	for _, s := range subsystems {
		r, ok := results[identifier.Join(s)]
		require.True(t, ok)
		assert.Equal(t, xrdmodel.StatusOK, r.MethodsStatus)
		assert.Equal(t, xrdmodel.StatusOK, r.ServicesStatus)
	}
}

func TestPool_Run_DeactivatedBackendStopsProcessing(t *testing.T) {
	client := fake.New()
	subsystems := [][]string{
		{"X", "A", "1", "s1"},
		{"X", "A", "1", "s2"},
	}

	backend, _ := newTestBackend()
	backend.Deactivate()

	pool := &Pool{
		Processor: &Processor{Client: client, Backend: backend, Logger: zerolog.Nop()},
		Backend:   backend,
		Logger:    zerolog.Nop(),
	}

	results := pool.Run(context.Background(), subsystems, 1)

	require.Len(t, results, 2)
	for _, s := range subsystems {
		r := results[identifier.Join(s)]
		assert.Equal(t, xrdmodel.StatusError, r.MethodsStatus)
		assert.Equal(t, xrdmodel.StatusError, r.ServicesStatus)
	}
}

// panicFiler panics on EnsureDir for a chosen subsystem path, letting tests
// exercise the recover() in processOne without needing a panicking fake
// xrdclient.Client.
type panicFiler struct {
	storage.Filer
	panicOn string
}

func (f *panicFiler) EnsureDir(ctx context.Context, dirPath string) error {
	if dirPath == f.panicOn {
		panic("simulated storage failure")
	}
	return f.Filer.EnsureDir(ctx, dirPath)
}

func TestPool_Run_PanicIsRecoveredAsErrorResult(t *testing.T) {
	client := fake.New()
	s1 := []string{"X", "A", "1", "s1"}
	s2 := []string{"X", "A", "1", "s2"}

	inner := newMemoryFiler()
	filer := &panicFiler{Filer: inner, panicOn: identifier.Join(s1)}
	backend := storage.NewCore(filer, storage.DefaultConfig(), zerolog.Nop())
	backend.Activate()

	pool := &Pool{
		Processor: &Processor{Client: client, Backend: backend, Logger: zerolog.Nop()},
		Backend:   backend,
		Logger:    zerolog.Nop(),
	}

	results := pool.Run(context.Background(), [][]string{s1, s2}, 1)

	require.Len(t, results, 2)
	assert.Equal(t, xrdmodel.StatusError, results[identifier.Join(s1)].MethodsStatus)
	assert.Equal(t, xrdmodel.StatusOK, results[identifier.Join(s2)].MethodsStatus)
}

func TestAllFailed(t *testing.T) {
	assert.True(t, AllFailed(map[string]xrdmodel.Subsystem{}))

	mixed := map[string]xrdmodel.Subsystem{
		"a": {MethodsStatus: xrdmodel.StatusError, ServicesStatus: xrdmodel.StatusError},
		"b": {MethodsStatus: xrdmodel.StatusOK, ServicesStatus: xrdmodel.StatusError},
	}
	assert.False(t, AllFailed(mixed))

	allErr := map[string]xrdmodel.Subsystem{
		"a": {MethodsStatus: xrdmodel.StatusError, ServicesStatus: xrdmodel.StatusError},
		"b": {MethodsStatus: xrdmodel.StatusError, ServicesStatus: xrdmodel.StatusError},
	}
	assert.True(t, AllFailed(allErr))

	allTimedOut := map[string]xrdmodel.Subsystem{
		"a": {MethodsStatus: xrdmodel.StatusTimeout, ServicesStatus: xrdmodel.StatusOK},
		"b": {MethodsStatus: xrdmodel.StatusTimeout, ServicesStatus: xrdmodel.StatusOK},
	}
	assert.True(t, AllFailed(allTimedOut), "every subsystem timing out on methods is total failure even though ServicesStatus is OK")
}
