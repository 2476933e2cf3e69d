package simulation

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aquamon/aquamon-go/internal/alerting"
	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/datastore/repository"
	"github.com/aquamon/aquamon-go/internal/errors"
)

// mockDeviceRepo is an in-memory DeviceRepository.
type mockDeviceRepo struct {
	mu       sync.Mutex
	devices  []entities.Device
	lastSeen map[string]time.Time
}

func newMockDeviceRepo(devices ...entities.Device) *mockDeviceRepo {
	return &mockDeviceRepo{devices: devices, lastSeen: make(map[string]time.Time)}
}

func (r *mockDeviceRepo) ListActive(_ context.Context) ([]entities.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Device, 0, len(r.devices))
	for i := range r.devices {
		if r.devices[i].IsActive {
			out = append(out, r.devices[i])
		}
	}
	return out, nil
}

func (r *mockDeviceRepo) GetByDeviceID(_ context.Context, deviceID string) (*entities.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.devices {
		if r.devices[i].DeviceID == deviceID {
			d := r.devices[i]
			return &d, nil
		}
	}
	return nil, errors.NotFoundf("device %s not found", deviceID)
}

func (r *mockDeviceRepo) Create(_ context.Context, device *entities.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	device.ID = uint(len(r.devices) + 1)
	r.devices = append(r.devices, *device)
	return nil
}

func (r *mockDeviceRepo) List(_ context.Context) ([]entities.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Device, len(r.devices))
	copy(out, r.devices)
	return out, nil
}

func (r *mockDeviceRepo) TouchLastSeen(_ context.Context, deviceID string, seenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeen[deviceID] = seenAt
	return nil
}

// mockTelemetryRepo records appended samples and can fail on demand.
type mockTelemetryRepo struct {
	mu      sync.Mutex
	records []entities.Telemetry
	failFor map[string]error
}

func newMockTelemetryRepo() *mockTelemetryRepo {
	return &mockTelemetryRepo{failFor: make(map[string]error)}
}

func (r *mockTelemetryRepo) Append(_ context.Context, sample *entities.Telemetry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failFor[sample.DeviceID]; ok {
		return err
	}
	sample.ID = uint(len(r.records) + 1)
	r.records = append(r.records, *sample)
	return nil
}

func (r *mockTelemetryRepo) ListByDevice(_ context.Context, deviceID string, filter repository.TelemetryFilter) ([]entities.Telemetry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Telemetry, 0)
	for i := range r.records {
		if r.records[i].DeviceID == deviceID {
			out = append(out, r.records[i])
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockTelemetryRepo) LatestByDevice(_ context.Context, deviceID string) (*entities.Telemetry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].DeviceID == deviceID {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, errors.NotFoundf("no telemetry for device %s", deviceID)
}

func (r *mockTelemetryRepo) stored() []entities.Telemetry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Telemetry, len(r.records))
	copy(out, r.records)
	return out
}

func (r *mockTelemetryRepo) byDevice() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for i := range r.records {
		counts[r.records[i].DeviceID]++
	}
	return counts
}

// recordingEvaluator captures every evaluated sample.
type recordingEvaluator struct {
	mu      sync.Mutex
	samples []alerting.TelemetrySample
}

func (e *recordingEvaluator) Evaluate(_ context.Context, _ string, sample alerting.TelemetrySample) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = append(e.samples, sample)
	return nil
}

func (e *recordingEvaluator) evaluated() []alerting.TelemetrySample {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]alerting.TelemetrySample, len(e.samples))
	copy(out, e.samples)
	return out
}

// recordingPublisher captures every published sample.
type recordingPublisher struct {
	mu      sync.Mutex
	samples []alerting.TelemetrySample
}

func (p *recordingPublisher) Publish(_ context.Context, sample alerting.TelemetrySample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = append(p.samples, sample)
	return nil
}

func (p *recordingPublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.samples)
}

func testDevices() []entities.Device {
	return []entities.Device{
		{DeviceID: "pump-001", Type: entities.DeviceTypeWaterPump, IsActive: true},
		{DeviceID: "hvac-001", Type: entities.DeviceTypeHVAC, IsActive: true},
		{DeviceID: "leak-001", Type: entities.DeviceTypeLeakDetector, IsActive: true},
		{DeviceID: "pump-old", Type: entities.DeviceTypeWaterPump, IsActive: false},
	}
}

func newTestEngine(t *testing.T, devices *mockDeviceRepo, telemetry *mockTelemetryRepo, evaluator AlertEvaluator, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithDeviceDelay(0),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}
	return NewEngine(devices, telemetry, evaluator, testLogger(), append(base, opts...)...)
}

func TestStartRunsImmediateCycleForActiveDevices(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	evaluator := &recordingEvaluator{}
	engine := newTestEngine(t, devices, telemetry, evaluator)

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	defer engine.Stop()

	counts := telemetry.byDevice()
	assert.Equal(t, 1, counts["pump-001"])
	assert.Equal(t, 1, counts["hvac-001"])
	assert.Equal(t, 1, counts["leak-001"])
	assert.Zero(t, counts["pump-old"], "inactive devices are not simulated")

	// Every persisted sample also went through rule evaluation.
	assert.Len(t, evaluator.evaluated(), 3)

	status := engine.Status()
	assert.True(t, status.IsRunning)
	assert.ElementsMatch(t, []string{"pump-001", "hvac-001", "leak-001"}, status.ActiveDeviceIDs)
	assert.Len(t, status.DeviceStates, 3)
	assert.Equal(t, 5, status.Config.IntervalMinutes)
}

func TestStartWithExplicitDeviceList(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	engine := newTestEngine(t, devices, telemetry, &recordingEvaluator{})

	require.NoError(t, engine.Start(context.Background(), Config{
		DeviceIDs:       []string{"pump-001"},
		IntervalMinutes: 5,
	}))
	defer engine.Stop()

	counts := telemetry.byDevice()
	assert.Equal(t, 1, counts["pump-001"])
	assert.Zero(t, counts["hvac-001"])
}

func TestStartUnknownDeviceFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	engine := newTestEngine(t, devices, newMockTelemetryRepo(), &recordingEvaluator{})

	err := engine.Start(context.Background(), Config{DeviceIDs: []string{"ghost"}})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, engine.Status().IsRunning)
}

func TestStartValidatesChances(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	engine := newTestEngine(t, devices, newMockTelemetryRepo(), &recordingEvaluator{})

	err := engine.Start(context.Background(), Config{AnomalyChance: 1.5})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	err = engine.Start(context.Background(), Config{PowerOutageChance: -0.1})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestStartWhileRunningReplacesConfig(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	engine := newTestEngine(t, devices, telemetry, &recordingEvaluator{})

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	require.NoError(t, engine.Start(context.Background(), Config{
		DeviceIDs:       []string{"pump-001"},
		IntervalMinutes: 10,
	}))
	defer engine.Stop()

	status := engine.Status()
	assert.True(t, status.IsRunning)
	assert.Equal(t, []string{"pump-001"}, status.ActiveDeviceIDs)
	assert.Equal(t, 10, status.Config.IntervalMinutes)
}

func TestStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	engine := newTestEngine(t, devices, newMockTelemetryRepo(), &recordingEvaluator{})

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	engine.Stop()
	engine.Stop()
	assert.False(t, engine.Status().IsRunning)
}

func TestStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	engine := newTestEngine(t, devices, newMockTelemetryRepo(), &recordingEvaluator{})
	engine.Stop()
	assert.False(t, engine.Status().IsRunning)
}

func TestForceCycleWhileStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	engine := newTestEngine(t, devices, telemetry, &recordingEvaluator{})

	// Without a prior Start and without an override there is nothing to run.
	err := engine.ForceCycle(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	// An override carries its own device set.
	require.NoError(t, engine.ForceCycle(context.Background(), &Config{
		DeviceIDs:       []string{"leak-001"},
		IntervalMinutes: 5,
	}))
	assert.Equal(t, 1, telemetry.byDevice()["leak-001"])
	assert.False(t, engine.Status().IsRunning, "ForceCycle does not change the running state")
}

func TestForceCycleUsesCurrentConfig(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	engine := newTestEngine(t, devices, telemetry, &recordingEvaluator{})

	require.NoError(t, engine.Start(context.Background(), Config{
		DeviceIDs:       []string{"pump-001"},
		IntervalMinutes: 5,
	}))
	defer engine.Stop()

	require.NoError(t, engine.ForceCycle(context.Background(), nil))
	assert.Equal(t, 2, telemetry.byDevice()["pump-001"])
}

func TestTriggerScenarioPowerOutage(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	evaluator := &recordingEvaluator{}
	engine := newTestEngine(t, devices, telemetry, evaluator)

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	defer engine.Stop()
	before := telemetry.byDevice()["hvac-001"]

	require.NoError(t, engine.TriggerScenario(context.Background(), "hvac-001", ScenarioPowerOutage))

	records := telemetry.stored()
	last := records[len(records)-1]
	assert.Equal(t, "hvac-001", last.DeviceID)
	assert.Zero(t, last.Power)
	assert.Zero(t, last.Current)
	assert.True(t, last.PowerOutage)
	assert.Equal(t, entities.StatusOffline, last.Status)
	assert.Equal(t, before+1, telemetry.byDevice()["hvac-001"], "scenario ticks only the targeted device")

	// The scenario sample reaches rule evaluation so the outage rule can fire.
	evaluated := evaluator.evaluated()
	assert.Zero(t, evaluated[len(evaluated)-1].Power)
}

func TestTriggerScenarioHighTemp(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	engine := newTestEngine(t, devices, telemetry, &recordingEvaluator{})

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	defer engine.Stop()

	require.NoError(t, engine.TriggerScenario(context.Background(), "pump-001", ScenarioHighTemp))

	params, _ := ParamsFor(entities.DeviceTypeWaterPump)
	records := telemetry.stored()
	last := records[len(records)-1]
	assert.Equal(t, "pump-001", last.DeviceID)
	assert.InDelta(t, params.Temperature.Max+ScenarioTempExcess, last.Temperature, 1e-9)
	assert.Equal(t, entities.StatusWarning, last.Status)
}

func TestTriggerScenarioHighFlow(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	engine := newTestEngine(t, devices, telemetry, &recordingEvaluator{})

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	defer engine.Stop()

	require.NoError(t, engine.TriggerScenario(context.Background(), "leak-001", ScenarioHighFlow))

	params, _ := ParamsFor(entities.DeviceTypeLeakDetector)
	records := telemetry.stored()
	last := records[len(records)-1]
	assert.InDelta(t, params.Flow.Max+ScenarioFlowExcess, last.FlowRate, 1e-9)
	assert.Equal(t, entities.StatusWarning, last.Status)
}

func TestTriggerScenarioUnknownDevice(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	engine := newTestEngine(t, devices, newMockTelemetryRepo(), &recordingEvaluator{})

	err := engine.TriggerScenario(context.Background(), "ghost", ScenarioPowerOutage)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestTriggerScenarioUnknownScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	engine := newTestEngine(t, devices, newMockTelemetryRepo(), &recordingEvaluator{})

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	defer engine.Stop()

	err := engine.TriggerScenario(context.Background(), "pump-001", "meteor_strike")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestCyclePartialFailureContinues(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	telemetry.failFor["hvac-001"] = errors.Transientf(nil, "disk full")
	evaluator := &recordingEvaluator{}
	engine := newTestEngine(t, devices, telemetry, evaluator)

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	defer engine.Stop()

	counts := telemetry.byDevice()
	assert.Equal(t, 1, counts["pump-001"], "a failing device does not abort the cycle")
	assert.Equal(t, 1, counts["leak-001"])
	assert.Zero(t, counts["hvac-001"])
	assert.Len(t, evaluator.evaluated(), 2, "the failed device skips rule evaluation")
}

func TestCyclePublishesWhenPublisherConfigured(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	publisher := &recordingPublisher{}
	engine := newTestEngine(t, devices, newMockTelemetryRepo(), &recordingEvaluator{}, WithPublisher(publisher))

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	defer engine.Stop()
	assert.Equal(t, 3, publisher.published())
}

func TestCycleUpdatesLastSeen(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	engine := newTestEngine(t, devices, newMockTelemetryRepo(), &recordingEvaluator{})

	require.NoError(t, engine.Start(context.Background(), Config{
		DeviceIDs:       []string{"pump-001"},
		IntervalMinutes: 5,
	}))
	defer engine.Stop()

	devices.mu.Lock()
	_, touched := devices.lastSeen["pump-001"]
	devices.mu.Unlock()
	assert.True(t, touched)
}

func TestPersistedValuesRoundedToTwoDecimals(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	engine := newTestEngine(t, devices, telemetry, &recordingEvaluator{})

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))
	defer engine.Stop()

	for _, rec := range telemetry.stored() {
		assert.InDelta(t, rec.Temperature, round2(rec.Temperature), 1e-9)
		assert.InDelta(t, rec.CumulativePower, round2(rec.CumulativePower), 1e-9)
		assert.True(t, rec.Simulated)
	}
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 21.35, round2(21.3456), 1e-9)
	assert.InDelta(t, -3.13, round2(-3.125), 1e-9)
	assert.InDelta(t, 0, round2(0), 1e-9)
}

// gatedEvaluator passes the first cycle through, then blocks the second
// evaluation until released.
type gatedEvaluator struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (e *gatedEvaluator) Evaluate(_ context.Context, _ string, _ alerting.TelemetrySample) error {
	e.mu.Lock()
	e.calls++
	n := e.calls
	e.mu.Unlock()
	if n == 2 {
		e.entered <- struct{}{}
		<-e.release
	}
	return nil
}

func TestStopReturnsWhileScheduledCycleInFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(entities.Device{
		DeviceID: "pump-001", Type: entities.DeviceTypeWaterPump, IsActive: true,
	})
	telemetry := newMockTelemetryRepo()
	evaluator := &gatedEvaluator{entered: make(chan struct{}), release: make(chan struct{})}
	engine := newTestEngine(t, devices, telemetry, evaluator, WithTickInterval(10*time.Millisecond))

	require.NoError(t, engine.Start(context.Background(), Config{IntervalMinutes: 5}))

	select {
	case <-evaluator.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled cycle never started")
	}

	stopped := make(chan struct{})
	go func() {
		engine.Stop()
		close(stopped)
	}()

	// Let Stop reach its wait on the loop before releasing the cycle.
	time.Sleep(50 * time.Millisecond)
	close(evaluator.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the in-flight cycle completed")
	}
	assert.False(t, engine.Status().IsRunning)
}

func TestConcurrentForceCyclesStaySerialized(t *testing.T) {
	defer goleak.VerifyNone(t)

	devices := newMockDeviceRepo(testDevices()...)
	telemetry := newMockTelemetryRepo()
	evaluator := &recordingEvaluator{}
	engine := newTestEngine(t, devices, telemetry, evaluator)

	cfg := Config{DeviceIDs: []string{"pump-001", "hvac-001"}, IntervalMinutes: 5}
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				assert.NoError(t, engine.ForceCycle(context.Background(), &cfg))
			}
		}()
	}
	wg.Wait()

	// Re-seeding and generation share one critical section, so every
	// persisted value stays inside the nominal ranges.
	params, _ := ParamsFor(entities.DeviceTypeWaterPump)
	for _, rec := range telemetry.stored() {
		if rec.DeviceID != "pump-001" {
			continue
		}
		assert.GreaterOrEqual(t, rec.Temperature, params.Temperature.Min-0.01)
		assert.LessOrEqual(t, rec.Temperature, params.Temperature.Max+0.01)
		assert.GreaterOrEqual(t, rec.FlowRate, params.Flow.Min-0.01)
		assert.LessOrEqual(t, rec.FlowRate, params.Flow.Max+0.01)
	}
	assert.Len(t, evaluator.evaluated(), 100)
}
