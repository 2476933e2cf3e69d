package simulation

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aquamon/aquamon-go/internal/alerting"
	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/datastore/repository"
	"github.com/aquamon/aquamon-go/internal/errors"
	"github.com/aquamon/aquamon-go/internal/logger"
	"github.com/aquamon/aquamon-go/internal/metrics"
)

// Scenario names for manual overrides.
const (
	ScenarioPowerOutage = "power_outage"
	ScenarioHighTemp    = "high_temp"
	ScenarioHighFlow    = "high_flow"
)

// collaboratorTimeout bounds each persistence or evaluation call within a
// cycle so one hung collaborator cannot stall the simulation indefinitely.
const collaboratorTimeout = 10 * time.Second

// Config controls one simulation run. An empty DeviceIDs list resolves to
// all devices flagged active.
type Config struct {
	DeviceIDs         []string `json:"device_ids"`
	IntervalMinutes   int      `json:"interval_minutes"`
	AnomalyChance     float64  `json:"anomaly_chance"`
	PowerOutageChance float64  `json:"power_outage_chance"`
}

// AlertEvaluator evaluates one sample against the configured alert rules.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, deviceID string, sample alerting.TelemetrySample) error
}

// SamplePublisher optionally forwards samples to an external sink (MQTT).
type SamplePublisher interface {
	Publish(ctx context.Context, sample alerting.TelemetrySample) error
}

// Status reports the engine's runtime state.
type Status struct {
	IsRunning       bool                   `json:"is_running"`
	ActiveDeviceIDs []string               `json:"active_device_ids"`
	DeviceStates    map[string]DeviceState `json:"device_states"`
	Config          Config                 `json:"config"`
}

// Engine owns the simulation lifecycle: it drives periodic ticks across the
// active device set, invoking the generator and then the rule engine for
// each device. One Engine is constructed per process.
type Engine struct {
	devices   repository.DeviceRepository
	telemetry repository.TelemetryRepository
	evaluator AlertEvaluator
	publisher SamplePublisher // optional
	states    *StateStore
	generator *Generator
	log       logger.Logger

	// deviceDelay throttles load on collaborators between devices in a cycle.
	deviceDelay time.Duration

	// tickInterval, when set, overrides the wall-clock period between
	// scheduled cycles. Config.IntervalMinutes still drives cumulative
	// power accounting.
	tickInterval time.Duration

	// mu guards the lifecycle fields below.
	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	loopDone    chan struct{}
	cfg         Config
	deviceTypes map[string]string

	// cycleMu serializes scheduled ticks, ForceCycle, and TriggerScenario.
	// Without it concurrent cycles could race on the same device's state.
	cycleMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher attaches an optional sample publisher.
func WithPublisher(p SamplePublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithDeviceDelay overrides the inter-device pause within a cycle.
func WithDeviceDelay(d time.Duration) Option {
	return func(e *Engine) { e.deviceDelay = d }
}

// WithTickInterval decouples the wall-clock cycle period from the accounting
// interval in Config.IntervalMinutes.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

// WithRand injects a deterministic random source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.generator = NewGenerator(e.states, rng, e.log)
	}
}

// NewEngine creates a simulation engine in the stopped state.
func NewEngine(
	devices repository.DeviceRepository,
	telemetry repository.TelemetryRepository,
	evaluator AlertEvaluator,
	log logger.Logger,
	opts ...Option,
) *Engine {
	states := NewStateStore()
	e := &Engine{
		devices:     devices,
		telemetry:   telemetry,
		evaluator:   evaluator,
		states:      states,
		log:         log,
		deviceDelay: 100 * time.Millisecond,
		deviceTypes: make(map[string]string),
	}
	e.generator = NewGenerator(states, newRand(), log)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newRand() *rand.Rand {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>32))
}

// Start transitions the engine to running: it resolves the device set,
// initializes device states, runs one full cycle immediately, and arms the
// periodic ticker. Calling Start while running replaces the previous ticker
// and config; timers never stack.
func (e *Engine) Start(ctx context.Context, cfg Config) error {
	resolved, types, err := e.resolveConfig(ctx, cfg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.running {
		e.stopLoopLocked()
	}
	e.cfg = resolved
	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	done := make(chan struct{})
	e.loopDone = done
	e.running = true
	e.mu.Unlock()

	e.log.Info("simulation started",
		logger.Int("devices", len(resolved.DeviceIDs)),
		logger.Int("interval_minutes", resolved.IntervalMinutes))

	// Immediate first cycle; the ticker covers subsequent ones. Seeding
	// shares the critical section so its rng draws stay serialized with
	// cycle generation.
	e.cycleMu.Lock()
	e.seedStates(resolved, types)
	e.runCycleLocked(resolved, types)
	e.cycleMu.Unlock()

	go e.loop(loopCtx, resolved, types, done)
	return nil
}

// Stop disarms future ticks. A cycle already in progress runs to completion.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.stopLoopLocked()
	e.running = false
	e.log.Info("simulation stopped")
}

// stopLoopLocked cancels the ticker loop and waits for it to exit.
// Callers must hold mu. This is safe against an in-flight cycle because
// cycles run on resolve-time snapshots and never touch mu.
func (e *Engine) stopLoopLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.loopDone != nil {
		<-e.loopDone
		e.loopDone = nil
	}
}

func (e *Engine) loop(ctx context.Context, cfg Config, types map[string]string, done chan struct{}) {
	defer close(done)
	period := time.Duration(cfg.IntervalMinutes) * time.Minute
	if e.tickInterval > 0 {
		period = e.tickInterval
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.runCycle(cfg, types)
		case <-ctx.Done():
			return
		}
	}
}

// ForceCycle runs one cycle immediately, independent of the timer, using the
// current configuration or the provided override. It does not change the
// running state.
func (e *Engine) ForceCycle(ctx context.Context, override *Config) error {
	if override != nil {
		resolved, types, err := e.resolveConfig(ctx, *override)
		if err != nil {
			return err
		}
		e.cycleMu.Lock()
		defer e.cycleMu.Unlock()
		e.seedStates(resolved, types)
		e.runCycleLocked(resolved, types)
		return nil
	}

	e.mu.Lock()
	cfg := e.cfg
	types := make(map[string]string, len(cfg.DeviceIDs))
	for _, id := range cfg.DeviceIDs {
		types[id] = e.deviceTypes[id]
	}
	e.mu.Unlock()
	if len(cfg.DeviceIDs) == 0 {
		return errors.Validationf("no active simulation config; start the simulation or provide one")
	}
	e.runCycle(cfg, types)
	return nil
}

// TriggerScenario overrides a device's state to force the named condition,
// then emits the overridden state verbatim, bypassing the random generation
// branches, so the override flows through persistence and rule evaluation
// unaltered.
func (e *Engine) TriggerScenario(ctx context.Context, deviceID, scenario string) error {
	if _, ok := e.states.Get(deviceID); !ok {
		return errors.NotFoundf("device %s is not in the active simulation set", deviceID)
	}

	deviceType, err := e.deviceType(ctx, deviceID)
	if err != nil {
		return err
	}
	params, _ := ParamsFor(deviceType)

	e.mu.Lock()
	interval := e.cfg.IntervalMinutes
	e.mu.Unlock()
	if interval == 0 {
		interval = 5
	}

	// The override and its emission stay inside one critical section so a
	// concurrent cycle can neither interleave with the state write nor
	// regenerate over it before it is persisted and evaluated.
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()
	state, ok := e.states.Get(deviceID)
	if !ok {
		return errors.NotFoundf("device %s is not in the active simulation set", deviceID)
	}
	switch scenario {
	case ScenarioPowerOutage:
		state.Power = 0
		state.Current = 0
		state.PowerOutage = true
	case ScenarioHighTemp:
		state.Temperature = params.Temperature.Max + ScenarioTempExcess
	case ScenarioHighFlow:
		state.FlowRate = params.Flow.Max + ScenarioFlowExcess
	default:
		return errors.Validationf("unknown scenario %q", scenario)
	}
	e.states.Set(deviceID, state)

	sample, err := e.generator.EmitCurrent(deviceID, deviceType, interval)
	if err != nil {
		return err
	}
	return e.dispatch(deviceID, sample, BranchScenario)
}

// Status returns the engine's runtime state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, len(e.cfg.DeviceIDs))
	copy(ids, e.cfg.DeviceIDs)
	return Status{
		IsRunning:       e.running,
		ActiveDeviceIDs: ids,
		DeviceStates:    e.states.Snapshot(),
		Config:          e.cfg,
	}
}

// resolveConfig fills defaults and expands an empty device list to all
// active devices. It returns the device-type snapshot the run will use, so
// cycles never have to consult shared state.
func (e *Engine) resolveConfig(ctx context.Context, cfg Config) (Config, map[string]string, error) {
	if cfg.IntervalMinutes <= 0 {
		cfg.IntervalMinutes = 5
	}
	if cfg.AnomalyChance < 0 || cfg.AnomalyChance > 1 {
		return Config{}, nil, errors.Validationf("anomaly chance must be in [0,1], got %g", cfg.AnomalyChance)
	}
	if cfg.PowerOutageChance < 0 || cfg.PowerOutageChance > 1 {
		return Config{}, nil, errors.Validationf("power outage chance must be in [0,1], got %g", cfg.PowerOutageChance)
	}

	types := make(map[string]string)
	if len(cfg.DeviceIDs) == 0 {
		devices, err := e.devices.ListActive(ctx)
		if err != nil {
			return Config{}, nil, errors.Transientf(err, "failed to resolve active devices")
		}
		for i := range devices {
			cfg.DeviceIDs = append(cfg.DeviceIDs, devices[i].DeviceID)
			types[devices[i].DeviceID] = devices[i].Type
		}
	} else {
		for _, id := range cfg.DeviceIDs {
			device, err := e.devices.GetByDeviceID(ctx, id)
			if err != nil {
				return Config{}, nil, err
			}
			types[id] = device.Type
		}
	}

	e.mu.Lock()
	for id, t := range types {
		e.deviceTypes[id] = t
	}
	e.mu.Unlock()

	return cfg, types, nil
}

// seedStates initializes per-device simulation state. Callers must hold
// cycleMu so the rng draws stay serialized with cycle generation.
func (e *Engine) seedStates(cfg Config, types map[string]string) {
	for _, id := range cfg.DeviceIDs {
		params, known := ParamsFor(types[id])
		if !known {
			e.log.Warn("unknown device type, initializing with default ranges",
				logger.String("device_id", id),
				logger.String("type", types[id]))
		}
		e.states.Initialize(id, params, e.generator.rng)
	}
}

func (e *Engine) deviceType(ctx context.Context, deviceID string) (string, error) {
	e.mu.Lock()
	t, ok := e.deviceTypes[deviceID]
	e.mu.Unlock()
	if ok {
		return t, nil
	}
	device, err := e.devices.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	e.deviceTypes[deviceID] = device.Type
	e.mu.Unlock()
	return device.Type, nil
}

func (e *Engine) runCycle(cfg Config, types map[string]string) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()
	e.runCycleLocked(cfg, types)
}

// runCycleLocked processes every device sequentially; the fixed inter-device
// delay throttles load on the telemetry and alert stores. One device's
// failure is logged and does not abort the rest. The device-type map is the
// resolve-time snapshot; a cycle must never take mu, or Stop waiting on the
// loop while holding mu would deadlock. Callers must hold cycleMu.
func (e *Engine) runCycleLocked(cfg Config, types map[string]string) {
	start := time.Now()
	genCfg := GeneratorConfig{
		IntervalMinutes:   cfg.IntervalMinutes,
		AnomalyChance:     cfg.AnomalyChance,
		PowerOutageChance: cfg.PowerOutageChance,
	}

	for _, deviceID := range cfg.DeviceIDs {
		if err := e.runDevice(deviceID, types[deviceID], genCfg); err != nil {
			metrics.DeviceCycleErrors.Inc()
			e.log.Error("device simulation failed",
				logger.String("device_id", deviceID),
				logger.Error(err))
		}
		time.Sleep(e.deviceDelay)
	}

	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	e.log.Debug("simulation cycle completed",
		logger.Int("devices", len(cfg.DeviceIDs)),
		logger.Duration("elapsed", time.Since(start)))
}

// runDevice generates one sample for a device, persists it, and feeds it to
// the rule engine. Callers must hold cycleMu.
func (e *Engine) runDevice(deviceID, deviceType string, cfg GeneratorConfig) error {
	sample, branch, err := e.generator.NextSample(deviceID, deviceType, cfg)
	if err != nil {
		return err
	}
	return e.dispatch(deviceID, sample, branch)
}

// dispatch persists a sample, updates last-seen, publishes, and runs rule
// evaluation. Callers must hold cycleMu.
func (e *Engine) dispatch(deviceID string, sample alerting.TelemetrySample, branch Branch) error {
	metrics.SamplesGenerated.WithLabelValues(string(branch)).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
	defer cancel()

	record := &entities.Telemetry{
		DeviceID:        sample.DeviceID,
		Timestamp:       sample.Timestamp,
		Temperature:     round2(sample.Temperature),
		Humidity:        round2(sample.Humidity),
		FlowRate:        round2(sample.FlowRate),
		Current:         round2(sample.Current),
		Power:           round2(sample.Power),
		CumulativePower: round2(sample.CumulativePower),
		Status:          sample.Status,
		Simulated:       true,
		Anomaly:         sample.Anomaly,
		PowerOutage:     sample.PowerOutage,
	}
	if err := e.telemetry.Append(ctx, record); err != nil {
		return errors.Transientf(err, "failed to persist sample for %s", deviceID)
	}

	if err := e.devices.TouchLastSeen(ctx, deviceID, sample.Timestamp); err != nil {
		// Last-seen is advisory; a miss must not skip rule evaluation.
		e.log.Debug("failed to update last seen",
			logger.String("device_id", deviceID),
			logger.Error(err))
	}

	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, sample); err != nil {
			e.log.Warn("failed to publish sample",
				logger.String("device_id", deviceID),
				logger.Error(err))
		}
	}

	if err := e.evaluator.Evaluate(ctx, deviceID, sample); err != nil {
		return errors.Transientf(err, "rule evaluation failed for %s", deviceID)
	}
	return nil
}

// round2 trims stored values to two decimals, matching the precision devices
// would report.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
