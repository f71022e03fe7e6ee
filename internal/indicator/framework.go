package indicator

import (
	"sync"

	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/sessionstate"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
	"go.uber.org/zap"
)

// Framework is the incremental evaluator layer described in spec §4.8: it
// keeps per-(symbol, interval, key) previous-result state, recomputes
// configured indicators on every bar arrival notification, and publishes
// the result into SessionState. The calculators themselves stay pure
// (Registry); Framework is the only stateful piece.
type Framework struct {
	registry Registry
	state    *sessionstate.State
	log      *logger.Logger

	mu      sync.Mutex
	configs map[string][]types.IndicatorConfig // "symbol|interval" -> configs
	prev    map[string]*Result                 // "symbol|interval|key" -> last result
}

// NewFramework builds a Framework bound to registry and state.
func NewFramework(registry Registry, state *sessionstate.State, log *logger.Logger) *Framework {
	return &Framework{
		registry: registry,
		state:    state,
		log:      log,
		configs:  make(map[string][]types.IndicatorConfig),
		prev:     make(map[string]*Result),
	}
}

// Configure registers the set of indicators to maintain for (symbol,
// interval). Calling it again replaces the prior set for that key.
func (f *Framework) Configure(symbol string, interval types.Interval, configs []types.IndicatorConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.configs[symbol+"|"+string(interval)] = configs
}

// OnBar recomputes every configured indicator for (symbol, interval) using
// the bars currently held in SessionState, and publishes the results.
// Called by the pipeline on every bar-arrival notification, per spec §4.8
// "Integration".
func (f *Framework) OnBar(symbol string, interval types.Interval) error {
	f.mu.Lock()
	configs := append([]types.IndicatorConfig(nil), f.configs[symbol+"|"+string(interval)]...)
	f.mu.Unlock()

	for _, cfg := range configs {
		if err := f.evaluate(symbol, interval, cfg, false); err != nil {
			return err
		}
	}

	return nil
}

// evaluate computes one indicator config against the bars currently on
// file (current-session bars, or historical bars for historical-kind
// indicators) and publishes the result.
func (f *Framework) evaluate(symbol string, interval types.Interval, cfg types.IndicatorConfig, historical bool) error {
	calc, err := f.registry.GetIndicator(cfg.Name)
	if err != nil {
		return err
	}

	var bars []types.Bar
	if historical {
		bars = f.state.GetAllBarsIncludingHistorical(symbol, interval, true)
	} else {
		bars = f.state.GetBars(symbol, interval, nil, nil, true)
	}

	warmup := cfg.WarmupBars()
	key := cfg.Key()
	stateKey := symbol + "|" + string(interval) + "|" + key

	if len(bars) < warmup {
		result := Result{Valid: false}
		f.storePrev(stateKey, &result)

		return f.publish(symbol, key, result, bars)
	}

	f.mu.Lock()
	previous := f.prev[stateKey]
	f.mu.Unlock()

	result, err := calc.Calculate(bars, cfg, previous)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeDataUnavailableIndicator, err, "computing %s for %s/%s", cfg.Name, symbol, interval)
	}

	f.storePrev(stateKey, &result)

	return f.publish(symbol, key, result, bars)
}

// EvaluateHistorical computes cfg against symbol's full historical+current
// bar sequence for interval, used by SessionCoordinator Phase 2's
// historical-indicator pass. It does not consult or update the live
// previous-result cache, so the live stream's warm-up isn't disturbed by a
// one-off historical recompute.
func (f *Framework) EvaluateHistorical(symbol string, interval types.Interval, cfg types.IndicatorConfig) (Result, error) {
	calc, err := f.registry.GetIndicator(cfg.Name)
	if err != nil {
		return Result{}, err
	}

	bars := f.state.GetAllBarsIncludingHistorical(symbol, interval, true)

	if len(bars) < cfg.WarmupBars() {
		return Result{Valid: false}, nil
	}

	result, err := calc.Calculate(bars, cfg, nil)
	if err != nil {
		return Result{}, apperrors.Wrapf(apperrors.ErrCodeDataUnavailableIndicator, err, "computing historical %s for %s/%s", cfg.Name, symbol, interval)
	}

	return result, nil
}

func (f *Framework) storePrev(stateKey string, result *Result) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prev[stateKey] = result
}

func (f *Framework) publish(symbol, key string, result Result, bars []types.Bar) error {
	data := types.IndicatorData{Valid: result.Valid}

	if result.Valid {
		if result.Values != nil {
			data.CurrentValue = result.Values
		} else {
			data.CurrentValue = result.Value
		}

		if len(bars) > 0 {
			data.LastUpdated = bars[len(bars)-1].Timestamp
		}
	}

	if err := f.state.AddIndicator(symbol, key, data); err != nil {
		if f.log != nil {
			f.log.Warn("failed to publish indicator", zap.String("symbol", symbol), zap.String("key", key), zap.Error(err))
		}

		return err
	}

	return nil
}
