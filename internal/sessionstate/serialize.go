package sessionstate

import (
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

// SymbolExport is one symbol's serialized working set.
type SymbolExport struct {
	Symbol       string                    `json:"symbol"`
	BaseInterval string                    `json:"base_interval"`
	Bars         map[string][]types.Bar    `json:"bars"`
	Metrics      types.SessionMetrics      `json:"metrics"`
	Indicators   map[string]types.IndicatorData `json:"indicators"`
}

// Document is the top-level shape ToJSON returns.
type Document struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Complete    bool                    `json:"complete"`
	Symbols     map[string]SymbolExport `json:"symbols"`
}

// ToJSON serializes the current session's working set. When complete is
// true, every bar currently held is included (a "full export"). When
// false, only bars appended since the previous export are included per
// symbol/interval (a "delta export"), tracked via lastExportedIdx. Returns
// the document and the previous export's timestamp (zero on the first
// call), per spec §4.4.
func (s *State) ToJSON(complete bool, now time.Time) (Document, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.lastExportTime
	doc := Document{GeneratedAt: now, Complete: complete, Symbols: make(map[string]SymbolExport, len(s.symbols))}

	for symbol, data := range s.symbols {
		exportedIdx := s.lastExportedIdx[symbol]
		if exportedIdx == nil {
			exportedIdx = make(map[string]int)
			s.lastExportedIdx[symbol] = exportedIdx
		}

		bars := make(map[string][]types.Bar, len(data.Bars))

		for interval, bucket := range data.Bars {
			if complete {
				cp := make([]types.Bar, len(bucket.Data))
				copy(cp, bucket.Data)
				bars[interval] = cp

				continue
			}

			start := exportedIdx[interval]
			if start > len(bucket.Data) {
				start = len(bucket.Data)
			}

			delta := make([]types.Bar, len(bucket.Data[start:]))
			copy(delta, bucket.Data[start:])
			bars[interval] = delta
			exportedIdx[interval] = len(bucket.Data)
		}

		indicators := make(map[string]types.IndicatorData, len(data.Indicators))
		for k, v := range data.Indicators {
			indicators[k] = v
		}

		doc.Symbols[symbol] = SymbolExport{
			Symbol:       symbol,
			BaseInterval: data.BaseInterval,
			Bars:         bars,
			Metrics:      data.Metrics,
			Indicators:   indicators,
		}
	}

	s.lastExportTime = now

	return doc, prev
}
