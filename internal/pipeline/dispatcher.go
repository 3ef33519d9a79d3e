package pipeline

import (
	"ev-fleet/optimizer/internal/domain"
	"ev-fleet/optimizer/internal/metrics"
)

// Dispatcher fans one incoming snapshot out to the store, live-state and
// decision channels. Sends never block: a full channel drops the snapshot
// for that consumer and bumps the matching drop counter.
type Dispatcher struct {
	StoreChan    chan *domain.TelemetrySnapshot
	StateChan    chan *domain.TelemetrySnapshot
	DecisionChan chan *domain.TelemetrySnapshot
}

func NewDispatcher(storeSize, stateSize, decisionSize int) *Dispatcher {
	return &Dispatcher{
		StoreChan:    make(chan *domain.TelemetrySnapshot, storeSize),
		StateChan:    make(chan *domain.TelemetrySnapshot, stateSize),
		DecisionChan: make(chan *domain.TelemetrySnapshot, decisionSize),
	}
}

func (d *Dispatcher) Dispatch(snap *domain.TelemetrySnapshot) {
	select {
	case d.StoreChan <- snap:
	default:
		metrics.StoreChannelDrops.Add(1)
	}

	select {
	case d.StateChan <- snap:
	default:
		metrics.StateChannelDrops.Add(1)
	}

	select {
	case d.DecisionChan <- snap:
	default:
		metrics.DecisionChannelDrops.Add(1)
	}
}

// Close shuts the fan-out channels so workers can drain and exit.
func (d *Dispatcher) Close() {
	close(d.StoreChan)
	close(d.StateChan)
	close(d.DecisionChan)
}
