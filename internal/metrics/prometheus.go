// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges the core tick loop
// and its collaborators update as they run.
type Metrics struct {
	SlotUnavailableTotal    prometheus.Counter
	ChecksumMismatchTotal   prometheus.Counter
	TTLExpiredRelayTotal    prometheus.Counter
	BufferFullTotal         *prometheus.CounterVec
	ReservationTimeoutTotal prometheus.Counter
	NCSlotConflictTotal     prometheus.Counter
	TopologyUpdatesEmitted  prometheus.Counter

	QueueDepth     *prometheus.GaugeVec
	CurrentSlot    prometheus.Gauge
	Synchronized   prometheus.Gauge
	ActiveVoiceFSM prometheus.Gauge
}

// NewMetrics allocates and registers all RRC metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		SlotUnavailableTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rrc_slot_unavailable_total",
			Help: "Transmit attempts rejected by L2 SlotCheck or link usability",
		}),
		ChecksumMismatchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rrc_checksum_mismatch_total",
			Help: "Frames dropped on checksum verification failure",
		}),
		TTLExpiredRelayTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rrc_ttl_expired_relay_total",
			Help: "Relay frames dropped after TTL reached zero",
		}),
		BufferFullTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rrc_buffer_full_total",
			Help: "Admissions rejected because the destination queue was full",
		}, []string{"queue_class"}),
		ReservationTimeoutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rrc_reservation_timeout_total",
			Help: "Voice reservations abandoned waiting for a CC",
		}),
		NCSlotConflictTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rrc_nc_slot_conflict_total",
			Help: "NC slot assignment attempts that found the super-cycle full",
		}),
		TopologyUpdatesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rrc_topology_updates_emitted_total",
			Help: "Topology updates pushed to L3 by the link-quality tracker",
		}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rrc_queue_depth",
			Help: "Current occupancy of each RRC queue",
		}, []string{"queue"}),
		CurrentSlot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rrc_current_slot_index",
			Help: "Slot index (0-9) of the current superframe tick",
		}),
		Synchronized: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rrc_synchronized",
			Help: "1 if the node's timesync state is synchronized to the superframe, else 0",
		}),
		ActiveVoiceFSM: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rrc_voice_fsm_state",
			Help: "Current voice reservation FSM state, as its ordinal value",
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(
		m.SlotUnavailableTotal,
		m.ChecksumMismatchTotal,
		m.TTLExpiredRelayTotal,
		m.BufferFullTotal,
		m.ReservationTimeoutTotal,
		m.NCSlotConflictTotal,
		m.TopologyUpdatesEmitted,
		m.QueueDepth,
		m.CurrentSlot,
		m.Synchronized,
		m.ActiveVoiceFSM,
	)
}

// SetQueueDepths updates the per-queue depth gauge from a name->depth map.
func (m *Metrics) SetQueueDepths(depths map[string]int) {
	for name, depth := range depths {
		m.QueueDepth.WithLabelValues(name).Set(float64(depth))
	}
}

// IncSlotUnavailable counts an L2 SlotCheck or link-usability rejection.
func (m *Metrics) IncSlotUnavailable() { m.SlotUnavailableTotal.Inc() }

// IncChecksumMismatch counts a frame dropped on checksum verification.
func (m *Metrics) IncChecksumMismatch() { m.ChecksumMismatchTotal.Inc() }

// IncTTLExpiredRelay counts a relay frame dropped after TTL hit zero.
func (m *Metrics) IncTTLExpiredRelay() { m.TTLExpiredRelayTotal.Inc() }

// IncBufferFull counts an admission rejected for a full destination queue.
func (m *Metrics) IncBufferFull(class string) { m.BufferFullTotal.WithLabelValues(class).Inc() }

// IncReservationTimeout counts a voice reservation abandoned waiting for a CC.
func (m *Metrics) IncReservationTimeout() { m.ReservationTimeoutTotal.Inc() }

// IncNCSlotConflict counts an NC slot assignment attempt that found the
// super-cycle full.
func (m *Metrics) IncNCSlotConflict() { m.NCSlotConflictTotal.Inc() }

// IncTopologyUpdatesEmitted counts a topology update pushed to L3.
func (m *Metrics) IncTopologyUpdatesEmitted() { m.TopologyUpdatesEmitted.Inc() }

// SetCurrentSlot records the slot index of the current superframe tick.
func (m *Metrics) SetCurrentSlot(slot int) { m.CurrentSlot.Set(float64(slot)) }

// SetSynchronized records whether the node's timesync state is
// synchronized to the superframe.
func (m *Metrics) SetSynchronized(synced bool) {
	if synced {
		m.Synchronized.Set(1)
		return
	}
	m.Synchronized.Set(0)
}

// SetVoiceFSMState records the current voice reservation FSM state as
// its ordinal value.
func (m *Metrics) SetVoiceFSMState(state int) { m.ActiveVoiceFSM.Set(float64(state)) }
