package mdio

import "github.com/prometheus/client_golang/prometheus"

// storeMetrics counts ingest-side work. The counters exist even without a
// registerer so call sites never need nil checks.
type storeMetrics struct {
	tracesIngested prometheus.Counter
	chunksFlushed  prometheus.Counter
	bytesWritten   prometheus.Counter
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	m := &storeMetrics{
		tracesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mdio",
			Name:      "traces_ingested_total",
			Help:      "Traces written into the store.",
		}),
		chunksFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mdio",
			Name:      "chunks_flushed_total",
			Help:      "Chunks persisted to the block substrate.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mdio",
			Name:      "chunk_bytes_written_total",
			Help:      "Raw chunk bytes written, before compression.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.tracesIngested, m.chunksFlushed, m.bytesWritten)
	}
	return m
}
