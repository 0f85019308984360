package mdio

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-mdio/internal/filter"
)

// Option configures store creation.
type Option func(*options)

type options struct {
	chunkShape []int
	filter     filter.Config
	workers    int
	logger     *zap.Logger
	registerer prometheus.Registerer
	prefix     []byte
	format     string
	endian     string
	id         string
}

func defaultOptions() options {
	return options{
		workers: runtime.GOMAXPROCS(0),
		logger:  zap.NewNop(),
		format:  "ieee32",
		endian:  "big",
	}
}

// WithChunkShape sets the chunk shape, one extent per grid dimension, sample
// axis last. Extents larger than the dimension are clipped. The default is
// a single chunk per dimension of 64 along index axes and 512 along the
// sample axis.
func WithChunkShape(shape []int) Option {
	return func(o *options) { o.chunkShape = append([]int(nil), shape...) }
}

// WithFilter sets the chunk compression pipeline.
func WithFilter(cfg filter.Config) Option {
	return func(o *options) { o.filter = cfg }
}

// WithWorkers bounds the flush and import worker pools. Defaults to
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithMetrics registers the store's ingest counters with the given
// registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithExchangePrefix stores the source file's textual and binary header
// prefix verbatim, so an export reproduces it byte for byte.
func WithExchangePrefix(prefix []byte) Option {
	return func(o *options) { o.prefix = append([]byte(nil), prefix...) }
}

// WithSourceFormat records the sample format and endianness of the source
// file. Exports default to writing this format back out.
func WithSourceFormat(format, endian string) Option {
	return func(o *options) { o.format, o.endian = format, endian }
}

// WithID fixes the store identifier instead of generating one.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

func defaultChunkShape(shape []int) []int {
	cs := make([]int, len(shape))
	for d := range cs {
		cs[d] = 64
	}
	cs[len(cs)-1] = 512
	return cs
}
