package match

import (
	"context"
	"errors"
	"flag"
	"runtime"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
	"golang.org/x/sync/errgroup"
)

// Config configures a [Filterer].
type Config struct {
	// Parallelism is the number of documents evaluated concurrently. Zero
	// means one per CPU.
	Parallelism int `yaml:"parallelism"`

	// BatchSize is the number of consecutive documents a single worker
	// evaluates before checking for cancellation.
	BatchSize int `yaml:"batch_size"`
}

// RegisterFlagsWithPrefix registers flags for the filterer.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.IntVar(&cfg.Parallelism, prefix+"parallelism", 0, "Number of documents evaluated concurrently against a compiled filter. 0 uses one worker per CPU.")
	f.IntVar(&cfg.BatchSize, prefix+"batch-size", 64, "Number of consecutive documents each worker evaluates at once.")
}

// Validate validates the Config.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Parallelism < 0 {
		errs = append(errs, errors.New("parallelism must not be negative"))
	}
	if cfg.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be greater than 0"))
	}
	return errors.Join(errs...)
}

// A Filterer evaluates a compiled [Stage] against candidate documents using a
// bounded pool of workers.
type Filterer struct {
	cfg    Config
	logger log.Logger

	// Metrics.
	documents *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewFilterer returns a [Filterer]. Metrics are registered with r when r is
// non-nil.
func NewFilterer(cfg Config, logger log.Logger, r prometheus.Registerer) *Filterer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	return &Filterer{
		cfg:    cfg,
		logger: logger,
		documents: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "mql_match_documents_total",
			Help: "Total number of documents evaluated against compiled filters, by result.",
		}, []string{"result"}),
		duration: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
			Name: "mql_match_filter_duration_seconds",
			Help: "Time taken to evaluate a compiled filter against a set of documents.",

			Buckets:                         prometheus.DefBuckets,
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}),
	}
}

// Filter returns the indexes of the documents in docs that match stage, in
// ascending order. Malformed documents never match. Filter stops early and
// returns the context error if ctx is canceled.
func (f *Filterer) Filter(ctx context.Context, stage *Stage, docs []bsoncore.Document) ([]int, error) {
	start := time.Now()
	matched := make([]bool, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Parallelism)

	for lo := 0; lo < len(docs); lo += f.cfg.BatchSize {
		if gctx.Err() != nil {
			break
		}
		hi := min(lo+f.cfg.BatchSize, len(docs))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				matched[i] = stage.TestBytes(docs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		level.Debug(f.logger).Log("msg", "filter canceled", "filter", stage, "documents", len(docs), "err", err)
		return nil, err
	}
	// The loop above stops scheduling work once the parent is canceled.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var res []int
	for i, ok := range matched {
		if ok {
			res = append(res, i)
		}
	}

	f.documents.WithLabelValues("matched").Add(float64(len(res)))
	f.documents.WithLabelValues("rejected").Add(float64(len(docs) - len(res)))
	f.duration.Observe(time.Since(start).Seconds())
	level.Debug(f.logger).Log("msg", "filtered documents", "filter", stage, "documents", len(docs), "matched", len(res), "duration", time.Since(start))
	return res, nil
}
