package engine

import (
	"context"
	"runtime"
	"sync"

	"github.com/knoxsec/knox/internal/matcher"
	"github.com/knoxsec/knox/internal/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MaxWorkers caps the worker pool regardless of configuration.
const MaxWorkers = 256

type dispatchStats struct {
	scanned int
	failed  int
}

func workerCount(threads int) int {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads > MaxWorkers {
		threads = MaxWorkers
	}
	return threads
}

// scanSequential scans files in order with a single scanner.
func scanSequential(ctx context.Context, s *Scanner, files []string, progress func(done, total int)) ([]types.ScanResult, dispatchStats, error) {
	var (
		out   = make([]types.ScanResult, 0, len(files))
		stats dispatchStats
	)
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		res, err := s.ScanFile(f)
		if err != nil {
			stats.failed++
			logrus.WithFields(logrus.Fields{"file": f, "err": err}).Debug("skipping file")
		} else {
			stats.scanned++
			out = append(out, res)
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}
	return out, stats, nil
}

// scanParallel fans files out over a bounded pool; at most workerCount
// goroutines exist at once. Every task gets its own scanner around the
// shared read-only set. Results arrive in completion order.
func scanParallel(ctx context.Context, s *Scanner, set *matcher.Set, files []string, threads int, progress func(done, total int)) ([]types.ScanResult, dispatchStats, error) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(threads))

	var (
		mu    sync.Mutex
		out   = make([]types.ScanResult, 0, len(files))
		stats dispatchStats
		done  int
	)

	for _, f := range files {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			res, err := s.forTask(set).ScanFile(f)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.failed++
				logrus.WithFields(logrus.Fields{"file": f, "err": err}).Debug("skipping file")
			} else {
				stats.scanned++
				out = append(out, res)
			}
			done++
			if progress != nil {
				progress(done, len(files))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}
