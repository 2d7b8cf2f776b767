// Package size computes the size signal of files in the working tree.
package size

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// ErrSkip marks a file that exists but carries no size signal, such as a
// directory or a binary blob.
var ErrSkip = errors.New("file has no size signal")

// Estimate runs oracle over every repo-relative path under root and returns
// the sizes keyed by the relative path. Files the oracle cannot measure are
// left out of the map. At most workers files are measured at once.
func Estimate(ctx context.Context, root string, rel []string, oracle contract.SizeOracle, workers int) (schema.SizeMap, error) {
	sizes := make(schema.SizeMap, len(rel))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, path := range rel {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := oracle.Size(filepath.Join(root, filepath.FromSlash(path)))
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrSkip) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("measure %s: %w", path, err)
			}

			mu.Lock()
			sizes[path] = v
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The loop may have stopped early without any job failing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sizes, nil
}

// statRegular returns ErrSkip for anything that is not a regular file.
func statRegular(absPath string) error {
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", absPath, ErrSkip)
	}
	return nil
}
