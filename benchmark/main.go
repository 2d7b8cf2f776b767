// Package main times the hotspot CLI on a set of local repositories.
//
// Every repository is analyzed with both history backends, first with the
// cache disabled and then with a SQLite cache, whose first run is cold and
// the rest warm. Results go to a timestamped CSV under the temp dir and a
// summary table on stdout.
//
// Usage: go run ./benchmark [repo-base-dir] [repo...]
//
//	repo-base-dir: Directory containing the cloned repositories
//	repo:          Repository directory names (default: csv-parser fd git kubernetes)
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// completionPhrase is printed by the table output once an analysis finishes.
const completionPhrase = "Analysis completed in"

// benchmarkResult holds the timings of one repository and backend.
type benchmarkResult struct {
	Repository string
	Backend    string
	NoCache    time.Duration
	Cold       time.Duration
	Warm       time.Duration
}

// benchmarkConfig holds configuration for the benchmark run.
type benchmarkConfig struct {
	RepoBase    string
	Repos       []string
	Backends    []string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s [repo-base-dir] [repo...]\n", os.Args[0])
		os.Exit(1)
	}

	config := benchmarkConfig{
		RepoBase:    os.Args[1],
		Repos:       []string{"csv-parser", "fd", "git", "kubernetes"},
		Backends:    []string{"libgit2", "cli"},
		Timeout:     5 * time.Minute,
		Workers:     14,
		NoCacheRuns: 3,
		CacheRuns:   4,
	}
	if len(os.Args) > 2 {
		config.Repos = os.Args[2:]
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}
	printSummary(results)
}

// checkPrerequisites verifies that hotspot binary and test repositories exist
func checkPrerequisites(config benchmarkConfig) error {
	if _, err := exec.LookPath("hotspot"); err != nil {
		return errors.New("hotspot binary not found in PATH")
	}
	for _, repo := range config.Repos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}
	return nil
}

func runBenchmarks(config benchmarkConfig) []benchmarkResult {
	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Repos), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	var results []benchmarkResult
	for _, repo := range config.Repos {
		repoPath := filepath.Join(config.RepoBase, repo)
		for _, backend := range config.Backends {
			fmt.Printf("Benchmarking %s (%s)\n", repo, backend)
			results = append(results, runSuite(config, repo, repoPath, backend))
		}
	}
	return results
}

// runSuite clears the cache, then times the uncached and cached phases.
func runSuite(config benchmarkConfig, repo, repoPath, backend string) benchmarkResult {
	if out, err := exec.Command("hotspot", "cache", "clear").CombinedOutput(); err != nil {
		fmt.Printf("  Warning: failed to clear cache: %v\n  Output: %s\n", err, out)
	}

	result := benchmarkResult{Repository: repo, Backend: backend}

	noCache := runTimes(config, repoPath, backend, "none", config.NoCacheRuns)
	result.NoCache = average(noCache)

	cached := runTimes(config, repoPath, backend, "sqlite", config.CacheRuns)
	if len(cached) > 0 {
		result.Cold = cached[0]
		result.Warm = average(cached[1:])
	}

	fmt.Printf("  No-cache: %s, Cold: %s, Warm: %s\n",
		formatDuration(result.NoCache), formatDuration(result.Cold), formatDuration(result.Warm))
	return result
}

// runTimes runs hotspot files numRuns times and returns the durations of the
// runs that finished in time and printed the completion footer.
func runTimes(config benchmarkConfig, repoPath, backend, cacheBackend string, numRuns int) []time.Duration {
	args := []string{
		"files",
		"--git-backend", backend,
		"--cache-backend", cacheBackend,
		"--workers", fmt.Sprint(config.Workers),
		"--color", "no",
	}

	var times []time.Duration
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		cmd := exec.CommandContext(ctx, "hotspot", args...)
		cmd.Dir = repoPath

		start := time.Now()
		output, err := cmd.CombinedOutput()
		elapsed := time.Since(start)
		cancel()

		if err == nil && strings.Contains(string(output), completionPhrase) {
			times = append(times, elapsed)
		}
	}
	return times
}

func average(times []time.Duration) time.Duration {
	if len(times) == 0 {
		return 0
	}
	var sum time.Duration
	for _, t := range times {
		sum += t
	}
	return sum / time.Duration(len(times))
}

// formatDuration renders zero as TIMEOUT since no run succeeded.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "TIMEOUT"
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []benchmarkResult) error {
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("hotspot_benchmark_%s.csv", time.Now().Format("20060102_150405")))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"repo", "backend", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		row := []string{r.Repository, r.Backend, formatDuration(r.NoCache), formatDuration(r.Cold), formatDuration(r.Warm)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

func printSummary(results []benchmarkResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Repository", "Backend", "No-cache", "Cold", "Warm"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Repository, r.Backend, formatDuration(r.NoCache), formatDuration(r.Cold), formatDuration(r.Warm)})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
