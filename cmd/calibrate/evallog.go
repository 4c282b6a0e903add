package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// formatDuration formats a duration as 1h02m03s, or 2m03s under an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// evalLog records every evaluation to CSV, tracks the best parameters and
// prints progress.
type evalLog struct {
	file     *os.File
	w        *csv.Writer
	params   *ParamVector
	maxEvals int
	start    time.Time

	count       int
	bestFitness float64
	bestParams  []float64
}

func newEvalLog(path string, params *ParamVector, maxEvals int) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	l := &evalLog{
		file:        f,
		w:           csv.NewWriter(f),
		params:      params,
		maxEvals:    maxEvals,
		start:       time.Now(),
		bestFitness: 1e9,
	}

	header := []string{"eval", "fitness", "compression"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing eval log header: %w", err)
	}
	return l, nil
}

// record logs one evaluation of the clamped raw values.
func (l *evalLog) record(values []float64, fitness, compression float64) {
	l.count++
	if fitness < l.bestFitness {
		l.bestFitness = fitness
		l.bestParams = values
	}

	row := []string{
		strconv.Itoa(l.count),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(compression, 'f', 6, 64),
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	l.w.Write(row)
	l.w.Flush()

	elapsed := time.Since(l.start)
	remaining := time.Duration(l.maxEvals-l.count) * (elapsed / time.Duration(l.count))
	fmt.Printf("Eval %d/%d: fitness=%.4f compression=%+.2f%% (best=%.4f) | elapsed: %s, ETA: %s\n",
		l.count, l.maxEvals, fitness, compression*100, l.bestFitness,
		formatDuration(elapsed), formatDuration(remaining))
}

func (l *evalLog) close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
