package dummy

import (
	"sort"
	"sync"
	"time"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/clients/predator"
)

// Ledger accumulates per model inference statistics
type Ledger struct {
	mu     sync.Mutex
	models map[string]*predator.ModelStatistics
}

func NewLedger(models []string) *Ledger {
	l := &Ledger{models: make(map[string]*predator.ModelStatistics, len(models))}
	for _, name := range models {
		l.models[name] = &predator.ModelStatistics{Name: name, Version: defaultModelVersion}
	}
	return l
}

func (l *Ledger) Has(model string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.models[model]
	return ok
}

func (l *Ledger) RecordSuccess(model string, batchSize uint64, queue, computeInput, computeInfer, computeOutput time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stats, ok := l.models[model]
	if !ok {
		return
	}
	total := queue + computeInput + computeInfer + computeOutput
	stats.InferenceCount += batchSize
	stats.ExecutionCount++
	stats.LastInference = uint64(time.Now().UnixMilli())
	addDuration(&stats.InferenceStats.Success, total)
	addDuration(&stats.InferenceStats.Queue, queue)
	addDuration(&stats.InferenceStats.ComputeInput, computeInput)
	addDuration(&stats.InferenceStats.ComputeInfer, computeInfer)
	addDuration(&stats.InferenceStats.ComputeOutput, computeOutput)

	for i := range stats.BatchStats {
		if stats.BatchStats[i].BatchSize == batchSize {
			addDuration(&stats.BatchStats[i].ComputeInput, computeInput)
			addDuration(&stats.BatchStats[i].ComputeInfer, computeInfer)
			addDuration(&stats.BatchStats[i].ComputeOutput, computeOutput)
			return
		}
	}
	batch := predator.InferBatchStatistics{BatchSize: batchSize}
	addDuration(&batch.ComputeInput, computeInput)
	addDuration(&batch.ComputeInfer, computeInfer)
	addDuration(&batch.ComputeOutput, computeOutput)
	stats.BatchStats = append(stats.BatchStats, batch)
}

func (l *Ledger) RecordFailure(model string, elapsed time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if stats, ok := l.models[model]; ok {
		addDuration(&stats.InferenceStats.Fail, elapsed)
	}
}

// Snapshot copies the statistics of model, or of every model when model is empty
func (l *Ledger) Snapshot(model string) []predator.ModelStatistics {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]predator.ModelStatistics, 0, len(l.models))
	for name, stats := range l.models {
		if len(model) > 0 && name != model {
			continue
		}
		record := *stats
		record.BatchStats = append([]predator.InferBatchStatistics{}, stats.BatchStats...)
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func addDuration(d *predator.StatDuration, elapsed time.Duration) {
	d.Count++
	d.Ns += uint64(elapsed.Nanoseconds())
}
