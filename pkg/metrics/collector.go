package metrics

import (
	"time"

	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

// Collector polls the stores and exports the current shape of the
// system as gauges. Counters are incremented at the call sites; the
// collector only owns state that has to be read, not counted.
type Collector struct {
	stores   *storage.Stores
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a collector over the given stores.
func NewCollector(stores *storage.Stores, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		stores:   stores,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting in the background.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectMode()
	c.collectTasks()
	c.collectEscalations()
}

func (c *Collector) collectMode() {
	var mode string
	err := c.stores.System.Get(&mode,
		`SELECT mode FROM system_mode ORDER BY id DESC LIMIT 1`)
	if err != nil {
		return
	}
	for _, m := range types.ValidModes {
		value := 0.0
		if string(m) == mode {
			value = 1.0
		}
		ModeInfo.WithLabelValues(string(m)).Set(value)
	}
}

func (c *Collector) collectTasks() {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	err := c.stores.Research.Select(&rows,
		`SELECT status, COUNT(*) AS count FROM tasks GROUP BY status`)
	if err != nil {
		return
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	for _, s := range types.TaskStatuses {
		TasksTotal.WithLabelValues(string(s)).Set(float64(counts[string(s)]))
	}
}

func (c *Collector) collectEscalations() {
	byState := []struct {
		State string `db:"state"`
		Count int    `db:"count"`
	}{}
	err := c.stores.Management.Select(&byState,
		`SELECT state, COUNT(*) AS count FROM escalations GROUP BY state`)
	if err != nil {
		return
	}

	states := map[string]int{}
	for _, r := range byState {
		states[r.State] = r.Count
	}
	for _, s := range []types.EscalationState{
		types.EscalationDetected, types.EscalationNotified, types.EscalationReminded,
		types.EscalationAcknowledged, types.EscalationResolved, types.EscalationExpired,
	} {
		EscalationsByState.WithLabelValues(string(s)).Set(float64(states[string(s)]))
	}

	byLevel := []struct {
		Level string `db:"level"`
		Count int    `db:"count"`
	}{}
	err = c.stores.Management.Select(&byLevel,
		`SELECT level, COUNT(*) AS count FROM escalations
		 WHERE state NOT IN ('RESOLVED', 'EXPIRED') GROUP BY level`)
	if err != nil {
		return
	}

	levels := map[string]int{}
	for _, r := range byLevel {
		levels[r.Level] = r.Count
	}
	for _, l := range types.Levels {
		ActiveEscalationsByLevel.WithLabelValues(string(l)).Set(float64(levels[string(l)]))
	}
}
