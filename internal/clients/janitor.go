package clients

import (
	"log"
	"time"
)

const (
	DefaultIdleTimeout   = 24 * time.Hour
	DefaultSweepInterval = 15 * time.Minute
)

// Janitor periodically evicts idle visitors from the registry. OnEvict runs
// for each evicted id so other per-visitor caches can follow.
type Janitor struct {
	registry *Registry
	idle     time.Duration
	interval time.Duration
	onEvict  func(clientID string)
	stopChan chan struct{}
}

func NewJanitor(registry *Registry, idle, interval time.Duration, onEvict func(clientID string)) *Janitor {
	return &Janitor{
		registry: registry,
		idle:     idle,
		interval: interval,
		onEvict:  onEvict,
		stopChan: make(chan struct{}),
	}
}

func (j *Janitor) Start() {
	go j.loop()
	log.Printf("[clients] janitor started (idle %s, every %s)", j.idle, j.interval)
}

func (j *Janitor) Stop() {
	select {
	case <-j.stopChan:
		return
	default:
		close(j.stopChan)
	}
}

func (j *Janitor) loop() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.RunOnce()
		}
	}
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce() int {
	evicted := j.registry.Sweep(j.idle)
	for _, id := range evicted {
		if j.onEvict != nil {
			j.onEvict(id)
		}
	}
	if len(evicted) > 0 {
		log.Printf("[clients] evicted %d idle visitors", len(evicted))
	}
	return len(evicted)
}
