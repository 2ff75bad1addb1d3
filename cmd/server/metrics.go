package main

import "sync"

type serverMetrics struct {
	mu            sync.RWMutex
	totalRequests int64
	activeReqs    int64
	renders       int64
	rejected      int64
	failures      map[string]int64
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{failures: make(map[string]int64)}
}

func (m *serverMetrics) incActive() {
	m.mu.Lock()
	m.activeReqs++
	m.totalRequests++
	m.mu.Unlock()
}

func (m *serverMetrics) decActive() {
	m.mu.Lock()
	m.activeReqs--
	m.mu.Unlock()
}

func (m *serverMetrics) rendered() {
	m.mu.Lock()
	m.renders++
	m.mu.Unlock()
}

func (m *serverMetrics) reject() {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}

func (m *serverMetrics) failed(code string) {
	m.mu.Lock()
	m.failures[code]++
	m.mu.Unlock()
}

type metricsSnapshot struct {
	Total    int64            `json:"totalRequests"`
	Active   int64            `json:"activeRequests"`
	Renders  int64            `json:"renders"`
	Rejected int64            `json:"rejectedAtCapacity"`
	Failures map[string]int64 `json:"failures"`
}

func (m *serverMetrics) snapshot() metricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	failures := make(map[string]int64, len(m.failures))
	for k, v := range m.failures {
		failures[k] = v
	}
	return metricsSnapshot{
		Total:    m.totalRequests,
		Active:   m.activeReqs,
		Renders:  m.renders,
		Rejected: m.rejected,
		Failures: failures,
	}
}
