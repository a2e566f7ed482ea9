// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package buildstatus

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Checker for development and tests. Runs are
// registered with Start and finished with Finish.
type Memory struct {
	mu       sync.Mutex
	nextID   int64
	runs     map[int64]Status
	byCommit map[string]int64

	// AutoComplete reports every unknown commit as a successful run,
	// for setups with no build pipeline at all.
	AutoComplete bool
}

// NewMemory returns an empty checker.
func NewMemory() *Memory {
	return &Memory{
		runs:     make(map[int64]Status),
		byCommit: make(map[string]int64),
	}
}

// Start registers a queued run for sha and returns its id.
func (m *Memory) Start(sha string, at time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.runs[m.nextID] = Status{RunID: m.nextID, Status: StatusQueued, CreatedAt: at, Found: true}
	m.byCommit[sha] = m.nextID
	return m.nextID
}

// Finish completes the newest run for sha with conclusion.
func (m *Memory) Finish(sha, conclusion string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCommit[sha]
	if !ok {
		return
	}
	s := m.runs[id]
	s.Status = StatusCompleted
	s.Conclusion = conclusion
	m.runs[id] = s
}

// ForCommit implements Checker.
func (m *Memory) ForCommit(_ context.Context, sha string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byCommit[sha]; ok {
		return m.runs[id], nil
	}
	if m.AutoComplete {
		return Status{Status: StatusCompleted, Conclusion: ConclusionSuccess, Found: true}, nil
	}
	return Status{}, nil
}

// ForRun implements Checker.
func (m *Memory) ForRun(_ context.Context, runID int64) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runID], nil
}
