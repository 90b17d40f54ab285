package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
)

// ServiceMonitor polls the configured services in the background and keeps
// the latest statuses in an atomically swapped snapshot, so reads never
// block on a poll in progress.
type ServiceMonitor struct {
	statusChecker *ServiceStatusChecker
	logger        *slog.Logger

	namesProvider func() []string
	snapshot      atomic.Pointer[map[string]ServiceStatus]

	runOnce sync.Once
	hasRun  atomic.Bool
}

// SetServiceNamesProvider wires the source of service names to watch. Must
// be called before Run.
func (m *ServiceMonitor) SetServiceNamesProvider(provider func() []string) {
	m.namesProvider = provider
}

func (m *ServiceMonitor) Run(ctx context.Context) {
	wasAlreadyRun := m.hasRun.Load()

	m.runOnce.Do(func() {
		m.hasRun.Store(true)

		m.logger.Info("Starting service monitor")

		if ctx.Err() != nil {
			return
		}

		m.refresh(ctx)

		ticker := time.NewTicker(config.GetEnv().ServicePollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.refresh(ctx)
			}
		}
	})

	if wasAlreadyRun {
		panic(fmt.Sprintf("%T.Run() called multiple times", m))
	}
}

// Snapshot returns the latest known statuses sorted by service name.
func (m *ServiceMonitor) Snapshot() []ServiceStatus {
	current := m.snapshot.Load()
	if current == nil {
		return nil
	}

	statuses := make([]ServiceStatus, 0, len(*current))
	for _, status := range *current {
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
	return statuses
}

func (m *ServiceMonitor) CurrentState(serviceName string) (ServiceState, bool) {
	current := m.snapshot.Load()
	if current == nil {
		return ServiceStateUnknown, false
	}

	status, ok := (*current)[serviceName]
	if !ok {
		return ServiceStateUnknown, false
	}
	return status.State, true
}

func (m *ServiceMonitor) refresh(ctx context.Context) {
	if m.namesProvider == nil {
		return
	}

	previous := m.snapshot.Load()
	next := make(map[string]ServiceStatus)

	for _, name := range m.namesProvider() {
		status := m.statusChecker.Check(ctx, name)
		next[name] = status

		if previous != nil {
			if before, ok := (*previous)[name]; ok && before.State != status.State {
				m.logger.Info(
					"Service state changed",
					"service", name,
					"from", before.State,
					"to", status.State,
				)
			}
		}
	}

	m.snapshot.Store(&next)
}
