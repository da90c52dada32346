package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// MemoryStore keeps everything in process. Used for tests and the memory driver.
type MemoryStore struct {
	mu       sync.RWMutex
	readings map[string][]models.SensorReading // per equipment, ascending time
	alerts   map[string]models.Alert
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		readings: make(map[string][]models.SensorReading),
		alerts:   make(map[string]models.Alert),
	}
}

func (s *MemoryStore) GetReadings(_ context.Context, equipmentID string, since time.Time, limit int) ([]models.SensorReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.readings[equipmentID]
	first := sort.Search(len(series), func(i int) bool {
		return !series[i].Timestamp.Before(since)
	})

	end := min(len(series), first+readingLimit(limit))
	result := make([]models.SensorReading, end-first)
	copy(result, series[first:end])
	return result, nil
}

func (s *MemoryStore) GetLatest(_ context.Context, equipmentID string) (models.SensorReading, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.readings[equipmentID]
	if len(series) == 0 {
		return models.SensorReading{}, false, nil
	}
	return series[len(series)-1], true, nil
}

func (s *MemoryStore) GetAlerts(_ context.Context, filter AlertFilter) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Alert, 0)
	for _, a := range s.alerts {
		if filter.Matches(a) {
			result = append(result, a)
		}
	}

	slices.SortFunc(result, func(a, b models.Alert) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if len(result) > filter.limit() {
		result = result[:filter.limit()]
	}
	return result, nil
}

func (s *MemoryStore) InsertReadings(_ context.Context, readings []models.SensorReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool)
	for _, r := range readings {
		s.readings[r.EquipmentID] = append(s.readings[r.EquipmentID], r)
		touched[r.EquipmentID] = true
	}
	for id := range touched {
		slices.SortStableFunc(s.readings[id], func(a, b models.SensorReading) int {
			return a.Timestamp.Compare(b.Timestamp)
		})
	}
	return nil
}

func (s *MemoryStore) InsertAlerts(_ context.Context, alerts []models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range alerts {
		if _, exists := s.alerts[a.ID]; exists {
			continue
		}
		s.alerts[a.ID] = a
	}
	return nil
}

func (s *MemoryStore) AcknowledgeAlert(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.alerts[id]; ok {
		a.Acknowledged = true
		s.alerts[id] = a
	}
	return nil
}

func (s *MemoryStore) ActiveAlertCount(_ context.Context, equipmentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := AlertFilter{EquipmentID: equipmentID, UnacknowledgedOnly: true}
	count := 0
	for _, a := range s.alerts {
		if filter.Matches(a) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountReadings(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, series := range s.readings {
		total += len(series)
	}
	return total, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = make(map[string][]models.SensorReading)
	s.alerts = make(map[string]models.Alert)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
