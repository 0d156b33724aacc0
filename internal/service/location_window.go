package service

import (
	"sync"

	"SafeHerAPI/internal/models"
)

// LocationWindow is an in-memory bounded buffer of the most recent
// location samples. It mirrors the persisted history so latest-fix
// reads never touch the database.
type LocationWindow struct {
	mu       sync.Mutex
	capacity int
	samples  []models.LocationSample
}

func NewLocationWindow(capacity int) *LocationWindow {
	return &LocationWindow{capacity: capacity}
}

// Add appends a sample, evicting the oldest once the window is full.
func (w *LocationWindow) Add(sample models.LocationSample) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples = append(w.samples, sample)
	if len(w.samples) > w.capacity {
		over := len(w.samples) - w.capacity
		w.samples = append(w.samples[:0], w.samples[over:]...)
	}
}

// Items returns the retained samples, oldest first.
func (w *LocationWindow) Items() []models.LocationSample {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]models.LocationSample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Latest returns the newest sample, if any.
func (w *LocationWindow) Latest() (models.LocationSample, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.samples) == 0 {
		return models.LocationSample{}, false
	}
	return w.samples[len(w.samples)-1], true
}

func (w *LocationWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.samples)
}
