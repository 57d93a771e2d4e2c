// Package daemon provides the long-running background insight refresher.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/airraman/focuslog/internal/insight"
	"github.com/airraman/focuslog/internal/model"
	"github.com/airraman/focuslog/internal/pipeline"
	"github.com/airraman/focuslog/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	// MaxActivities bounds how many per-activity insights are refreshed
	// each cycle, heaviest activities first.
	MaxActivities int
}

// Snapshot is a compact session state for status/event payloads. It covers
// the trailing 7 days.
type Snapshot struct {
	At             time.Time `json:"at"`
	Sessions       int       `json:"sessions"`
	TotalHours     float64   `json:"total_hours"`
	AvgSessionMins float64   `json:"avg_session_mins"`
	Activities     int       `json:"activities"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Sessions   int     `json:"sessions"`
	TotalHours float64 `json:"total_hours"`
}

func (d Delta) isZero() bool {
	return d.Sessions == 0 && d.TotalHours == 0
}

// Event is emitted when the snapshot changes or an insight is refreshed.
type Event struct {
	ID          int64             `json:"id"`
	Type        string            `json:"type"`
	Timestamp   time.Time         `json:"timestamp"`
	Snapshot    Snapshot          `json:"snapshot"`
	Delta       Delta             `json:"delta"`
	InsightType model.InsightType `json:"insight_type,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	RefreshCount    int64     `json:"refresh_count"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service keeps cached insights fresh in the background and serves them
// over a local HTTP API.
type Service struct {
	cfg   Config
	db    *store.Store
	gen   *insight.Generator
	types []model.InsightType

	mu           sync.RWMutex
	startedAt    time.Time
	lastPollAt   time.Time
	pollCount    int64
	refreshCount int64
	lastError    string
	hasSnapshot  bool
	snapshot     Snapshot
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service refreshing the standard insight types plus
// per-activity insights discovered from the store.
func New(cfg Config, db *store.Store, gen *insight.Generator) *Service {
	if cfg.Interval < 10*time.Second {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8799"
	}
	if cfg.MaxActivities < 1 {
		cfg.MaxActivities = 5
	}

	return &Service{
		cfg:       cfg,
		db:        db,
		gen:       gen,
		types:     []model.InsightType{model.InsightDaily, model.InsightWeekly, model.InsightMonthly},
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and the refresh loop until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/insights", s.handleInsights)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	now := time.Now()

	snap, err := s.buildSnapshot(now)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		log.Printf("focuslog daemon poll error: %v", err)
		return
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "session_delta",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}

	s.refreshInsights(ctx, snap)
}

func (s *Service) buildSnapshot(now time.Time) (Snapshot, error) {
	sessions, err := s.db.SessionsByRange(now.AddDate(0, 0, -7), now, "")
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading sessions: %w", err)
	}

	summary := pipeline.Aggregate(sessions, pipeline.AggregateOptions{})
	return Snapshot{
		At:             now,
		Sessions:       summary.TotalSessions,
		TotalHours:     summary.TotalHours,
		AvgSessionMins: summary.AvgSessionMins,
		Activities:     len(summary.Activities),
	}, nil
}

// refreshInsights regenerates any cached insight nearing expiry. Failures
// are logged and surfaced through status; the loop keeps running.
func (s *Service) refreshInsights(ctx context.Context, snap Snapshot) {
	targets := make([]model.InsightType, 0, len(s.types)+s.cfg.MaxActivities)
	targets = append(targets, s.types...)

	activities, err := s.db.Activities()
	if err != nil {
		log.Printf("focuslog daemon: listing activities: %v", err)
	} else {
		if len(activities) > s.cfg.MaxActivities {
			activities = activities[:s.cfg.MaxActivities]
		}
		for _, a := range activities {
			targets = append(targets, model.ActivityInsightType(a))
		}
	}

	for _, t := range targets {
		if ctx.Err() != nil {
			return
		}

		stale, err := s.gen.CheckStale(t)
		if err != nil {
			log.Printf("focuslog daemon: staleness check for %s: %v", t, err)
			continue
		}
		if !stale {
			continue
		}

		// Force past cache validation: staleness fires before the entry's
		// hard expiry, so an unforced call would be served from cache.
		result, err := s.gen.Generate(ctx, t, insight.GenerateOptions{Force: true})
		if err != nil {
			log.Printf("focuslog daemon: refresh %s: %v", t, err)
			continue
		}
		if !result.Success {
			log.Printf("focuslog daemon: refresh %s degraded: %s", t, result.Metadata.Err)
			continue
		}
		if result.Metadata.IsEmpty {
			continue
		}

		s.mu.Lock()
		s.refreshCount++
		s.nextEventID++
		ev := Event{
			ID:          s.nextEventID,
			Type:        "insight_refreshed",
			Timestamp:   time.Now(),
			Snapshot:    snap,
			InsightType: t,
		}
		s.mu.Unlock()

		s.publishEvent(ev)
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Sessions:   curr.Sessions - prev.Sessions,
		TotalHours: curr.TotalHours - prev.TotalHours,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		RefreshCount:    s.refreshCount,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleInsights(w http.ResponseWriter, _ *http.Request) {
	insights, err := s.db.LatestInsights()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(insights)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
