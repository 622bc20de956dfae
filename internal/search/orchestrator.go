package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	goaway "github.com/TwiN/go-away"
	"github.com/forkcast/forkcast-api/internal/ai"
	"github.com/forkcast/forkcast-api/internal/geo"
	"github.com/forkcast/forkcast-api/internal/logger"
	"github.com/forkcast/forkcast-api/internal/models"
	"go.uber.org/zap"
)

const (
	// tickInterval is the cadence of progress ticks while waiting.
	tickInterval = 1500 * time.Millisecond
	// progressStages is the number of display stages the tick cycles through.
	progressStages = 4
)

// User-safe messages. Raw error detail is logged and recorded, never shown.
const (
	msgServiceBusy       = "The service is busy right now. Please try again."
	msgLocationDenied    = "We couldn't access your location. Check location permission and try again."
	msgNoLocationSupport = "Location is not available on this device."
	noticeNoResults      = "Nothing matched your search. Try a different craving or city."
)

// Fetcher runs one recommendation fetch for the given criteria. It is the
// orchestrator's view of the recommendation client.
type Fetcher interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Restaurant, error)
}

// Recorder persists a completed search for diagnostics. Implementations
// must be best-effort; the orchestrator never fails a search over it.
type Recorder interface {
	RecordSearch(rec *models.SearchRecord)
}

// CriteriaUpdate is a partial update to the session's criteria. Nil fields
// are left untouched.
type CriteriaUpdate struct {
	City     *models.City
	Category *string
	FreeText *string
}

// Orchestrator drives one client's search lifecycle:
// Idle -> Locating -> Loading -> Success|Error, with the Locating step
// skipped for city/category searches. Exactly one search is live at a
// time; starting a new one discards the previous results and cancels its
// in-flight work. A stale completion (from a search that has since been
// superseded) is discarded at the write boundary via a sequence number.
type Orchestrator struct {
	clientID string
	fetcher  Fetcher
	locator  geo.LocationProvider // nil means the capability is absent
	recorder Recorder

	mu       sync.Mutex
	criteria models.SearchCriteria
	state    models.SearchState
	seq      uint64
	started  time.Time
	cancel   context.CancelFunc
	subs     map[chan models.SearchState]struct{}
}

// NewOrchestrator creates an orchestrator in the Idle phase. A nil locator
// marks the geolocation capability as unavailable; GPS searches then fail
// without attempting acquisition.
func NewOrchestrator(clientID string, fetcher Fetcher, locator geo.LocationProvider, recorder Recorder) *Orchestrator {
	criteria := models.SearchCriteria{City: models.CityTbilisi, Category: "Trending"}
	return &Orchestrator{
		clientID: clientID,
		fetcher:  fetcher,
		locator:  locator,
		recorder: recorder,
		criteria: criteria,
		state: models.SearchState{
			Phase:    models.PhaseIdle,
			Criteria: criteria,
		},
		subs: make(map[chan models.SearchState]struct{}),
	}
}

// State returns a snapshot of the current session state.
func (o *Orchestrator) State() models.SearchState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe registers a state listener. Every phase change and progress
// tick is delivered as a full snapshot. The returned func unsubscribes.
// Slow listeners miss intermediate snapshots rather than blocking the
// orchestrator.
func (o *Orchestrator) Subscribe() (<-chan models.SearchState, func()) {
	ch := make(chan models.SearchState, 8)
	o.mu.Lock()
	o.subs[ch] = struct{}{}
	o.mu.Unlock()

	unsubscribe := func() {
		o.mu.Lock()
		if _, ok := o.subs[ch]; ok {
			delete(o.subs, ch)
			close(ch)
		}
		o.mu.Unlock()
	}
	return ch, unsubscribe
}

// UpdateCriteria applies a partial criteria update. Selecting a category
// clears the free text; typing free text keeps the category; changing the
// city always drops back to city-name search. Free text is scrubbed of
// profanity before it can reach a prompt.
func (o *Orchestrator) UpdateCriteria(update CriteriaUpdate) models.SearchCriteria {
	o.mu.Lock()
	defer o.mu.Unlock()

	if update.City != nil && update.City.Valid() {
		o.criteria.City = *update.City
		o.criteria.Location = models.LocationDescriptor{}
	}
	if update.Category != nil {
		o.criteria.Category = strings.TrimSpace(*update.Category)
		o.criteria.FreeText = ""
	}
	if update.FreeText != nil {
		o.criteria.FreeText = goaway.Censor(strings.TrimSpace(*update.FreeText))
	}
	o.state.Criteria = o.criteria
	return o.criteria
}

// StartCitySearch begins a city/category search. Allowed from any phase;
// an in-flight search is superseded and its completion discarded.
func (o *Orchestrator) StartCitySearch() {
	o.mu.Lock()
	o.criteria.Location = models.LocationDescriptor{}
	seq, ctx := o.beginLocked(models.PhaseLoading)
	criteria := o.criteria
	o.mu.Unlock()

	go o.fetch(ctx, seq, criteria)
}

// StartGPSSearch begins a position-based search: acquire the position,
// then fetch with live coordinates. Provider failure or timeout surfaces
// as an error phase without ever invoking the fetch.
func (o *Orchestrator) StartGPSSearch() {
	o.mu.Lock()
	if o.locator == nil {
		seq, _ := o.beginLocked(models.PhaseLocating)
		o.failLocked(seq, models.OutcomeLocation, msgNoLocationSupport, "geolocation capability absent")
		o.mu.Unlock()
		return
	}
	seq, ctx := o.beginLocked(models.PhaseLocating)
	o.mu.Unlock()

	go o.locate(ctx, seq)
}

// StartGPSSearchAt begins a position-based search with a fix the client
// already acquired on-device. Acquisition is skipped; the coordinates are
// taken as live and the fetch starts immediately.
func (o *Orchestrator) StartGPSSearchAt(latitude, longitude float64) {
	o.mu.Lock()
	o.criteria.Location = models.LocationDescriptor{
		Latitude:  latitude,
		Longitude: longitude,
		IsLive:    true,
	}
	seq, ctx := o.beginLocked(models.PhaseLoading)
	criteria := o.criteria
	o.mu.Unlock()

	go o.fetch(ctx, seq, criteria)
}

// beginLocked starts a new search generation: bumps the sequence number,
// cancels the previous in-flight work, resets the state record, and spawns
// the progress ticker for the new generation. Caller holds o.mu.
func (o *Orchestrator) beginLocked(phase models.SearchPhase) (uint64, context.Context) {
	o.seq++
	seq := o.seq
	o.started = time.Now()

	if o.cancel != nil {
		o.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	o.state = models.SearchState{
		Phase:    phase,
		Criteria: o.criteria,
	}
	o.broadcastLocked()

	go o.tickLoop(ctx, seq)
	return seq, ctx
}

// locate acquires a position and, if this generation is still current,
// transitions to Loading and launches the fetch.
func (o *Orchestrator) locate(ctx context.Context, seq uint64) {
	pos, err := o.locator.RequestPosition(ctx, geo.DefaultOptions())

	o.mu.Lock()
	if seq != o.seq {
		o.discardLocked(seq, "location fix")
		o.mu.Unlock()
		return
	}
	if err != nil {
		o.failLocked(seq, models.OutcomeLocation, msgLocationDenied, err.Error())
		o.mu.Unlock()
		return
	}

	o.criteria.Location = models.LocationDescriptor{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		IsLive:    true,
	}
	o.state.Phase = models.PhaseLoading
	o.state.Criteria = o.criteria
	criteria := o.criteria
	o.broadcastLocked()
	o.mu.Unlock()

	o.fetch(ctx, seq, criteria)
}

// fetch runs the recommendation client and applies the completion if this
// generation is still the current one.
func (o *Orchestrator) fetch(ctx context.Context, seq uint64, criteria models.SearchCriteria) {
	results, err := o.fetcher.Search(ctx, criteria)

	o.mu.Lock()
	defer o.mu.Unlock()

	if seq != o.seq {
		o.discardLocked(seq, "fetch completion")
		return
	}

	if err != nil {
		outcome := models.OutcomeUpstream
		var malformed *ai.MalformedResponseError
		if errors.As(err, &malformed) {
			outcome = models.OutcomeMalformed
		}
		o.failLocked(seq, outcome, msgServiceBusy, err.Error())
		return
	}

	o.finishLocked()
	o.state.Phase = models.PhaseSuccess
	o.state.Results = results
	o.state.ProgressTick = 0
	if len(results) == 0 {
		// Advisory, not an error banner: the system worked, nothing matched.
		o.state.Notice = noticeNoResults
	}
	o.broadcastLocked()

	outcome := models.OutcomeSuccess
	if len(results) == 0 {
		outcome = models.OutcomeEmpty
	}
	o.recordLocked(seq, outcome, len(results), "", distinctAggregators(results))
}

// failLocked collapses any classified failure into the single Error phase
// with a user-safe message. Caller holds o.mu.
func (o *Orchestrator) failLocked(seq uint64, outcome models.SearchOutcome, userMsg, detail string) {
	logger.WithClientID(o.clientID).Warn("search failed",
		zap.String("outcome", string(outcome)),
		zap.Uint64("seq", seq),
		zap.String("detail", detail),
	)

	o.finishLocked()
	o.state.Phase = models.PhaseError
	o.state.Results = nil
	o.state.ErrorMessage = userMsg
	o.state.ProgressTick = 0
	o.broadcastLocked()

	o.recordLocked(seq, outcome, 0, detail, nil)
}

// finishLocked releases the current generation's context so its ticker
// stops without waiting for the next interval. Caller holds o.mu.
func (o *Orchestrator) finishLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// discardLocked drops a completion that belongs to a superseded search.
// Newer state is never overwritten by a stray earlier response.
func (o *Orchestrator) discardLocked(seq uint64, what string) {
	logger.WithClientID(o.clientID).Debug("discarding stale completion",
		zap.String("completion", what),
		zap.Uint64("stale_seq", seq),
		zap.Uint64("current_seq", o.seq),
	)
	o.recordLocked(seq, models.OutcomeStale, 0, "superseded by newer search", nil)
}

// tickLoop advances the progress tick on a fixed cadence while the phase
// is a waiting one, then stops. Bound to a single search generation.
func (o *Orchestrator) tickLoop(ctx context.Context, seq uint64) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.mu.Lock()
			if seq != o.seq || !o.state.Phase.Waiting() {
				o.mu.Unlock()
				return
			}
			o.state.ProgressTick = (o.state.ProgressTick + 1) % progressStages
			o.broadcastLocked()
			o.mu.Unlock()
		}
	}
}

// snapshotLocked copies the state so callers cannot alias the results
// slice. Caller holds o.mu.
func (o *Orchestrator) snapshotLocked() models.SearchState {
	snap := o.state
	if len(o.state.Results) > 0 {
		snap.Results = make([]models.Restaurant, len(o.state.Results))
		copy(snap.Results, o.state.Results)
	}
	return snap
}

// broadcastLocked delivers the current snapshot to all subscribers without
// blocking. Caller holds o.mu.
func (o *Orchestrator) broadcastLocked() {
	snap := o.snapshotLocked()
	for ch := range o.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// recordLocked hands a diagnostics record to the recorder, if any. Caller
// holds o.mu.
func (o *Orchestrator) recordLocked(seq uint64, outcome models.SearchOutcome, resultCount int, detail string, platforms []string) {
	if o.recorder == nil {
		return
	}
	rec := &models.SearchRecord{
		ClientID:    o.clientID,
		Sequence:    seq,
		City:        o.criteria.City,
		Category:    o.criteria.Category,
		FreeText:    o.criteria.FreeText,
		Live:        o.criteria.Location.IsLive,
		Latitude:    o.criteria.Location.Latitude,
		Longitude:   o.criteria.Location.Longitude,
		Outcome:     outcome,
		ResultCount: resultCount,
		ErrorDetail: detail,
		Platforms:   platforms,
		LatencyMS:   time.Since(o.started).Milliseconds(),
	}
	go o.recorder.RecordSearch(rec)
}

// distinctAggregators collects the unique delivery platforms the upstream
// inferred across a result set, in first-seen order.
func distinctAggregators(results []models.Restaurant) []string {
	seen := make(map[string]bool)
	var platforms []string
	for _, r := range results {
		for _, p := range r.LikelyAggregators {
			if !seen[p] {
				seen[p] = true
				platforms = append(platforms, p)
			}
		}
	}
	return platforms
}
