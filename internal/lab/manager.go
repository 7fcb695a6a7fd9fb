package lab

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lab-occupancy/internal/model"
	"github.com/iliyamo/lab-occupancy/internal/stats"
	"github.com/iliyamo/lab-occupancy/internal/store"
)

// Broadcaster receives confirmed state changes for fan-out to connected
// viewers.  Implementations must not block; the manager calls these while
// holding its lock.
type Broadcaster interface {
	SeatUpdated(seat model.Seat)
	LogAdded(entry model.LogEntry)
	StatsUpdated(st model.Statistics)
	UserAdded(u model.User)
	UserUpdated(u model.User)
	SnapshotReplaced(snap *model.Snapshot)
}

// Notifier publishes confirmed session transitions to out-of-process
// consumers (the chat-bot relay).  Implementations must not block.
type Notifier interface {
	SessionChanged(kind model.LogKind, sess model.Session, seat model.Seat)
}

// Profile carries the fields supplied at registration or administrative
// edit.  ExternalID is set when the auth provider issued the identity.
type Profile struct {
	ExternalID string
	Name       string
	Track      model.CompetenceTrack
	Group      string
	Department string
}

// Manager validates and applies every mutation of the lab state.  It holds
// no copy of the state across calls: each operation loads the snapshot from
// the store, mutates it, recomputes statistics and writes it back as one
// unit under the lock, so concurrent claims of the same seat serialize and
// exactly one succeeds.
type Manager struct {
	mu        sync.Mutex
	store     store.Store
	broadcast Broadcaster
	notify    Notifier
	logCap    int

	now   func() time.Time
	newID func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithBroadcaster wires the push channel for confirmed deltas.
func WithBroadcaster(b Broadcaster) Option { return func(m *Manager) { m.broadcast = b } }

// WithNotifier wires the queue publisher for session events.
func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notify = n } }

// WithLogCapacity overrides the event log bound.
func WithLogCapacity(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.logCap = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// SetBroadcaster installs the push channel after construction.  The hub
// needs the manager's snapshot accessor for its handshake, so the two are
// wired in two steps at boot.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcast = b
}

// NewManager constructs a Manager over the given store.  The default log
// capacity keeps the 100 most recent entries.
func NewManager(st store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  st,
		logCap: 100,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterUser creates a user from the profile.  The identifier is the
// external one when supplied, otherwise freshly generated.  Registering an
// identity that already exists fails with ErrDuplicateUser.
func (m *Manager) RegisterUser(ctx context.Context, p Profile) (model.User, error) {
	if strings.TrimSpace(p.Name) == "" {
		return model.User{}, fmt.Errorf("%w: name required", ErrConflict)
	}
	if !p.Track.Valid() {
		return model.User{}, fmt.Errorf("%w: unknown competence track %q", ErrConflict, p.Track)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.User{}, err
	}
	id := p.ExternalID
	if id == "" {
		id = m.newID()
	}
	for _, u := range snap.Users {
		if u.ID == id {
			return model.User{}, ErrDuplicateUser
		}
	}
	user := model.User{
		ID:         id,
		Name:       strings.TrimSpace(p.Name),
		Track:      p.Track,
		Group:      p.Group,
		Department: p.Department,
	}
	snap.Users = append(snap.Users, user)
	snap.Statistics = stats.Recompute(snap.Seats, snap.Users, snap.Sessions)
	if err := m.store.Save(ctx, snap); err != nil {
		return model.User{}, err
	}
	if m.broadcast != nil {
		m.broadcast.UserAdded(user)
		m.broadcast.StatsUpdated(snap.Statistics)
	}
	return user, nil
}

// UpdateUser applies an administrative edit to an existing user.
func (m *Manager) UpdateUser(ctx context.Context, id string, p Profile) (model.User, error) {
	if !p.Track.Valid() {
		return model.User{}, fmt.Errorf("%w: unknown competence track %q", ErrConflict, p.Track)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.User{}, err
	}
	for i := range snap.Users {
		if snap.Users[i].ID != id {
			continue
		}
		if name := strings.TrimSpace(p.Name); name != "" {
			snap.Users[i].Name = name
		}
		snap.Users[i].Track = p.Track
		snap.Users[i].Group = p.Group
		snap.Users[i].Department = p.Department
		if err := m.store.Save(ctx, snap); err != nil {
			return model.User{}, err
		}
		if m.broadcast != nil {
			m.broadcast.UserUpdated(snap.Users[i])
		}
		return snap.Users[i], nil
	}
	return model.User{}, ErrUserNotFound
}

// StartSession claims a free seat for a user.  It fails with
// ErrSeatUnavailable when the seat is not free and with the not-found
// sentinels when a reference does not resolve.  On success the seat is
// marked occupied, a login entry is logged, statistics are recomputed and
// the confirmed delta is fanned out.
func (m *Manager) StartSession(ctx context.Context, userID, seatID string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.Session{}, err
	}
	user, ok := findUser(snap, userID)
	if !ok {
		return model.Session{}, ErrUserNotFound
	}
	seat := findSeat(snap, seatID)
	if seat == nil {
		return model.Session{}, ErrSeatNotFound
	}
	if seat.Status != model.SeatFree {
		return model.Session{}, ErrSeatUnavailable
	}
	now := m.now()
	sess := model.Session{
		ID:       m.newID(),
		UserID:   user.ID,
		SeatID:   seat.ID,
		StartAt:  now,
		Active:   true,
		LastSeen: now,
	}
	seat.Status = model.SeatOccupied
	seat.OccupantID = user.ID
	start := now
	seat.SessionStart = &start
	snap.Sessions = append(snap.Sessions, sess)

	entry := m.appendLog(snap, model.LogEntry{
		Kind:     model.LogLogin,
		SeatID:   seat.ID,
		UserID:   user.ID,
		Message:  fmt.Sprintf("%s took %s", user.Name, seat.Name),
		Severity: model.SeveritySuccess,
	})
	snap.Statistics = stats.Recompute(snap.Seats, snap.Users, snap.Sessions)
	if err := m.store.Save(ctx, snap); err != nil {
		return model.Session{}, err
	}
	m.fanOut(*seat, entry, snap.Statistics)
	if m.notify != nil {
		m.notify.SessionChanged(model.LogLogin, sess, *seat)
	}
	return sess, nil
}

// EndSession closes an active session: the end time is set, the seat
// returns to free and a logout entry is logged.
func (m *Manager) EndSession(ctx context.Context, sessionID string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endSessionLocked(ctx, sessionID, model.LogLogout, model.SeverityInfo)
}

// TimeoutSession closes an active session that went stale (no heartbeat).
// Identical to EndSession except for the log kind and severity.
func (m *Manager) TimeoutSession(ctx context.Context, sessionID string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endSessionLocked(ctx, sessionID, model.LogSessionTimeout, model.SeverityWarning)
}

func (m *Manager) endSessionLocked(ctx context.Context, sessionID string, kind model.LogKind, sev model.LogSeverity) (model.Session, error) {
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.Session{}, err
	}
	sess := findSession(snap, sessionID)
	if sess == nil {
		return model.Session{}, ErrSessionNotFound
	}
	if !sess.Active {
		return model.Session{}, ErrSessionEnded
	}
	now := m.now()
	end := now
	sess.Active = false
	sess.EndAt = &end

	seat := findSeat(snap, sess.SeatID)
	var userName string
	if u, ok := findUser(snap, sess.UserID); ok {
		userName = u.Name
	}
	seatName := sess.SeatID
	if seat != nil {
		seatName = seat.Name
		seat.Status = model.SeatFree
		seat.OccupantID = ""
		seat.SessionStart = nil
	}
	msg := fmt.Sprintf("%s left %s", userName, seatName)
	if kind == model.LogSessionTimeout {
		msg = fmt.Sprintf("session of %s on %s timed out", userName, seatName)
	}
	entry := m.appendLog(snap, model.LogEntry{
		Kind:     kind,
		SeatID:   sess.SeatID,
		UserID:   sess.UserID,
		Message:  msg,
		Severity: sev,
	})
	snap.Statistics = stats.Recompute(snap.Seats, snap.Users, snap.Sessions)
	if err := m.store.Save(ctx, snap); err != nil {
		return model.Session{}, err
	}
	ended := *sess
	if seat != nil {
		m.fanOut(*seat, entry, snap.Statistics)
		if m.notify != nil {
			m.notify.SessionChanged(kind, ended, *seat)
		}
	}
	return ended, nil
}

// SweepStale times out every active session whose heartbeat is older than
// maxIdle.  The background sweeper calls this on a timer; each stale session
// closes through the same path as a logout, with a session_timeout log entry.
func (m *Manager) SweepStale(ctx context.Context, maxIdle time.Duration) (int, error) {
	if maxIdle <= 0 {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := m.now().Add(-maxIdle)
	var stale []string
	for _, sess := range snap.Sessions {
		if sess.Active && sess.LastSeen.Before(cutoff) {
			stale = append(stale, sess.ID)
		}
	}
	closed := 0
	for _, id := range stale {
		if _, err := m.endSessionLocked(ctx, id, model.LogSessionTimeout, model.SeverityWarning); err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// TouchSession refreshes the heartbeat stamp of an active session.  It is
// idempotent, is not a state transition, emits no log entry and does not
// broadcast.
func (m *Manager) TouchSession(ctx context.Context, sessionID string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.Session{}, err
	}
	sess := findSession(snap, sessionID)
	if sess == nil {
		return model.Session{}, ErrSessionNotFound
	}
	if !sess.Active {
		return model.Session{}, ErrSessionEnded
	}
	sess.LastSeen = m.now()
	if err := m.store.Save(ctx, snap); err != nil {
		return model.Session{}, err
	}
	return *sess, nil
}

// SetMaintenance takes a free seat out of service.  A seat with an active
// session is rejected with ErrSeatOccupied; the session must be ended
// first, maintenance never force-terminates it.
func (m *Manager) SetMaintenance(ctx context.Context, seatID, reason string, estimatedEnd *time.Time) (model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.Seat{}, err
	}
	seat := findSeat(snap, seatID)
	if seat == nil {
		return model.Seat{}, ErrSeatNotFound
	}
	switch seat.Status {
	case model.SeatOccupied:
		return model.Seat{}, ErrSeatOccupied
	case model.SeatMaintenance:
		return model.Seat{}, fmt.Errorf("%w: already in maintenance", ErrConflict)
	}
	seat.Status = model.SeatMaintenance
	seat.Maintenance = &model.Maintenance{
		Reason:       reason,
		StartedAt:    m.now(),
		EstimatedEnd: estimatedEnd,
	}
	entry := m.appendLog(snap, model.LogEntry{
		Kind:     model.LogMaintenanceStart,
		SeatID:   seat.ID,
		Message:  fmt.Sprintf("%s under maintenance: %s", seat.Name, reason),
		Severity: model.SeverityWarning,
	})
	snap.Statistics = stats.Recompute(snap.Seats, snap.Users, snap.Sessions)
	if err := m.store.Save(ctx, snap); err != nil {
		return model.Seat{}, err
	}
	m.fanOut(*seat, entry, snap.Statistics)
	return *seat, nil
}

// ClearMaintenance returns a maintenance seat to service.
func (m *Manager) ClearMaintenance(ctx context.Context, seatID string) (model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.Seat{}, err
	}
	seat := findSeat(snap, seatID)
	if seat == nil {
		return model.Seat{}, ErrSeatNotFound
	}
	if seat.Status != model.SeatMaintenance {
		return model.Seat{}, ErrNotInMaintenance
	}
	seat.Status = model.SeatFree
	seat.Maintenance = nil
	entry := m.appendLog(snap, model.LogEntry{
		Kind:     model.LogMaintenanceEnd,
		SeatID:   seat.ID,
		Message:  fmt.Sprintf("%s back in service", seat.Name),
		Severity: model.SeverityInfo,
	})
	snap.Statistics = stats.Recompute(snap.Seats, snap.Users, snap.Sessions)
	if err := m.store.Save(ctx, snap); err != nil {
		return model.Seat{}, err
	}
	m.fanOut(*seat, entry, snap.Statistics)
	return *seat, nil
}

// UserByID resolves a registered user by identifier.
func (m *Manager) UserByID(ctx context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.User{}, err
	}
	if u, ok := findUser(snap, id); ok {
		return u, nil
	}
	return model.User{}, ErrUserNotFound
}

// Snapshot returns a deep copy of the full current state.
func (m *Manager) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Clone(), nil
}

// ImportSnapshot replaces the store contents wholesale after structural
// validation.  Connected viewers receive the replacement in one push.
func (m *Manager) ImportSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Statistics = stats.Recompute(snap.Seats, snap.Users, snap.Sessions)
	if err := m.store.Save(ctx, snap); err != nil {
		return err
	}
	if m.broadcast != nil {
		m.broadcast.SnapshotReplaced(snap.Clone())
	}
	return nil
}

// ClearDatabase wipes the store back to the default layout.
func (m *Manager) ClearDatabase(ctx context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		return nil, err
	}
	snap, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if m.broadcast != nil {
		m.broadcast.SnapshotReplaced(snap.Clone())
	}
	return snap.Clone(), nil
}

// ClearLogs empties the event log.  Seats, sessions and statistics are
// unaffected.
func (m *Manager) ClearLogs(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	snap.Logs = []model.LogEntry{}
	return m.store.Save(ctx, snap)
}

// RefreshStatistics recomputes and persists the derived statistics.
// Recompute is idempotent, so repeating this is always safe.
func (m *Manager) RefreshStatistics(ctx context.Context) (model.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.Statistics{}, err
	}
	snap.Statistics = stats.Recompute(snap.Seats, snap.Users, snap.Sessions)
	if err := m.store.Save(ctx, snap); err != nil {
		return model.Statistics{}, err
	}
	if m.broadcast != nil {
		m.broadcast.StatsUpdated(snap.Statistics)
	}
	return snap.Statistics, nil
}

// ResetStatistics zeroes the session-derived fields while keeping the seat
// partition counts accurate.
func (m *Manager) ResetStatistics(ctx context.Context) (model.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.store.Load(ctx)
	if err != nil {
		return model.Statistics{}, err
	}
	st := stats.Recompute(snap.Seats, nil, nil)
	snap.Statistics = st
	if err := m.store.Save(ctx, snap); err != nil {
		return model.Statistics{}, err
	}
	if m.broadcast != nil {
		m.broadcast.StatsUpdated(st)
	}
	return st, nil
}

// appendLog inserts the entry at the head of the log and truncates to the
// configured capacity, dropping the oldest entries.  Insertion order is the
// tie-break when timestamps collide.
func (m *Manager) appendLog(snap *model.Snapshot, entry model.LogEntry) model.LogEntry {
	entry.ID = m.newID()
	entry.Timestamp = m.now()
	snap.Logs = append([]model.LogEntry{entry}, snap.Logs...)
	if len(snap.Logs) > m.logCap {
		snap.Logs = snap.Logs[:m.logCap]
	}
	return entry
}

func (m *Manager) fanOut(seat model.Seat, entry model.LogEntry, st model.Statistics) {
	if m.broadcast == nil {
		return
	}
	m.broadcast.SeatUpdated(seat)
	m.broadcast.LogAdded(entry)
	m.broadcast.StatsUpdated(st)
}

func findSeat(snap *model.Snapshot, id string) *model.Seat {
	for i := range snap.Seats {
		if snap.Seats[i].ID == id {
			return &snap.Seats[i]
		}
	}
	return nil
}

func findUser(snap *model.Snapshot, id string) (model.User, bool) {
	for _, u := range snap.Users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

func findSession(snap *model.Snapshot, id string) *model.Session {
	for i := range snap.Sessions {
		if snap.Sessions[i].ID == id {
			return &snap.Sessions[i]
		}
	}
	return nil
}
