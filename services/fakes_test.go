package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dlm-community/tournament-service/models"
	"github.com/dlm-community/tournament-service/repositories"
)

// The services only use *sql.DB for transaction demarcation; the fakes below
// ignore the executor entirely, so a driver whose transactions are no-ops is
// all the tests need.

type nopDriver struct{}

func (nopDriver) Open(string) (driver.Conn, error) { return nopConn{}, nil }

type nopConn struct{}

func (nopConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (nopConn) Close() error                        { return nil }
func (nopConn) Begin() (driver.Tx, error)           { return nopTx{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

var registerNopDriver sync.Once

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerNopDriver.Do(func() {
		sql.Register("nop", nopDriver{})
	})
	db, err := sql.Open("nop", "")
	if err != nil {
		t.Fatalf("failed to open stub database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeTournamentRepo struct {
	mu     sync.Mutex
	nextID int
	items  map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{items: make(map[int]*models.Tournament)}
}

func (f *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.GuildID == t.GuildID && !existing.Status.IsTerminal() {
			return repositories.ErrActiveTournamentExists
		}
	}
	f.nextID++
	t.ID = f.nextID
	t.CreatedAt = time.Now()
	cp := *t
	f.items[t.ID] = &cp
	return nil
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTournamentRepo) FindActiveByGuild(ctx context.Context, guildID string) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.items {
		if t.GuildID == guildID && !t.Status.IsTerminal() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTournamentRepo) MarkStarted(ctx context.Context, _ repositories.SQLExecutor, id int, rounds int, shuffleSeed int64, startedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = models.StatusRunning
	t.Rounds = rounds
	t.CurrentRound = 1
	t.ShuffleSeed = shuffleSeed
	t.StartedAt = &startedAt
	return nil
}

func (f *fakeTournamentRepo) MarkCompleted(ctx context.Context, _ repositories.SQLExecutor, id int, winnerID *int, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok || t.Status != models.StatusRunning {
		return repositories.ErrTournamentNotFound
	}
	t.Status = models.StatusCompleted
	t.WinnerID = winnerID
	t.CompletedAt = &completedAt
	return nil
}

func (f *fakeTournamentRepo) SetCurrentRound(ctx context.Context, _ repositories.SQLExecutor, id, round int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentRound = round
	return nil
}

type fakeParticipantRepo struct {
	mu     sync.Mutex
	nextID int
	items  []*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{}
}

func (f *fakeParticipantRepo) Create(ctx context.Context, p *models.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.TournamentID == p.TournamentID && existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	f.nextID++
	p.ID = f.nextID
	p.RegisteredAt = time.Now()
	cp := *p
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeParticipantRepo) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (f *fakeParticipantRepo) FindByTournamentAndUser(ctx context.Context, tournamentID int, userID string) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.TournamentID == tournamentID && p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (f *fakeParticipantRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, p := range f.items {
		if p.TournamentID == tournamentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) UpdateSeed(ctx context.Context, _ repositories.SQLExecutor, id, seed int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.ID == id {
			s := seed
			p.Seed = &s
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (f *fakeParticipantRepo) UpdateDeckURL(ctx context.Context, id int, deckURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.ID == id {
			u := deckURL
			p.DeckURL = &u
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (f *fakeParticipantRepo) SetDropped(ctx context.Context, id int, dropped bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.ID == id {
			p.Dropped = dropped
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (f *fakeParticipantRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.items {
		if p.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

type fakeMatchRepo struct {
	mu     sync.Mutex
	nextID int
	items  []*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{}
}

func (f *fakeMatchRepo) Create(ctx context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now()
	cp := *m
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.items {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) GetByUID(ctx context.Context, _ repositories.SQLExecutor, tournamentID int, uid string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.items {
		if m.TournamentID == tournamentID && m.UID == uid {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range f.items {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

func (f *fakeMatchRepo) UpdateResult(ctx context.Context, _ repositories.SQLExecutor, id, gamesWon1, gamesWon2 int, winnerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.items {
		if m.ID == id {
			if m.Status != models.MatchStatusPending {
				return repositories.ErrMatchNotFound
			}
			m.GamesWon1 = gamesWon1
			m.GamesWon2 = gamesWon2
			w := winnerID
			m.WinnerID = &w
			m.Status = models.MatchStatusCompleted
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) FeedSlot(ctx context.Context, _ repositories.SQLExecutor, tournamentID int, uid string, slot, participantID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.items {
		if m.TournamentID == tournamentID && m.UID == uid {
			pid := participantID
			if slot == 1 {
				m.P1ID = &pid
			} else {
				m.P2ID = &pid
			}
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) UpdateSchedule(ctx context.Context, id int, scheduledAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.items {
		if m.ID == id {
			at := scheduledAt
			m.ScheduledAt = &at
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) ListUpcoming(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range f.items {
		if m.TournamentID == tournamentID && m.Status == models.MatchStatusPending && m.ScheduledAt != nil {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMatchRepo) UserStats(ctx context.Context, guildID, userID string) (*models.PlayerStats, error) {
	return &models.PlayerStats{UserID: userID, GuildID: guildID}, nil
}

type fakeReminder struct {
	guildID string
	fireAt  time.Time
	sent    bool
}

type fakeReminderRepo struct {
	mu      sync.Mutex
	items   map[int]*fakeReminder
	matches *fakeMatchRepo
	players *fakeParticipantRepo
}

func newFakeReminderRepo(matches *fakeMatchRepo, players *fakeParticipantRepo) *fakeReminderRepo {
	return &fakeReminderRepo{
		items:   make(map[int]*fakeReminder),
		matches: matches,
		players: players,
	}
}

func (f *fakeReminderRepo) Upsert(ctx context.Context, matchID int, guildID string, fireAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.items[matchID]; ok {
		if !existing.sent {
			existing.fireAt = fireAt
		}
		return nil
	}
	f.items[matchID] = &fakeReminder{guildID: guildID, fireAt: fireAt}
	return nil
}

func (f *fakeReminderRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.DueReminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	due := make([]*models.DueReminder, 0)
	for matchID, rem := range f.items {
		if rem.sent || rem.fireAt.After(now) || len(due) >= limit {
			continue
		}
		m, err := f.matches.GetByID(ctx, matchID)
		if err != nil || m.Status != models.MatchStatusPending {
			continue
		}
		rem.sent = true
		d := &models.DueReminder{
			MatchID:  matchID,
			GuildID:  rem.guildID,
			MatchUID: m.UID,
		}
		if m.ScheduledAt != nil {
			d.ScheduledAt = *m.ScheduledAt
		}
		if m.P1ID != nil {
			if p, err := f.players.FindByID(ctx, *m.P1ID); err == nil {
				d.P1UserID = p.UserID
			}
		}
		if m.P2ID != nil {
			if p, err := f.players.FindByID(ctx, *m.P2ID); err == nil {
				d.P2UserID = p.UserID
			}
		}
		due = append(due, d)
	}
	return due, nil
}

func (f *fakeReminderRepo) DeleteByMatch(ctx context.Context, matchID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rem, ok := f.items[matchID]; ok && !rem.sent {
		delete(f.items, matchID)
	}
	return nil
}

type fakeSettingsRepo struct {
	mu    sync.Mutex
	items map[string]*models.GuildSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{items: make(map[string]*models.GuildSettings)}
}

func (f *fakeSettingsRepo) Get(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.items[guildID]; ok {
		cp := *s
		return &cp, nil
	}
	return models.DefaultGuildSettings(guildID), nil
}

func (f *fakeSettingsRepo) Upsert(ctx context.Context, s *models.GuildSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	cp.UpdatedAt = time.Now()
	f.items[s.GuildID] = &cp
	return nil
}

type fakeAnnouncer struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeAnnouncer) Announce(ctx context.Context, webhookURL, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, content)
	return nil
}

func (f *fakeAnnouncer) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}
