package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dlm-community/tournament-service/brackets"
	"github.com/dlm-community/tournament-service/models"
	"github.com/dlm-community/tournament-service/repositories"
)

type CreateTournamentInput struct {
	Name    string                  `json:"name"`
	Format  models.TournamentFormat `json:"format"`
	BestOf  int                     `json:"best_of"`
	Seeding models.SeedingPolicy    `json:"seeding"`
}

type ReportResultInput struct {
	// ReporterUserID is the Discord user submitting the score. Empty when a
	// moderator reports through the gateway, which bypasses the
	// participant check.
	ReporterUserID string `json:"reporter_user_id"`
	GamesWon1      int    `json:"games_won_1"`
	GamesWon2      int    `json:"games_won_2"`
}

// ReportOutcome describes everything a result report caused: the completed
// match, any freshly paired Swiss round, and tournament completion.
type ReportOutcome struct {
	Match               *models.Match       `json:"match"`
	NextRoundPaired     bool                `json:"next_round_paired"`
	TournamentCompleted bool                `json:"tournament_completed"`
	Champion            *models.Participant `json:"champion,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, guildID string, input CreateTournamentInput) (*models.Tournament, error)
	OpenRegistration(ctx context.Context, guildID string) (*models.Tournament, error)
	CloseRegistration(ctx context.Context, guildID string) (*models.Tournament, error)
	Start(ctx context.Context, guildID string) (*models.Tournament, error)
	Cancel(ctx context.Context, guildID string) error
	GetCurrent(ctx context.Context, guildID string, withBracket bool) (*models.Tournament, error)
	ReportResult(ctx context.Context, matchID int, input ReportResultInput) (*ReportOutcome, error)
	Standings(ctx context.Context, guildID string) ([]models.Standing, error)
}

// guildLocks hands out one mutex per guild so that bracket mutations for a
// guild are serialized while unrelated guilds proceed in parallel.
type guildLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGuildLocks() *guildLocks {
	return &guildLocks{locks: make(map[string]*sync.Mutex)}
}

func (g *guildLocks) lock(guildID string) func() {
	g.mu.Lock()
	l, ok := g.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[guildID] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	reminderRepo    repositories.ReminderRepository
	settingsRepo    repositories.SettingsRepository
	locks           *guildLocks
	hub             *brackets.Hub
	announcer       Announcer
	logger          *slog.Logger
	now             func() time.Time
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	reminderRepo repositories.ReminderRepository,
	settingsRepo repositories.SettingsRepository,
	hub *brackets.Hub,
	announcer Announcer,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		reminderRepo:    reminderRepo,
		settingsRepo:    settingsRepo,
		locks:           newGuildLocks(),
		hub:             hub,
		announcer:       announcer,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *tournamentService) Create(ctx context.Context, guildID string, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if !input.Format.Valid() {
		return nil, ErrInvalidFormat
	}
	if input.BestOf == 0 {
		input.BestOf = 3
	}
	if input.BestOf < 1 || input.BestOf > 7 || input.BestOf%2 == 0 {
		return nil, ErrInvalidBestOf
	}
	if input.Seeding == "" {
		input.Seeding = models.SeedingRegistration
	}
	if !input.Seeding.Valid() {
		return nil, ErrInvalidSeedingPolicy
	}

	unlock := s.locks.lock(guildID)
	defer unlock()

	t := &models.Tournament{
		GuildID: guildID,
		Name:    input.Name,
		Format:  input.Format,
		BestOf:  input.BestOf,
		Seeding: input.Seeding,
		Status:  models.StatusDraft,
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrActiveTournamentExists) {
			return nil, ErrTournamentAlreadyActive
		}
		return nil, fmt.Errorf("failed to create tournament for guild %s: %w", guildID, err)
	}
	return t, nil
}

func (s *tournamentService) OpenRegistration(ctx context.Context, guildID string) (*models.Tournament, error) {
	t, err := s.transitionRegistration(ctx, guildID, models.StatusDraft, models.StatusOpen)
	if err != nil {
		return nil, err
	}
	s.notifyGuild(ctx, guildID, fmt.Sprintf("Registration is open for **%s** (%s, best of %d)!", t.Name, t.Format, t.BestOf))
	return t, nil
}

func (s *tournamentService) CloseRegistration(ctx context.Context, guildID string) (*models.Tournament, error) {
	return s.transitionRegistration(ctx, guildID, models.StatusOpen, models.StatusClosed)
}

func (s *tournamentService) transitionRegistration(ctx context.Context, guildID string, from, to models.TournamentStatus) (*models.Tournament, error) {
	unlock := s.locks.lock(guildID)
	defer unlock()

	t, err := s.tournamentRepo.FindActiveByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if t.Status != from {
		return nil, ErrInvalidStatusTransition
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, s.db, t.ID, to); err != nil {
		return nil, err
	}
	t.Status = to
	return t, nil
}

// Start seeds the field, generates the bracket and flips the tournament to
// running, all inside one transaction.
func (s *tournamentService) Start(ctx context.Context, guildID string) (*models.Tournament, error) {
	unlock := s.locks.lock(guildID)
	defer unlock()

	t, err := s.tournamentRepo.FindActiveByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if t.Status != models.StatusOpen && t.Status != models.StatusClosed {
		return nil, ErrTournamentNotStartable
	}

	participants, err := s.participantRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", t.ID, err)
	}
	if len(participants) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	settings, err := s.settingsRepo.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if settings.DeckCheckRequired {
		for _, p := range participants {
			if p.DeckURL == nil {
				return nil, ErrDeckChecksIncomplete
			}
		}
	}

	now := s.now()
	var shuffleSeed int64
	if t.Seeding == models.SeedingRandom {
		shuffleSeed = now.UnixNano()
		rng := rand.New(rand.NewSource(shuffleSeed))
		rng.Shuffle(len(participants), func(i, j int) {
			participants[i], participants[j] = participants[j], participants[i]
		})
	}

	ids := make([]int, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}

	generator, err := brackets.NewGenerator(t.Format)
	if err != nil {
		return nil, err
	}
	generated, rounds, err := generator.Generate(ids)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return nil, ErrNotEnoughParticipants
		}
		return nil, fmt.Errorf("failed to generate %s bracket for tournament %d: %w", generator.Name(), t.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, p := range participants {
		if err := s.participantRepo.UpdateSeed(ctx, tx, p.ID, i+1); err != nil {
			return nil, err
		}
	}
	if err := s.tournamentRepo.MarkStarted(ctx, tx, t.ID, rounds, shuffleSeed, now); err != nil {
		return nil, err
	}
	if err := s.insertGeneratedMatches(ctx, tx, t, generated); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bracket for tournament %d: %w", t.ID, err)
	}

	t.Status = models.StatusRunning
	t.Rounds = rounds
	t.CurrentRound = 1
	t.ShuffleSeed = shuffleSeed
	t.StartedAt = &now

	s.hub.BroadcastToRoom(guildID, brackets.Event{
		Type:    brackets.EventBracketUpdated,
		GuildID: guildID,
		Payload: t,
	})
	s.notifyGuild(ctx, guildID, fmt.Sprintf("**%s** has started with %d players. Round 1 is live!", t.Name, len(participants)))

	s.logger.Info("tournament started",
		slog.String("guild_id", guildID),
		slog.Int("tournament_id", t.ID),
		slog.String("format", string(t.Format)),
		slog.Int("participants", len(participants)),
		slog.Int("rounds", rounds))
	return t, nil
}

// insertGeneratedMatches writes generator output as match rows. Swiss byes
// are stored as already-completed automatic wins so standings can be derived
// from the matches table alone; elimination byes produce no rows because the
// generator advances the affected seeds directly.
func (s *tournamentService) insertGeneratedMatches(ctx context.Context, tx *sql.Tx, t *models.Tournament, generated []*brackets.Match) error {
	for _, gm := range generated {
		m := &models.Match{
			TournamentID: t.ID,
			UID:          gm.UID,
			Section:      gm.Section,
			Round:        gm.Round,
			Slot:         gm.Slot,
			P1ID:         gm.P1ID,
			P2ID:         gm.P2ID,
			Status:       models.MatchStatusPending,
			NextUID:      gm.NextUID,
			NextSlot:     gm.NextSlot,
			LoserUID:     gm.LoserUID,
			LoserSlot:    gm.LoserSlot,
		}
		if gm.Bye {
			m.Status = models.MatchStatusCompleted
			m.WinnerID = gm.P1ID
			m.GamesWon1 = t.GamesToWin()
		}
		if err := s.matchRepo.Create(ctx, tx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *tournamentService) Cancel(ctx context.Context, guildID string) error {
	unlock := s.locks.lock(guildID)
	defer unlock()

	t, err := s.tournamentRepo.FindActiveByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, s.db, t.ID, models.StatusCanceled); err != nil {
		return err
	}

	s.hub.BroadcastToRoom(guildID, brackets.Event{
		Type:    brackets.EventBracketUpdated,
		GuildID: guildID,
		Payload: map[string]interface{}{"tournament_id": t.ID, "status": models.StatusCanceled},
	})
	s.notifyGuild(ctx, guildID, fmt.Sprintf("**%s** has been canceled.", t.Name))
	return nil
}

func (s *tournamentService) GetCurrent(ctx context.Context, guildID string, withBracket bool) (*models.Tournament, error) {
	t, err := s.tournamentRepo.FindActiveByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if !withBracket {
		return t, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gctx, t.ID)
		if err != nil {
			return err
		}
		t.Participants = make([]models.Participant, len(participants))
		for i, p := range participants {
			t.Participants[i] = *p
		}
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, t.ID, nil, nil)
		if err != nil {
			return err
		}
		t.Matches = make([]models.Match, len(matches))
		for i, m := range matches {
			t.Matches[i] = *m
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load bracket for tournament %d: %w", t.ID, err)
	}
	return t, nil
}

func (s *tournamentService) ReportResult(ctx context.Context, matchID int, input ReportResultInput) (*ReportOutcome, error) {
	pre, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	t, err := s.tournamentRepo.GetByID(ctx, pre.TournamentID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(t.GuildID)
	defer unlock()

	// Reload both under the guild lock: a concurrent report or cancel may
	// have landed between the lookup and the lock.
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	t, err = s.tournamentRepo.GetByID(ctx, pre.TournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusRunning {
		return nil, ErrTournamentNotRunning
	}
	if m.Status == models.MatchStatusCompleted {
		return nil, ErrMatchAlreadyReported
	}
	if !m.Ready() {
		return nil, ErrMatchNotReady
	}

	if input.ReporterUserID != "" {
		reporter, err := s.participantRepo.FindByTournamentAndUser(ctx, t.ID, input.ReporterUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return nil, ErrReporterNotInMatch
			}
			return nil, err
		}
		if !m.Has(reporter.ID) {
			return nil, ErrReporterNotInMatch
		}
	}

	winnerID, err := decideWinner(t, m, input.GamesWon1, input.GamesWon2)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.matchRepo.UpdateResult(ctx, tx, m.ID, input.GamesWon1, input.GamesWon2, winnerID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchAlreadyReported
		}
		return nil, err
	}
	m.GamesWon1 = input.GamesWon1
	m.GamesWon2 = input.GamesWon2
	m.WinnerID = &winnerID
	m.Status = models.MatchStatusCompleted

	if m.NextUID != nil {
		if err := s.matchRepo.FeedSlot(ctx, tx, t.ID, *m.NextUID, *m.NextSlot, winnerID); err != nil {
			return nil, fmt.Errorf("failed to advance winner from match %s: %w", m.UID, err)
		}
	}
	if m.LoserUID != nil {
		if loserID := m.LoserID(); loserID != nil {
			if err := s.matchRepo.FeedSlot(ctx, tx, t.ID, *m.LoserUID, *m.LoserSlot, *loserID); err != nil {
				return nil, fmt.Errorf("failed to drop loser from match %s: %w", m.UID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit result for match %d: %w", m.ID, err)
	}

	// A reported match no longer needs its reminder.
	if err := s.reminderRepo.DeleteByMatch(ctx, m.ID); err != nil {
		s.logger.Warn("failed to clear reminder", slog.Int("match_id", m.ID), slog.String("error", err.Error()))
	}

	outcome := &ReportOutcome{Match: m}
	if err := s.advanceTournament(ctx, t, outcome); err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(t.GuildID, brackets.Event{
		Type:    brackets.EventMatchCompleted,
		GuildID: t.GuildID,
		Payload: m,
	})
	if outcome.TournamentCompleted {
		s.hub.BroadcastToRoom(t.GuildID, brackets.Event{
			Type:    brackets.EventTournamentCompleted,
			GuildID: t.GuildID,
			Payload: outcome,
		})
		if outcome.Champion != nil {
			s.notifyGuild(ctx, t.GuildID, fmt.Sprintf("**%s** is over. Congratulations to the champion, <@%s>!", t.Name, outcome.Champion.UserID))
		}
	}
	return outcome, nil
}

// decideWinner validates a best-of score line and returns the winning
// participant ID. Exactly one side must reach the series threshold and the
// other must fall short of it.
func decideWinner(t *models.Tournament, m *models.Match, gamesWon1, gamesWon2 int) (int, error) {
	need := t.GamesToWin()
	if gamesWon1 < 0 || gamesWon2 < 0 {
		return 0, ErrInvalidScore
	}
	switch {
	case gamesWon1 == need && gamesWon2 < need:
		return *m.P1ID, nil
	case gamesWon2 == need && gamesWon1 < need:
		return *m.P2ID, nil
	}
	return 0, ErrInvalidScore
}

// advanceTournament runs after a committed result: it moves the current
// round pointer, pairs the next Swiss round when the previous one finishes,
// and completes the tournament when nothing is left to play.
func (s *tournamentService) advanceTournament(ctx context.Context, t *models.Tournament, outcome *ReportOutcome) error {
	matches, err := s.matchRepo.ListByTournament(ctx, t.ID, nil, nil)
	if err != nil {
		return err
	}

	pending := 0
	for _, m := range matches {
		if m.Status == models.MatchStatusPending {
			pending++
		}
	}

	if pending == 0 {
		if t.Format == models.FormatSwiss && t.CurrentRound < t.Rounds {
			paired, err := s.pairNextSwissRound(ctx, t, matches)
			if err != nil {
				return err
			}
			outcome.NextRoundPaired = paired
			if paired {
				return nil
			}
		}
		return s.completeTournament(ctx, t, matches, outcome)
	}

	// Track the earliest round still being played.
	minRound := 0
	for _, m := range matches {
		if m.Status != models.MatchStatusPending {
			continue
		}
		if minRound == 0 || m.Round < minRound {
			minRound = m.Round
		}
	}
	if minRound > t.CurrentRound {
		if err := s.tournamentRepo.SetCurrentRound(ctx, s.db, t.ID, minRound); err != nil {
			return err
		}
		t.CurrentRound = minRound
	}
	return nil
}

// pairNextSwissRound generates the following Swiss round from the running
// standings. Dropped participants sit out; a shrunken odd field hands the
// bye to the lowest-ranked player who has not had one yet. Returns false if
// too few players remain, which completes the tournament early.
func (s *tournamentService) pairNextSwissRound(ctx context.Context, t *models.Tournament, matches []*models.Match) (bool, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return false, err
	}

	standings := computeScoreStandings(participants, matches, true)

	entries := make([]brackets.SwissEntry, 0, len(standings))
	for _, st := range standings {
		entries = append(entries, brackets.SwissEntry{ParticipantID: st.ParticipantID, Points: st.Points})
	}

	played := make(map[[2]int]bool)
	hadBye := make(map[int]bool)
	for _, m := range matches {
		if m.P1ID != nil && m.P2ID != nil {
			played[pairKey(*m.P1ID, *m.P2ID)] = true
		}
		if m.P1ID != nil && m.P2ID == nil {
			hadBye[*m.P1ID] = true
		}
	}

	pairs, byeID, err := brackets.PairSwissRound(entries,
		func(a, b int) bool { return played[pairKey(a, b)] },
		func(id int) bool { return hadBye[id] },
	)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return false, nil
		}
		return false, err
	}

	round := t.CurrentRound + 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	slot := 0
	for _, pair := range pairs {
		slot++
		p1, p2 := pair.P1, pair.P2
		m := &models.Match{
			TournamentID: t.ID,
			UID:          fmt.Sprintf("R%dM%d", round, slot),
			Section:      models.SectionWinners,
			Round:        round,
			Slot:         slot,
			P1ID:         &p1,
			P2ID:         &p2,
			Status:       models.MatchStatusPending,
		}
		if err := s.matchRepo.Create(ctx, tx, m); err != nil {
			return false, err
		}
	}
	if byeID != nil {
		slot++
		m := &models.Match{
			TournamentID: t.ID,
			UID:          fmt.Sprintf("R%dM%d", round, slot),
			Section:      models.SectionWinners,
			Round:        round,
			Slot:         slot,
			P1ID:         byeID,
			Status:       models.MatchStatusCompleted,
			WinnerID:     byeID,
			GamesWon1:    t.GamesToWin(),
		}
		if err := s.matchRepo.Create(ctx, tx, m); err != nil {
			return false, err
		}
	}
	if err := s.tournamentRepo.SetCurrentRound(ctx, tx, t.ID, round); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit swiss round %d for tournament %d: %w", round, t.ID, err)
	}

	t.CurrentRound = round
	s.hub.BroadcastToRoom(t.GuildID, brackets.Event{
		Type:    brackets.EventBracketUpdated,
		GuildID: t.GuildID,
		Payload: map[string]interface{}{"tournament_id": t.ID, "round": round},
	})
	s.notifyGuild(ctx, t.GuildID, fmt.Sprintf("Round %d of **%s** has been paired!", round, t.Name))
	return true, nil
}

func (s *tournamentService) completeTournament(ctx context.Context, t *models.Tournament, matches []*models.Match, outcome *ReportOutcome) error {
	participants, err := s.participantRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return err
	}

	var winnerID *int
	if t.Format.IsElimination() {
		winnerID = eliminationWinner(matches)
	} else {
		standings := computeScoreStandings(participants, matches, false)
		if len(standings) > 0 {
			id := standings[0].ParticipantID
			winnerID = &id
		}
	}

	now := s.now()
	if err := s.tournamentRepo.MarkCompleted(ctx, s.db, t.ID, winnerID, now); err != nil {
		return err
	}

	t.Status = models.StatusCompleted
	t.WinnerID = winnerID
	t.CompletedAt = &now
	outcome.TournamentCompleted = true
	if winnerID != nil {
		for _, p := range participants {
			if p.ID == *winnerID {
				outcome.Champion = p
				break
			}
		}
	}

	s.logger.Info("tournament completed",
		slog.String("guild_id", t.GuildID),
		slog.Int("tournament_id", t.ID))
	return nil
}

// eliminationWinner finds the decided match nothing advances out of: the
// single elimination final or the double elimination grand final.
func eliminationWinner(matches []*models.Match) *int {
	for _, m := range matches {
		if m.NextUID == nil && m.Status == models.MatchStatusCompleted {
			if m.Section == models.SectionGrandFinal || m.Section == models.SectionWinners {
				return m.WinnerID
			}
		}
	}
	return nil
}

func (s *tournamentService) Standings(ctx context.Context, guildID string) ([]models.Standing, error) {
	t, err := s.tournamentRepo.FindActiveByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	participants, err := s.participantRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, t.ID, nil, nil)
	if err != nil {
		return nil, err
	}

	if t.Format.IsElimination() {
		return eliminationStandings(participants, matches), nil
	}
	return computeScoreStandings(participants, matches, false), nil
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// computeScoreStandings ranks a Swiss or round robin field by match wins,
// breaking ties on game difference, then games won, then seed order. Byes
// count as wins because they are stored as completed auto-win matches.
func computeScoreStandings(participants []*models.Participant, matches []*models.Match, excludeDropped bool) []models.Standing {
	index := make(map[int]*models.Standing, len(participants))
	order := make([]int, 0, len(participants))
	for _, p := range participants {
		if excludeDropped && p.Dropped {
			continue
		}
		index[p.ID] = &models.Standing{ParticipantID: p.ID, UserID: p.UserID}
		order = append(order, p.ID)
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusCompleted || m.WinnerID == nil {
			continue
		}
		if st, ok := index[*m.WinnerID]; ok {
			st.Wins++
			st.Points++
		}
		if loserID := m.LoserID(); loserID != nil {
			if st, ok := index[*loserID]; ok {
				st.Losses++
			}
		}
		if m.P1ID != nil {
			if st, ok := index[*m.P1ID]; ok {
				st.GamesFor += m.GamesWon1
				st.GamesAgainst += m.GamesWon2
			}
		}
		if m.P2ID != nil {
			if st, ok := index[*m.P2ID]; ok {
				st.GamesFor += m.GamesWon2
				st.GamesAgainst += m.GamesWon1
			}
		}
	}

	standings := make([]models.Standing, 0, len(order))
	for _, id := range order {
		standings = append(standings, *index[id])
	}
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GameDifference() != b.GameDifference() {
			return a.GameDifference() > b.GameDifference()
		}
		return a.GamesFor > b.GamesFor
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// eliminationStandings ranks by progression: the champion first, then
// everyone else by the round their losing match was played in. Points
// carries that round number.
func eliminationStandings(participants []*models.Participant, matches []*models.Match) []models.Standing {
	reached := make(map[int]int)
	var championID *int
	for _, m := range matches {
		for _, pid := range []*int{m.P1ID, m.P2ID} {
			if pid != nil && m.Round > reached[*pid] {
				reached[*pid] = m.Round
			}
		}
		if m.Status != models.MatchStatusCompleted {
			continue
		}
		if m.NextUID == nil && m.WinnerID != nil &&
			(m.Section == models.SectionGrandFinal || m.Section == models.SectionWinners) {
			championID = m.WinnerID
		}
	}

	standings := make([]models.Standing, 0, len(participants))
	for _, p := range participants {
		points := reached[p.ID]
		st := models.Standing{ParticipantID: p.ID, UserID: p.UserID, Points: points}
		standings = append(standings, st)
	}
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if championID != nil {
			if a.ParticipantID == *championID {
				return true
			}
			if b.ParticipantID == *championID {
				return false
			}
		}
		return a.Points > b.Points
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

func (s *tournamentService) notifyGuild(ctx context.Context, guildID, content string) {
	settings, err := s.settingsRepo.Get(ctx, guildID)
	if err != nil {
		s.logger.Warn("failed to load guild settings for announcement",
			slog.String("guild_id", guildID), slog.String("error", err.Error()))
		return
	}
	if settings.AnnouncementsWebhookURL == nil {
		return
	}
	announce(s.announcer, s.logger, *settings.AnnouncementsWebhookURL, content)
}
