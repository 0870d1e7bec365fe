package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlm-community/tournament-service/brackets"
	"github.com/dlm-community/tournament-service/models"
	"github.com/dlm-community/tournament-service/repositories"
)

type serviceFixture struct {
	tournaments *fakeTournamentRepo
	players     *fakeParticipantRepo
	matches     *fakeMatchRepo
	reminders   *fakeReminderRepo
	settings    *fakeSettingsRepo
	announcer   *fakeAnnouncer
	svc         TournamentService
	roster      RosterService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tournaments := newFakeTournamentRepo()
	players := newFakeParticipantRepo()
	matches := newFakeMatchRepo()
	reminders := newFakeReminderRepo(matches, players)
	settings := newFakeSettingsRepo()
	announcer := &fakeAnnouncer{}
	hub := brackets.NewHub(logger)

	svc := NewTournamentService(newStubDB(t), tournaments, players, matches, reminders, settings, hub, announcer, logger)
	roster := NewRosterService(tournaments, players, settings, nil, logger)

	return &serviceFixture{
		tournaments: tournaments,
		players:     players,
		matches:     matches,
		reminders:   reminders,
		settings:    settings,
		announcer:   announcer,
		svc:         svc,
		roster:      roster,
	}
}

// createOpen creates a tournament and immediately opens registration.
func (f *serviceFixture) createOpen(t *testing.T, guildID string, input CreateTournamentInput) *models.Tournament {
	t.Helper()
	tournament, err := f.svc.Create(context.Background(), guildID, input)
	require.NoError(t, err)
	_, err = f.svc.OpenRegistration(context.Background(), guildID)
	require.NoError(t, err)
	return tournament
}

func (f *serviceFixture) registerAll(t *testing.T, guildID string, userIDs ...string) {
	t.Helper()
	for _, uid := range userIDs {
		_, err := f.roster.Register(context.Background(), guildID, uid, nil)
		require.NoError(t, err)
	}
}

func (f *serviceFixture) matchByUID(t *testing.T, tournamentID int, uid string) *models.Match {
	t.Helper()
	m, err := f.matches.GetByUID(context.Background(), nil, tournamentID, uid)
	require.NoError(t, err, "match %s should exist", uid)
	return m
}

func TestCreateTournamentRejectsSecondActive(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "guild-1", CreateTournamentInput{Name: "Weekly", Format: models.FormatSingleElimination})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, "guild-1", CreateTournamentInput{Name: "Second", Format: models.FormatSwiss})
	assert.ErrorIs(t, err, ErrTournamentAlreadyActive)

	// Another guild is unaffected.
	_, err = f.svc.Create(ctx, "guild-2", CreateTournamentInput{Name: "Elsewhere", Format: models.FormatSwiss})
	assert.NoError(t, err)
}

func TestCreateTournamentValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "g", CreateTournamentInput{Format: models.FormatSwiss})
	assert.ErrorIs(t, err, ErrTournamentNameRequired)

	_, err = f.svc.Create(ctx, "g", CreateTournamentInput{Name: "x", Format: "ladder"})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = f.svc.Create(ctx, "g", CreateTournamentInput{Name: "x", Format: models.FormatSwiss, BestOf: 4})
	assert.ErrorIs(t, err, ErrInvalidBestOf)

	_, err = f.svc.Create(ctx, "g", CreateTournamentInput{Name: "x", Format: models.FormatSwiss, Seeding: "bracket"})
	assert.ErrorIs(t, err, ErrInvalidSeedingPolicy)
}

func TestSingleEliminationFullRun(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	tournament := f.createOpen(t, guild, CreateTournamentInput{
		Name:   "Weekly KC Cup",
		Format: models.FormatSingleElimination,
		BestOf: 3,
	})

	f.registerAll(t, guild, "alice", "bob", "carol", "dave")

	started, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, started.Status)
	assert.Equal(t, 2, started.Rounds)

	// Registration-order seeding pairs (alice,bob) and (carol,dave).
	r1m1 := f.matchByUID(t, tournament.ID, "R1M1")
	r1m2 := f.matchByUID(t, tournament.ID, "R1M2")
	require.True(t, r1m1.Ready())
	require.True(t, r1m2.Ready())

	out, err := f.svc.ReportResult(ctx, r1m1.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 0})
	require.NoError(t, err)
	assert.False(t, out.TournamentCompleted)

	out, err = f.svc.ReportResult(ctx, r1m2.ID, ReportResultInput{GamesWon1: 1, GamesWon2: 2})
	require.NoError(t, err)
	assert.False(t, out.TournamentCompleted)

	// Both winners advanced into the final.
	final := f.matchByUID(t, tournament.ID, "R2M1")
	require.True(t, final.Ready(), "final should be fed by both round 1 winners")
	assert.Equal(t, *r1m1.P1ID, *final.P1ID)
	assert.Equal(t, *r1m2.P2ID, *final.P2ID)

	out, err = f.svc.ReportResult(ctx, final.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 1})
	require.NoError(t, err)
	assert.True(t, out.TournamentCompleted)
	require.NotNil(t, out.Champion)
	assert.Equal(t, "alice", out.Champion.UserID)

	completed, err := f.tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	require.NotNil(t, completed.WinnerID)
	assert.Equal(t, *final.P1ID, *completed.WinnerID)
}

func TestReportResultRejectsDoubleReport(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	tournament := f.createOpen(t, guild, CreateTournamentInput{Name: "Cup", Format: models.FormatSingleElimination})
	f.registerAll(t, guild, "alice", "bob")
	_, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)

	m := f.matchByUID(t, tournament.ID, "R1M1")
	_, err = f.svc.ReportResult(ctx, m.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 1})
	require.NoError(t, err)

	_, err = f.svc.ReportResult(ctx, m.ID, ReportResultInput{GamesWon1: 0, GamesWon2: 2})
	assert.ErrorIs(t, err, ErrMatchAlreadyReported)
}

func TestReportResultValidatesScore(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	tournament := f.createOpen(t, guild, CreateTournamentInput{Name: "Cup", Format: models.FormatSingleElimination, BestOf: 3})
	f.registerAll(t, guild, "alice", "bob")
	_, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)

	m := f.matchByUID(t, tournament.ID, "R1M1")

	for _, score := range [][2]int{{1, 1}, {2, 2}, {3, 0}, {0, 0}, {-1, 2}} {
		_, err = f.svc.ReportResult(ctx, m.ID, ReportResultInput{GamesWon1: score[0], GamesWon2: score[1]})
		assert.ErrorIs(t, err, ErrInvalidScore, "score %d-%d should be rejected", score[0], score[1])
	}
}

func TestReportResultRejectsOutsideReporter(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	tournament := f.createOpen(t, guild, CreateTournamentInput{Name: "Cup", Format: models.FormatSingleElimination})
	f.registerAll(t, guild, "alice", "bob", "carol", "dave")
	_, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)

	// carol plays in R1M2, not R1M1.
	m := f.matchByUID(t, tournament.ID, "R1M1")
	_, err = f.svc.ReportResult(ctx, m.ID, ReportResultInput{ReporterUserID: "carol", GamesWon1: 2, GamesWon2: 0})
	assert.ErrorIs(t, err, ErrReporterNotInMatch)

	_, err = f.svc.ReportResult(ctx, m.ID, ReportResultInput{ReporterUserID: "alice", GamesWon1: 2, GamesWon2: 0})
	assert.NoError(t, err)
}

func TestStartRequiresDeckChecksWhenConfigured(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	settings := models.DefaultGuildSettings(guild)
	settings.DeckCheckRequired = true
	require.NoError(t, f.settings.Upsert(ctx, settings))

	f.createOpen(t, guild, CreateTournamentInput{Name: "Cup", Format: models.FormatSingleElimination})

	// Registration itself should demand a deck when the check is on.
	_, err := f.roster.Register(ctx, guild, "alice", nil)
	assert.ErrorIs(t, err, ErrDeckURLRequired)

	deck := "https://cdn.example.com/decks/alice.png"
	_, err = f.roster.Register(ctx, guild, "alice", &deck)
	require.NoError(t, err)
}

func TestRegistrationLifecycleStrictlyForward(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	_, err := f.svc.Create(ctx, guild, CreateTournamentInput{Name: "Cup", Format: models.FormatSwiss})
	require.NoError(t, err)

	// Drafts accept no entrants and cannot be closed.
	_, err = f.roster.Register(ctx, guild, "alice", nil)
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)
	_, err = f.svc.CloseRegistration(ctx, guild)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = f.svc.OpenRegistration(ctx, guild)
	require.NoError(t, err)
	f.registerAll(t, guild, "alice", "bob")

	_, err = f.svc.CloseRegistration(ctx, guild)
	require.NoError(t, err)

	_, err = f.roster.Register(ctx, guild, "carol", nil)
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)

	// Statuses only move forward; a closed field does not reopen.
	_, err = f.svc.OpenRegistration(ctx, guild)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	// Starting from closed is allowed.
	_, err = f.svc.Start(ctx, guild)
	assert.NoError(t, err)
}

func TestSwissPairsNextRoundWhenCurrentCompletes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	tournament := f.createOpen(t, guild, CreateTournamentInput{Name: "Swiss Night", Format: models.FormatSwiss})
	f.registerAll(t, guild, "alice", "bob", "carol", "dave")

	started, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)
	assert.Equal(t, 2, started.Rounds)

	r1m1 := f.matchByUID(t, tournament.ID, "R1M1")
	r1m2 := f.matchByUID(t, tournament.ID, "R1M2")

	out, err := f.svc.ReportResult(ctx, r1m1.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 0})
	require.NoError(t, err)
	assert.False(t, out.NextRoundPaired, "round 2 must not pair while round 1 has pending matches")

	out, err = f.svc.ReportResult(ctx, r1m2.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 1})
	require.NoError(t, err)
	assert.True(t, out.NextRoundPaired)
	assert.False(t, out.TournamentCompleted)

	// Round 2 pairs winner vs winner and loser vs loser, never a rematch.
	r2m1 := f.matchByUID(t, tournament.ID, "R2M1")
	require.True(t, r2m1.Ready())
	winners := map[int]bool{*r1m1.WinnerID: true, *r1m2.WinnerID: true}
	assert.True(t, winners[*r2m1.P1ID] && winners[*r2m1.P2ID],
		"round 2 top pairing should match the two round 1 winners")

	r2m2 := f.matchByUID(t, tournament.ID, "R2M2")
	out, err = f.svc.ReportResult(ctx, r2m1.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 0})
	require.NoError(t, err)
	assert.False(t, out.TournamentCompleted)

	out, err = f.svc.ReportResult(ctx, r2m2.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 0})
	require.NoError(t, err)
	assert.True(t, out.TournamentCompleted, "swiss ends after its final round completes")
	require.NotNil(t, out.Champion)
	assert.Equal(t, "alice", out.Champion.UserID, "the 2-0 player wins the event")
}

func TestSwissOddFieldByeScoresAsWin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	tournament := f.createOpen(t, guild, CreateTournamentInput{Name: "Swiss Night", Format: models.FormatSwiss})
	f.registerAll(t, guild, "alice", "bob", "carol")

	_, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)

	bye := f.matchByUID(t, tournament.ID, "R1M2")
	assert.Equal(t, models.MatchStatusCompleted, bye.Status)
	require.NotNil(t, bye.WinnerID)
	assert.Nil(t, bye.P2ID)

	standings, err := f.svc.Standings(ctx, guild)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	// Before any reported result only the bye recipient has a win.
	assert.Equal(t, "carol", standings[0].UserID)
	assert.Equal(t, 1, standings[0].Wins)
}

func TestRoundRobinCompletionAndStandings(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	tournament := f.createOpen(t, guild, CreateTournamentInput{Name: "League", Format: models.FormatRoundRobin})
	f.registerAll(t, guild, "alice", "bob", "carol")

	_, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)

	matches, err := f.matches.ListByTournament(ctx, tournament.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3, "3 participants play C(3,2) matches")

	var last *ReportOutcome
	for _, m := range matches {
		last, err = f.svc.ReportResult(ctx, m.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 0})
		require.NoError(t, err)
	}
	require.NotNil(t, last)
	assert.True(t, last.TournamentCompleted)

	completed, err := f.tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.WinnerID)
}

func TestCancelReleasesGuildSlot(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	_, err := f.svc.Create(ctx, guild, CreateTournamentInput{Name: "First", Format: models.FormatSwiss})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, guild))

	_, err = f.svc.GetCurrent(ctx, guild, false)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_, err = f.svc.Create(ctx, guild, CreateTournamentInput{Name: "Second", Format: models.FormatSwiss})
	assert.NoError(t, err)
}

func TestRandomSeedingPersistsShuffleSeed(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	f.createOpen(t, guild, CreateTournamentInput{
		Name:    "Shuffled",
		Format:  models.FormatSingleElimination,
		Seeding: models.SeedingRandom,
	})
	f.registerAll(t, guild, "alice", "bob", "carol", "dave")

	started, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)
	assert.NotZero(t, started.ShuffleSeed, "random seeding must persist the shuffle seed")
}

// cancelBetweenReadsRepo flips the tournament to canceled right after its
// first read, simulating a cancel landing between the match lookup and the
// guild lock.
type cancelBetweenReadsRepo struct {
	repositories.TournamentRepository
	once sync.Once
}

func (r *cancelBetweenReadsRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := r.TournamentRepository.GetByID(ctx, id)
	if err == nil {
		r.once.Do(func() {
			_ = r.TournamentRepository.UpdateStatus(ctx, nil, id, models.StatusCanceled)
		})
	}
	return t, err
}

func TestReportResultRejectsRaceWithCancel(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	tournament := f.createOpen(t, guild, CreateTournamentInput{Name: "Cup", Format: models.FormatSingleElimination})
	f.registerAll(t, guild, "alice", "bob")
	_, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)
	m := f.matchByUID(t, tournament.ID, "R1M1")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wrapped := &cancelBetweenReadsRepo{TournamentRepository: f.tournaments}
	svc := NewTournamentService(newStubDB(t), wrapped, f.players, f.matches,
		f.reminders, f.settings, brackets.NewHub(logger), f.announcer, logger)

	_, err = svc.ReportResult(ctx, m.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 0})
	assert.ErrorIs(t, err, ErrTournamentNotRunning)

	stored, err := f.tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, stored.Status,
		"a canceled tournament must never flip to completed")

	untouched := f.matchByUID(t, tournament.ID, "R1M1")
	assert.Equal(t, models.MatchStatusPending, untouched.Status)
}

func TestReportedMatchClearsReminder(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	guild := "guild-1"

	tournament := f.createOpen(t, guild, CreateTournamentInput{Name: "Cup", Format: models.FormatSingleElimination})
	f.registerAll(t, guild, "alice", "bob")
	_, err := f.svc.Start(ctx, guild)
	require.NoError(t, err)

	m := f.matchByUID(t, tournament.ID, "R1M1")
	require.NoError(t, f.reminders.Upsert(ctx, m.ID, guild, m.CreatedAt))

	_, err = f.svc.ReportResult(ctx, m.ID, ReportResultInput{GamesWon1: 2, GamesWon2: 0})
	require.NoError(t, err)

	due, err := f.reminders.ClaimDue(ctx, m.CreatedAt.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "reporting a match must disarm its reminder")
}
