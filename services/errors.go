package services

import "errors"

// Shared errors reused across services and mapped to HTTP statuses by the
// handler layer.
var (
	// Validation and business rules
	ErrValidationFailed        = errors.New("validation failed")
	ErrInvalidFormat           = errors.New("unknown tournament format")
	ErrInvalidBestOf           = errors.New("best_of must be an odd number between 1 and 7")
	ErrInvalidSeedingPolicy    = errors.New("seeding must be 'registration' or 'random'")
	ErrTournamentNameRequired  = errors.New("tournament name is required")
	ErrRegistrationNotOpen     = errors.New("tournament registration is not open")
	ErrInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentNotStartable  = errors.New("tournament cannot be started in its current status")
	ErrTournamentAlreadyActive = errors.New("guild already has an active tournament")
	ErrTournamentRunning       = errors.New("tournament has already started")
	ErrTournamentNotRunning    = errors.New("tournament is not running")
	ErrNotEnoughParticipants   = errors.New("at least 2 participants are required to start")
	ErrDeckChecksIncomplete    = errors.New("deck check is required and not all participants submitted a deck")
	ErrDeckURLRequired         = errors.New("a deck screenshot is required before registering")
	ErrMatchNotReady           = errors.New("match is not ready to be played")
	ErrMatchAlreadyReported    = errors.New("match result has already been reported")
	ErrInvalidScore            = errors.New("reported score does not decide the series")
	ErrScheduleInPast          = errors.New("matches cannot be scheduled in the past")
	ErrReporterNotInMatch      = errors.New("reporting user is not playing in this match")

	// Conflicts
	ErrAlreadyRegistered = errors.New("user is already registered for this tournament")

	// Authentication
	ErrInvalidAPIKey = errors.New("invalid api key")

	// Entity lookups
	ErrTournamentNotFound  = errors.New("no active tournament in this guild")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrCardNotFound        = errors.New("card not found")
)
