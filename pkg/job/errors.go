package job

import "errors"

var (
	ErrUnknownTask       = errors.New("job: unknown task")
	ErrInvalidPayload    = errors.New("job: invalid payload")
	ErrInvalidSchedule   = errors.New("job: invalid schedule")
	ErrAlreadyStarted    = errors.New("job: already started")
	ErrNotStarted        = errors.New("job: not started")
	ErrPoolRequired      = errors.New("job: pool is required")
	ErrHealthcheckFailed = errors.New("job: healthcheck failed")
	ErrMigrationFailed   = errors.New("job: migration failed")
)
