package app

import (
	settingsApp "github.com/qnz18/qzwhatnext/internal/identity/application/settings"
	identityDomain "github.com/qnz18/qzwhatnext/internal/identity/domain"
	identityPersistence "github.com/qnz18/qzwhatnext/internal/identity/infrastructure/persistence"
	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	recurrencePersistence "github.com/qnz18/qzwhatnext/internal/recurrence/infrastructure/persistence"
	schedulingDomain "github.com/qnz18/qzwhatnext/internal/scheduling/domain"
	schedulingPersistence "github.com/qnz18/qzwhatnext/internal/scheduling/infrastructure/persistence"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	taskPersistence "github.com/qnz18/qzwhatnext/internal/tasks/infrastructure/persistence"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/outbox"
)

// RepositoryFactory builds every bounded context's repository against a
// single database.Connection. Every repository in this tree is hand-written
// against database.Executor/database.Connection rather than a generated
// per-driver client, so unlike the factory this replaces, there is no
// driver switch here: SQLite is the only backend this deployment targets
// (see DESIGN.md's scoping note), and a Postgres variant can be added later
// by registering a second branch the same way database.NewConnection does.
type RepositoryFactory struct {
	conn database.Connection
}

// NewRepositoryFactory creates a new repository factory bound to conn.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.conn.Driver()
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}

// TaskRepository builds the Task repository.
func (f *RepositoryFactory) TaskRepository() taskDomain.Repository {
	return taskPersistence.NewSQLiteTaskRepository(f.conn)
}

// ScheduledBlockRepository builds the ScheduledBlock repository.
func (f *RepositoryFactory) ScheduledBlockRepository() schedulingDomain.Repository {
	return schedulingPersistence.NewSQLiteBlockRepository(f.conn)
}

// SeriesRepository builds the RecurringTaskSeries repository.
func (f *RepositoryFactory) SeriesRepository() recurrenceDomain.SeriesRepository {
	return recurrencePersistence.NewSQLiteSeriesRepository(f.conn)
}

// TimeBlockRepository builds the RecurringTimeBlock repository.
func (f *RepositoryFactory) TimeBlockRepository() recurrenceDomain.TimeBlockRepository {
	return recurrencePersistence.NewSQLiteTimeBlockRepository(f.conn)
}

// TokenRepository builds the OAuthToken repository.
func (f *RepositoryFactory) TokenRepository() identityDomain.TokenRepository {
	return identityPersistence.NewSQLiteTokenRepository(f.conn)
}

// UserRepository builds the User repository.
func (f *RepositoryFactory) UserRepository() identityDomain.UserRepository {
	return identityPersistence.NewSQLiteUserRepository(f.conn)
}

// SettingsRepository builds the user settings repository.
func (f *RepositoryFactory) SettingsRepository() settingsApp.Repository {
	return identityPersistence.NewSQLiteSettingsRepository(f.conn)
}

// OutboxRepository builds the domain-event outbox repository.
func (f *RepositoryFactory) OutboxRepository() outbox.Repository {
	return outbox.NewSQLiteRepository(f.conn)
}
