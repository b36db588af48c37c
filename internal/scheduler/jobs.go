package scheduler

// JobTypeMigrationRun identifies the recurring APPLY run.
const JobTypeMigrationRun = "faqmigrate.run.scheduled"

// MigrationRunJobKey is the unique key of the recurring run job. At most one
// pending migration job exists at a time.
const MigrationRunJobKey = "faqmigrate:run"

// Payload keys attached to migration run jobs.
const (
	PayloadInterval = "interval"
	PayloadSource   = "source"
)
