package siamatlas

// Command is a discrete application operation selected on the command line.
// Parse produces one of the implementations below; Main routes it to the
// matching App method.
type Command interface {
	// Name returns the CLI sub-command this command corresponds to.
	Name() string
}

// RunCommand starts the HTTP server.
type RunCommand struct{}

func (c *RunCommand) Name() string { return "run" }

// MigrateCommand creates or updates the backend schema. For the document
// backend this is a no-op beyond connectivity; for postgres it runs
// AutoMigrate. Safe to run repeatedly.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string { return "migrate" }

// SeedCommand creates the first admin account so a fresh deployment can
// sign in. Subsequent admins arrive through the registration flow.
type SeedCommand struct {
	Username string
	Email    string
	Password string
}

func (c *SeedCommand) Name() string { return "seed" }
