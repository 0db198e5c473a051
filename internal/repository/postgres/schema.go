package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Name of the partial unique index guarding project names per owner.
// Referenced when translating unique violations on project writes.
func projectNameIndex(prefix string) string {
	return "idx_" + prefix + "projects_owner_name"
}

// RunSchema creates tables and indexes if they don't exist
func RunSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			avatar_url TEXT,
			job_title TEXT,
			role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('admin', 'member')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Projects + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL REFERENCES ` + tables.Users + `(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'on_hold', 'completed', 'archived')),
			start_date TIMESTAMPTZ,
			due_date TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ,
			CHECK (start_date IS NULL OR due_date IS NULL OR due_date >= start_date)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.ProjectMembers + ` (
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL CHECK (role IN ('owner', 'manager', 'member', 'viewer')),
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (project_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Tasks + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in_progress', 'review', 'done')),
			priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
			assignee_id UUID REFERENCES ` + tables.Users + `(id) ON DELETE SET NULL,
			created_by UUID NOT NULL REFERENCES ` + tables.Users + `(id),
			due_date TIMESTAMPTZ,
			position INTEGER NOT NULL DEFAULT 0,
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.TaskDependencies + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			task_id UUID NOT NULL REFERENCES ` + tables.Tasks + `(id) ON DELETE CASCADE,
			depends_on_id UUID NOT NULL REFERENCES ` + tables.Tasks + `(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (task_id, depends_on_id),
			CHECK (task_id <> depends_on_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Messages + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			sender_id UUID NOT NULL REFERENCES ` + tables.Users + `(id),
			content TEXT NOT NULL CHECK (char_length(content) BETWEEN 1 AND 4000),
			edited_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Notifications + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			resource_type TEXT NOT NULL DEFAULT '',
			resource_id TEXT NOT NULL DEFAULT '',
			project_id UUID REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			read_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.PersonalTodos + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			due_date TIMESTAMPTZ,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMPTZ,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Suggestions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			author_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			project_id UUID REFERENCES ` + tables.Projects + `(id) ON DELETE SET NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'other' CHECK (category IN ('feature', 'bug', 'process', 'other')),
			status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'under_review', 'accepted', 'rejected', 'implemented')),
			reviewer_id UUID REFERENCES ` + tables.Users + `(id) ON DELETE SET NULL,
			review_note TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.SuggestionVotes + ` (
			suggestion_id UUID NOT NULL REFERENCES ` + tables.Suggestions + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (suggestion_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Meetings + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			organizer_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			starts_at TIMESTAMPTZ NOT NULL,
			ends_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'cancelled')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (ends_at > starts_at)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.MeetingParticipants + ` (
			meeting_id UUID NOT NULL REFERENCES ` + tables.Meetings + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			response TEXT NOT NULL DEFAULT 'pending' CHECK (response IN ('pending', 'accepted', 'declined')),
			PRIMARY KEY (meeting_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.UserPreferences + ` (
			user_id UUID PRIMARY KEY REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			preferences JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + projectNameIndex(tablePrefix) + ` ON ` + tables.Projects + `(owner_id, name) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `members_user ON ` + tables.ProjectMembers + `(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `tasks_project_column ON ` + tables.Tasks + `(project_id, status, position)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `tasks_assignee ON ` + tables.Tasks + `(assignee_id) WHERE assignee_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `task_deps_project ON ` + tables.TaskDependencies + `(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `messages_project_created ON ` + tables.Messages + `(project_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `notifications_user_created ON ` + tables.Notifications + `(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `notifications_unread ON ` + tables.Notifications + `(user_id) WHERE read_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `todos_user_position ON ` + tables.PersonalTodos + `(user_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `meetings_starts ON ` + tables.Meetings + `(starts_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `meeting_participants_user ON ` + tables.MeetingParticipants + `(user_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// DropAllTables drops all tables in reverse dependency order
func DropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) ([]string, error) {
	all := tables.All()
	dropped := make([]string, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+all[i]+" CASCADE"); err != nil {
			return dropped, fmt.Errorf("drop %s: %w", all[i], err)
		}
		dropped = append(dropped, all[i])
	}
	return dropped, nil
}

// ClearData empties every table, keeping the schema
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	stmt := "TRUNCATE "
	for i, t := range tables.All() {
		if i > 0 {
			stmt += ", "
		}
		stmt += t
	}
	if _, err := pool.Exec(ctx, stmt+" CASCADE"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
