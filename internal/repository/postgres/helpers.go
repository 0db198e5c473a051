package postgres

import (
	"context"
	"fmt"
	"strings"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards in user-supplied search text
func escapeLike(s string) string {
	return likeEscaper.Replace(strings.TrimSpace(s))
}

// prefixColumns qualifies a comma-separated column list with a table alias
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

// summaryFromJoin builds a UserSummary from LEFT JOINed columns; nil when the join missed
func summaryFromJoin(id, name, email *string, avatar *string) *models.UserSummary {
	if id == nil {
		return nil
	}
	s := &models.UserSummary{ID: *id, AvatarURL: avatar}
	if name != nil {
		s.FullName = *name
	}
	if email != nil {
		s.Email = *email
	}
	return s
}

// advisoryXactLock takes a transaction-scoped advisory lock named by key.
// Outside a transaction it is released as soon as the statement ends.
func advisoryXactLock(ctx context.Context, executor repositories.DBTX, key string) error {
	if _, err := executor.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
		return fmt.Errorf("advisory lock %s: %w", key, err)
	}
	return nil
}
