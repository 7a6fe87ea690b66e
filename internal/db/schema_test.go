package db

import (
	"strings"
	"testing"

	"github.com/justestif/go-spotify-auto-cleaner/internal/cleaner"
)

func TestSchemaAcceptsAuditKinds(t *testing.T) {
	for _, kind := range []string{cleaner.AuditCleaner, cleaner.AuditTimeMachine} {
		if !strings.Contains(Schema, "'"+kind+"'") {
			t.Errorf("generated_playlists type check does not allow %q", kind)
		}
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Errorf("statement is not idempotent:\n%s", stmt)
		}
	}
}
