package specification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRun builds SQL without a live database.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost"}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Skipf("postgres dialector unavailable: %v", err)
	}
	return db
}

func TestSpecifications_SQL(t *testing.T) {
	db := dryRun(t)
	id := uuid.MustParse("2f1b7c8e-0000-4000-8000-000000000001")

	tests := []struct {
		name  string
		specs []Specification
		want  []string
	}{
		{"by session", []Specification{BySessionID{SessionID: id}}, []string{"session_id = $1"}},
		{"by candidate", []Specification{ByCandidateID{CandidateID: "alice"}}, []string{"candidate_id = $1"}},
		{"ended ordered", []Specification{EndedOnly{}, OrderBy{Field: "created_at", Desc: true}}, []string{"ended_at IS NOT NULL", "ORDER BY created_at DESC"}},
		{"paged", []Specification{Pagination{Limit: 10, Offset: 20}}, []string{"LIMIT ", "OFFSET "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := db.Table("interview_interactions")
			for _, s := range tt.specs {
				q = s.Apply(q)
			}
			stmt := q.Find(&[]map[string]interface{}{}).Statement
			sql := stmt.SQL.String()
			for _, want := range tt.want {
				assert.Contains(t, sql, want)
			}
		})
	}
}
