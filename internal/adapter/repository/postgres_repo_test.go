package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"contribution-scout/internal/common"
	"contribution-scout/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB opens gorm over sqlmock with logging silenced.
func setupMockDB(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	cleanup := func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}

	return &PostgresRepo{db: gormDB}, mock, cleanup
}

func sqlPattern(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = regexp.QuoteMeta(p)
	}
	out := quoted[0]
	for _, q := range quoted[1:] {
		out += ".*" + q
	}
	return out
}

func TestPostgresRepo_CreateEmptySurvey(t *testing.T) {
	repo, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(sqlPattern(`INSERT INTO "survey_answers"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateEmptySurvey(context.Background(), "u-1"))
}

func TestPostgresRepo_UpsertSurvey(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "insert or update on user id",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(sqlPattern(`INSERT INTO "survey_answers"`, `ON CONFLICT ("user_id") DO UPDATE SET`)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(sqlPattern(`INSERT INTO "survey_answers"`)).
					WillReturnError(errors.New("connection refused"))
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupMockDB(t)
			defer cleanup()
			tt.setupMock(mock)

			answers := domain.NewEmptySurvey("u-1")
			answers.Reason = "learn"
			answers.PublicRepos = pq.StringArray{"https://github.com/octo/site"}
			err := repo.UpsertSurvey(context.Background(), answers)

			if tt.expectError {
				assert.True(t, common.HasCode(err, common.ErrCodeDatabase))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostgresRepo_GetSurvey(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, cleanup := setupMockDB(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"user_id", "reason", "public_repos", "repo_types", "num_of_experience"}).
			AddRow("u-1", "learn", "{https://github.com/octo/site}", "{web}", 2)
		mock.ExpectQuery(sqlPattern(`SELECT * FROM "survey_answers" WHERE user_id = $1`)).
			WillReturnRows(rows)

		s, err := repo.GetSurvey(context.Background(), "u-1")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "learn", s.Reason)
		assert.Equal(t, pq.StringArray{"https://github.com/octo/site"}, s.PublicRepos)
		assert.Equal(t, 2, s.NumOfExperience)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(sqlPattern(`SELECT * FROM "survey_answers"`)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

		s, err := repo.GetSurvey(context.Background(), "missing")
		assert.NoError(t, err)
		assert.Nil(t, s)
	})
}

func TestPostgresRepo_UpsertRepositoryProfiles(t *testing.T) {
	repo, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern(`INSERT INTO "repository_profiles"`, `ON CONFLICT ("user_id","repo_url") DO UPDATE SET`, `RETURNING "id"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	profiles := []domain.RepositoryProfile{
		domain.NewFallbackProfile("https://github.com/a/one", "web", "Failed to analyze with Gemini", "quota", ""),
		{
			RepoURL:           "https://github.com/a/two",
			DevDirection:      "CLI",
			Languages:         datatypes.JSONSlice[domain.SkillEntry]{{Name: "Go", Skill: domain.Advanced}},
			OverallSkillLevel: domain.Advanced,
		},
	}
	require.NoError(t, repo.UpsertRepositoryProfiles(context.Background(), "u-1", profiles))

	// caller's slice is untouched
	assert.Empty(t, profiles[0].UserID)
}

func TestPostgresRepo_UpsertRepositoryProfilesCollapsesRepeatedURL(t *testing.T) {
	repo, mock, cleanup := setupMockDB(t)
	defer cleanup()

	var written []domain.RepositoryProfile
	require.NoError(t, repo.db.Callback().Create().Before("gorm:create").Register("capture_rows", func(tx *gorm.DB) {
		if rows, ok := tx.Statement.Dest.(*[]domain.RepositoryProfile); ok {
			written = append(written, (*rows)...)
		}
	}))

	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern(`INSERT INTO "repository_profiles"`, `ON CONFLICT ("user_id","repo_url") DO UPDATE SET`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	first := domain.NewFallbackProfile("https://github.com/a/one", "web", "Failed to analyze with Gemini", "quota", "")
	other := domain.RepositoryProfile{RepoURL: "https://github.com/a/two", OverallSkillLevel: domain.Beginner}
	last := domain.RepositoryProfile{RepoURL: "https://github.com/a/one", RepoType: "web", OverallSkillLevel: domain.Advanced}

	require.NoError(t, repo.UpsertRepositoryProfiles(context.Background(), "u-1", []domain.RepositoryProfile{first, other, last}))

	require.Len(t, written, 2)
	assert.Equal(t, "https://github.com/a/one", written[0].RepoURL)
	assert.Equal(t, domain.Advanced, written[0].OverallSkillLevel)
	assert.Empty(t, written[0].Error)
	assert.Equal(t, "https://github.com/a/two", written[1].RepoURL)
	assert.Equal(t, "u-1", written[1].UserID)
}

func TestPostgresRepo_UpsertRepositoryProfilesEmpty(t *testing.T) {
	repo, _, cleanup := setupMockDB(t)
	defer cleanup()

	assert.NoError(t, repo.UpsertRepositoryProfiles(context.Background(), "u-1", nil))
}

func TestPostgresRepo_ListRepositoryProfiles(t *testing.T) {
	repo, mock, cleanup := setupMockDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "user_id", "repo_url", "dev_direction", "languages", "habits", "overall_skill_level"}).
		AddRow(1, "u-1", "https://github.com/a/one", "CLI", `[{"name":"Go","skill":"Advanced"}]`, `{"strengths":["tests"],"improvements":[]}`, "Advanced")
	mock.ExpectQuery(sqlPattern(`SELECT * FROM "repository_profiles" WHERE user_id = $1 ORDER BY id`)).
		WillReturnRows(rows)

	profiles, err := repo.ListRepositoryProfiles(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, domain.Advanced, profiles[0].OverallSkillLevel)
	require.Len(t, profiles[0].Languages, 1)
	assert.Equal(t, "Go", profiles[0].Languages[0].Name)
	assert.Equal(t, []string{"tests"}, profiles[0].Habits.Data().Strengths)
}

func TestPostgresRepo_UpsertRecommendations(t *testing.T) {
	repo, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern(`INSERT INTO "recommendations"`, `ON CONFLICT ("user_id","rank") DO UPDATE SET`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	recs := []domain.Recommendation{{
		Rank:                   1,
		RepoName:               "cobra",
		RepoURL:                "https://github.com/spf13/cobra",
		Difficulty:             domain.Beginner,
		LanguagesFrameworks:    pq.StringArray{"Go"},
		ContributionDirections: datatypes.JSONSlice[domain.ContributionDirection]{{Number: 1, Title: "docs"}},
	}}
	require.NoError(t, repo.UpsertRecommendations(context.Background(), "u-1", recs))
}

func TestPostgresRepo_GetRecommendationByRank(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, cleanup := setupMockDB(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "user_id", "rank", "repo_name", "difficulty", "contribution_directions"}).
			AddRow(3, "u-1", 2, "cobra", "Beginner", `[{"number":1,"title":"docs","description":""}]`)
		mock.ExpectQuery(sqlPattern(`SELECT * FROM "recommendations" WHERE user_id = $1 AND rank = $2`)).
			WillReturnRows(rows)

		rec, err := repo.GetRecommendationByRank(context.Background(), "u-1", 2)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "cobra", rec.RepoName)
		assert.Equal(t, 2, rec.Rank)
		assert.Equal(t, "docs", rec.ContributionDirections[0].Title)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(sqlPattern(`SELECT * FROM "recommendations"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		rec, err := repo.GetRecommendationByRank(context.Background(), "u-1", 4)
		assert.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(sqlPattern(`SELECT * FROM "recommendations"`)).
			WillReturnError(errors.New("timeout"))

		_, err := repo.GetRecommendationByRank(context.Background(), "u-1", 4)
		assert.True(t, common.HasCode(err, common.ErrCodeDatabase))
	})
}

func TestPostgresRepo_ListRecommendations(t *testing.T) {
	repo, mock, cleanup := setupMockDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "user_id", "rank", "repo_name"}).
		AddRow(1, "u-1", 1, "a").
		AddRow(2, "u-1", 2, "b")
	mock.ExpectQuery(sqlPattern(`SELECT * FROM "recommendations" WHERE user_id = $1 ORDER BY rank`)).
		WillReturnRows(rows)

	recs, err := repo.ListRecommendations(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[1].RepoName)
}

func TestPostgresRepo_Sessions(t *testing.T) {
	t.Run("save", func(t *testing.T) {
		repo, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(sqlPattern(`INSERT INTO "client_sessions"`, `ON CONFLICT ("client_id") DO UPDATE SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SaveSession(context.Background(), &domain.ClientSession{ClientID: "c-1", ExpiresAt: 42})
		assert.NoError(t, err)
	})

	t.Run("find", func(t *testing.T) {
		repo, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(sqlPattern(`SELECT * FROM "client_sessions" WHERE client_id = $1`)).
			WillReturnRows(sqlmock.NewRows([]string{"client_id", "expires_at"}).AddRow("c-1", int64(42)))

		s, err := repo.FindSession(context.Background(), "c-1")
		require.NoError(t, err)
		assert.Equal(t, &domain.ClientSession{ClientID: "c-1", ExpiresAt: 42}, s)
	})

	t.Run("delete expired", func(t *testing.T) {
		repo, mock, cleanup := setupMockDB(t)
		defer cleanup()

		now := time.UnixMilli(1_000_000)
		mock.ExpectBegin()
		mock.ExpectExec(sqlPattern(`DELETE FROM "client_sessions" WHERE expires_at < $1`)).
			WithArgs(int64(1_000_000)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		n, err := repo.DeleteExpiredSessions(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
}

func TestDedupeRecommendations(t *testing.T) {
	repo, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectExec(sqlPattern(`DELETE FROM recommendations a USING recommendations b`, `a.id < b.id`)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	assert.NoError(t, dedupeRecommendations(repo.db))
}
