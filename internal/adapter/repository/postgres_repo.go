package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contribution-scout/internal/common"
	"contribution-scout/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// PostgresRepo implements port.Store.
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepo connects and migrates the schema.
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "connect database", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return &PostgresRepo{db: db}, nil
}

// Migrate creates or updates every table. Recommendations written before
// (user_id, rank) became unique are collapsed to the newest row per key
// first, otherwise the unique index cannot be built.
func Migrate(db *gorm.DB) error {
	if db.Migrator().HasTable(&domain.Recommendation{}) {
		if err := dedupeRecommendations(db); err != nil {
			return err
		}
	}

	err := db.AutoMigrate(
		&domain.SurveyAnswers{},
		&domain.RepositoryProfile{},
		&domain.Recommendation{},
		&domain.ClientSession{},
	)
	if err != nil {
		return common.WrapError(common.ErrCodeDatabase, "migrate schema", err)
	}
	return nil
}

func dedupeRecommendations(db *gorm.DB) error {
	err := db.Exec(`DELETE FROM recommendations a USING recommendations b
		WHERE a.user_id = b.user_id AND a.rank = b.rank AND a.id < b.id`).Error
	if err != nil {
		return common.WrapError(common.ErrCodeDatabase, "dedupe recommendations", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dbErr(op string, err error) error {
	return common.WrapError(common.ErrCodeDatabase, op, err)
}

// CreateEmptySurvey stores the placeholder row for a freshly issued user id.
func (r *PostgresRepo) CreateEmptySurvey(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Create(domain.NewEmptySurvey(userID)).Error; err != nil {
		return dbErr("create empty survey", err)
	}
	return nil
}

// UpsertSurvey inserts or fully replaces a user's answers.
func (r *PostgresRepo) UpsertSurvey(ctx context.Context, answers *domain.SurveyAnswers) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(answers).Error
	if err != nil {
		return dbErr(fmt.Sprintf("upsert survey %s", answers.UserID), err)
	}
	return nil
}

func (r *PostgresRepo) GetSurvey(ctx context.Context, userID string) (*domain.SurveyAnswers, error) {
	var s domain.SurveyAnswers
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr("get survey", err)
	}
	return &s, nil
}

// UpsertRepositoryProfiles writes all profiles in one statement keyed by
// (user_id, repo_url). Rows sharing a repo_url collapse to the last one, since
// one ON CONFLICT statement may not touch the same row twice.
func (r *PostgresRepo) UpsertRepositoryProfiles(ctx context.Context, userID string, profiles []domain.RepositoryProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	rows := make([]domain.RepositoryProfile, 0, len(profiles))
	index := make(map[string]int, len(profiles))
	for _, p := range profiles {
		p.ID = 0
		p.UserID = userID
		if i, ok := index[p.RepoURL]; ok {
			rows[i] = p
			continue
		}
		index[p.RepoURL] = len(rows)
		rows = append(rows, p)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "repo_url"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return dbErr("upsert repository profiles", err)
	}
	return nil
}

func (r *PostgresRepo) ListRepositoryProfiles(ctx context.Context, userID string) ([]domain.RepositoryProfile, error) {
	var profiles []domain.RepositoryProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&profiles).Error
	if err != nil {
		return nil, dbErr("list repository profiles", err)
	}
	return profiles, nil
}

// UpsertRecommendations writes all recommendations in one statement keyed by
// (user_id, rank), so a regeneration replaces the previous slots.
func (r *PostgresRepo) UpsertRecommendations(ctx context.Context, userID string, recs []domain.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]domain.Recommendation, len(recs))
	for i, rec := range recs {
		rec.ID = 0
		rec.UserID = userID
		rows[i] = rec
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "rank"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return dbErr("upsert recommendations", err)
	}
	return nil
}

func (r *PostgresRepo) GetRecommendationByRank(ctx context.Context, userID string, rank int) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	err := r.db.WithContext(ctx).Where("user_id = ? AND rank = ?", userID, rank).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr("get recommendation", err)
	}
	return &rec, nil
}

func (r *PostgresRepo) ListRecommendations(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	var recs []domain.Recommendation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("rank").
		Find(&recs).Error
	if err != nil {
		return nil, dbErr("list recommendations", err)
	}
	return recs, nil
}

func (r *PostgresRepo) SaveSession(ctx context.Context, s *domain.ClientSession) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		UpdateAll: true,
	}).Create(s).Error
	if err != nil {
		return dbErr("save session", err)
	}
	return nil
}

func (r *PostgresRepo) FindSession(ctx context.Context, clientID string) (*domain.ClientSession, error) {
	var s domain.ClientSession
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr("find session", err)
	}
	return &s, nil
}

// DeleteExpiredSessions removes sessions that expired before now and returns
// how many were removed.
func (r *PostgresRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now.UnixMilli()).
		Delete(&domain.ClientSession{})
	if res.Error != nil {
		return 0, dbErr("delete expired sessions", res.Error)
	}
	return res.RowsAffected, nil
}
