package referral

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	sqlStateUniqueViolation = "23505"

	codeLength = 10

	// Codes are immutable once issued, so cached owner lookups never go
	// stale. The TTL only bounds memory.
	cacheTTL = time.Hour
)

// CodeRepository stores course-scoped referral codes and resolves code strings
// to their owners. Lookups go through Redis when a client is configured.
type CodeRepository struct {
	db    *sqlx.DB
	cache *redis.Client
}

func NewCodeRepository(db *sqlx.DB, cache *redis.Client) *CodeRepository {
	return &CodeRepository{db: db, cache: cache}
}

func generateCourseCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, codeLength)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}

// EnsureCourseCode returns the (user, course) code, creating it on first
// request. The mapping is immutable once created.
func (r *CodeRepository) EnsureCourseCode(ctx context.Context, userID, courseID uuid.UUID) (*CourseCode, error) {
	existing, err := r.getByUserAndCourse(ctx, userID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	for attempt := 0; attempt < 5; attempt++ {
		cc := &CourseCode{
			ID:       uuid.New(),
			UserID:   userID,
			CourseID: courseID,
			Code:     generateCourseCode(),
		}
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO course_referral_codes (id, user_id, course_id, code, created_at)
			VALUES ($1, $2, $3, $4, now())
		`, cc.ID, cc.UserID, cc.CourseID, cc.Code)
		if err == nil {
			return r.getByUserAndCourse(ctx, userID, courseID)
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == sqlStateUniqueViolation {
			if pqErr.Constraint == "course_referral_codes_user_course_key" {
				// Concurrent first request won the race; return its row.
				return r.getByUserAndCourse(ctx, userID, courseID)
			}
			// Code string collision: regenerate and retry.
			continue
		}
		return nil, err
	}
	return nil, err
}

func (r *CodeRepository) getByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*CourseCode, error) {
	var cc CourseCode
	err := r.db.GetContext(ctx, &cc, `
		SELECT id, user_id, course_id, code, created_at
		FROM course_referral_codes
		WHERE user_id = $1 AND course_id = $2
	`, userID, courseID)
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r *CodeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]CourseCode, error) {
	rows := []CourseCode{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, course_id, code, created_at
		FROM course_referral_codes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return rows, err
}

// FindCourseCode resolves a code scoped to the given course.
func (r *CodeRepository) FindCourseCode(ctx context.Context, code string, courseID uuid.UUID) (uuid.UUID, bool, error) {
	cacheKey := "refcode:course:" + courseID.String() + ":" + code

	if owner, ok := r.cachedOwner(ctx, cacheKey); ok {
		return owner, true, nil
	}

	var ownerID uuid.UUID
	err := r.db.GetContext(ctx, &ownerID, `
		SELECT user_id FROM course_referral_codes
		WHERE code = $1 AND course_id = $2
	`, code, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	r.cacheOwner(ctx, cacheKey, ownerID)
	return ownerID, true, nil
}

// FindGeneralCode resolves a user's general referral code, valid for any course.
func (r *CodeRepository) FindGeneralCode(ctx context.Context, code string) (uuid.UUID, bool, error) {
	cacheKey := "refcode:general:" + code

	if owner, ok := r.cachedOwner(ctx, cacheKey); ok {
		return owner, true, nil
	}

	var ownerID uuid.UUID
	err := r.db.GetContext(ctx, &ownerID, `
		SELECT id FROM users WHERE referral_code = $1
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	r.cacheOwner(ctx, cacheKey, ownerID)
	return ownerID, true, nil
}

func (r *CodeRepository) cachedOwner(ctx context.Context, key string) (uuid.UUID, bool) {
	if r.cache == nil {
		return uuid.Nil, false
	}

	val, err := r.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("referral code cache read failed")
		}
		return uuid.Nil, false
	}

	owner, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false
	}
	return owner, true
}

func (r *CodeRepository) cacheOwner(ctx context.Context, key string, ownerID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, ownerID.String(), cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("referral code cache write failed")
	}
}
