package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradebid/tradebid/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, account_type, first_name, last_name, tel, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.AccountType,
		user.FirstName, user.LastName, user.Tel, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, account_type, first_name, last_name, tel, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AccountType,
		&u.FirstName, &u.LastName, &u.Tel, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email = $2, first_name = $3, last_name = $4, tel = $5, updated_at = $6
		 WHERE id = $1`,
		user.ID, user.Email, user.FirstName, user.LastName, user.Tel, user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

// --- Jobs ---

const jobColumns = `id, name, description, service_name, type, address, longitude, latitude,
	duration, start_date, end_date, price, owner_id, status, selected_bid, version, created_at, updated_at`

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		job.ID, job.Name, job.Description, job.ServiceName, job.Type,
		job.Location.Address, job.Location.Longitude, job.Location.Latitude,
		job.Duration, job.StartDate, job.EndDate, job.Price, job.OwnerID,
		job.Status, job.SelectedBid, job.Version, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.Name, &j.Description, &j.ServiceName, &j.Type,
		&j.Location.Address, &j.Location.Longitude, &j.Location.Latitude,
		&j.Duration, &j.StartDate, &j.EndDate, &j.Price, &j.OwnerID,
		&j.Status, &j.SelectedBid, &j.Version, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	applicants, err := s.loadApplicants(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	job.Applicants = applicants[id]
	if job.Applicants == nil {
		job.Applicants = []models.Bid{}
	}
	return job, nil
}

// SaveJob persists the whole aggregate in one transaction. The job row
// update is guarded by the version the aggregate was loaded at; a zero
// row count against an existing job means a concurrent writer won.
// Applicant rows are upserted, never deleted: bid history is retained
// through status.
func (s *PostgresStore) SaveJob(ctx context.Context, job *models.Job) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save job: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE jobs SET name = $2, description = $3, service_name = $4, type = $5,
		   address = $6, longitude = $7, latitude = $8, duration = $9,
		   start_date = $10, end_date = $11, price = $12, status = $13,
		   selected_bid = $14, version = version + 1, updated_at = $15
		 WHERE id = $1 AND version = $16`,
		job.ID, job.Name, job.Description, job.ServiceName, job.Type,
		job.Location.Address, job.Location.Longitude, job.Location.Latitude,
		job.Duration, job.StartDate, job.EndDate, job.Price, job.Status,
		job.SelectedBid, job.UpdatedAt, job.Version)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, job.ID).Scan(&exists); err != nil {
			return fmt.Errorf("save job existence check: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	for i := range job.Applicants {
		b := &job.Applicants[i]
		_, err := tx.Exec(ctx,
			`INSERT INTO job_applicants (job_id, user_id, amount, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (job_id, user_id) DO UPDATE SET
			   amount = EXCLUDED.amount,
			   status = EXCLUDED.status,
			   updated_at = EXCLUDED.updated_at`,
			job.ID, b.UserID, b.Amount, b.Status, b.CreatedAt, b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("save applicant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save job: %w", err)
	}
	job.Version++
	return nil
}

func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.OwnerID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, filter.OwnerID)
		argIdx++
	}
	if filter.BidderID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM job_applicants a WHERE a.job_id = jobs.id AND a.user_id = $%d)", argIdx))
		args = append(args, filter.BidderID)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM jobs WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	orderBy := "created_at DESC"
	if filter.Sort == "price" {
		orderBy = "price ASC, created_at DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT `+jobColumns+` FROM jobs WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, orderBy, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	var ids []uuid.UUID
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
		ids = append(ids, job.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	applicants, err := s.loadApplicants(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, job := range jobs {
		job.Applicants = applicants[job.ID]
		if job.Applicants == nil {
			job.Applicants = []models.Bid{}
		}
	}
	return jobs, total, nil
}

// loadApplicants fetches the bid ledgers for a set of jobs in one
// query, keyed by job. Rows come back in submission order.
func (s *PostgresStore) loadApplicants(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID][]models.Bid, error) {
	out := make(map[uuid.UUID][]models.Bid, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT job_id, user_id, amount, status, created_at, updated_at
		 FROM job_applicants WHERE job_id = ANY($1) ORDER BY created_at, user_id`, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("load applicants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var jobID uuid.UUID
		var b models.Bid
		if err := rows.Scan(&jobID, &b.UserID, &b.Amount, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		out[jobID] = append(out[jobID], b)
	}
	return out, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
