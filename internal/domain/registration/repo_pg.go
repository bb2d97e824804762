package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/intake/internal/platform/hipaa"
)

type recordRepoPG struct {
	pool      *pgxpool.Pool
	encryptor hipaa.FieldEncryptor
}

// NewRecordRepoPG stores records in the patient_registration table. When
// enc is nil the social security number is not persisted at all.
func NewRecordRepoPG(pool *pgxpool.Pool, enc hipaa.FieldEncryptor) RecordRepository {
	return &recordRepoPG{pool: pool, encryptor: enc}
}

const recordCols = `id, status, payload, ssn_encrypted, created_at`

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	reg := rec.Registration.Clone()
	var ssn *string
	if reg.SocialSecurityNumber != "" && r.encryptor != nil {
		enc, err := r.encryptor.Encrypt(reg.SocialSecurityNumber)
		if err != nil {
			return fmt.Errorf("registration create: encrypt ssn: %w", err)
		}
		ssn = &enc
	}
	reg.SocialSecurityNumber = ""

	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("registration create: marshal payload: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO patient_registration (
			id, status, first_name, last_name, email, phone, date_of_birth,
			ssn_encrypted, payload, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.Status, reg.FirstName, reg.LastName, reg.Email, reg.Phone, reg.DateOfBirth,
		ssn, payload, rec.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateRecord
	}
	if err != nil {
		return fmt.Errorf("registration create: %w", err)
	}
	return nil
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := r.scan(r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM patient_registration WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("registration get: %w", err)
	}
	return rec, nil
}

func (r *recordRepoPG) List(ctx context.Context, filter RecordFilter, limit, offset int) ([]*Record, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" && filter.Status != "all" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+term+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR (first_name || ' ' || last_name) ILIKE $%d OR email ILIKE $%d OR id::text ILIKE $%d)",
			n, n, n, n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient_registration`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("registration count: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` FROM patient_registration`+clause+
			fmt.Sprintf(` ORDER BY last_name, first_name, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("registration list: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("registration list: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("registration list: %w", err)
	}
	return records, total, nil
}

func (r *recordRepoPG) scan(row pgx.Row) (*Record, error) {
	var (
		rec     Record
		payload []byte
		ssn     *string
	)
	if err := row.Scan(&rec.ID, &rec.Status, &payload, &ssn, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &rec.Registration); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if ssn != nil && r.encryptor != nil {
		plain, err := r.encryptor.Decrypt(*ssn)
		if err != nil {
			return nil, fmt.Errorf("decrypt ssn: %w", err)
		}
		rec.Registration.SocialSecurityNumber = plain
	}
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
