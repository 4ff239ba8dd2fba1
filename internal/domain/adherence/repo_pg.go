package adherence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meditrack/meditrack/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// -- Log repository --

type logRepoPG struct {
	pool *pgxpool.Pool
}

func NewLogRepo(pool *pgxpool.Pool) LogRepository {
	return &logRepoPG{pool: pool}
}

const logCols = `l.id, l.patient_medication_id, l.patient_id, l.scheduled_time, l.scheduled_date,
	l.status, l.actual_time, l.on_time, l.minutes_late, l.notes, l.skipped_reason,
	l.logged_via, l.created_at, l.updated_at, m.name, pm.dosage`

const logFrom = ` FROM medication_log l
	JOIN patient_medication pm ON pm.id = l.patient_medication_id
	JOIN medication m ON m.id = pm.medication_id `

func scanLog(row pgx.Row) (*MedicationLog, error) {
	var l MedicationLog
	err := row.Scan(&l.ID, &l.PatientMedicationID, &l.PatientID, &l.ScheduledTime, &l.ScheduledDate,
		&l.Status, &l.ActualTime, &l.OnTime, &l.MinutesLate, &l.Notes, &l.SkippedReason,
		&l.LoggedVia, &l.CreatedAt, &l.UpdatedAt, &l.MedicationName, &l.Dosage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *logRepoPG) Create(ctx context.Context, l *MedicationLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO medication_log (
			id, patient_medication_id, patient_id, scheduled_time, scheduled_date,
			status, actual_time, on_time, minutes_late, notes, skipped_reason, logged_via
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		l.ID, l.PatientMedicationID, l.PatientID, l.ScheduledTime, l.ScheduledDate,
		l.Status, l.ActualTime, l.OnTime, l.MinutesLate, l.Notes, l.SkippedReason, l.LoggedVia,
	)
	return err
}

func (r *logRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicationLog, error) {
	return scanLog(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+logCols+logFrom+`WHERE l.id = $1`, id))
}

func (r *logRepoPG) Update(ctx context.Context, l *MedicationLog) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE medication_log SET
			status=$2, actual_time=$3, on_time=$4, minutes_late=$5,
			notes=$6, skipped_reason=$7, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.Status, l.ActualTime, l.OnTime, l.MinutesLate, l.Notes, l.SkippedReason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *logRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM medication_log WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *logRepoPG) Query(ctx context.Context, f LogFilter) ([]*MedicationLog, int, error) {
	where := []string{`l.patient_id = $1`}
	args := []interface{}{f.PatientID}

	add := func(cond string, val interface{}) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.PatientMedicationID != nil {
		add(`l.patient_medication_id = $%d`, *f.PatientMedicationID)
	}
	if f.Status != nil {
		add(`l.status = $%d`, *f.Status)
	}
	if f.Start != nil {
		add(`l.scheduled_time >= $%d`, *f.Start)
	}
	if f.End != nil {
		add(`l.scheduled_time < $%d`, *f.End)
	}
	whereSQL := ` WHERE ` + strings.Join(where, ` AND `)

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM medication_log l`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + logCols + logFrom + whereSQL + ` ORDER BY l.scheduled_time DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []*MedicationLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

// -- Assignment info --

type assignmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) Get(ctx context.Context, id uuid.UUID) (*AssignmentInfo, error) {
	var a AssignmentInfo
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT pm.id, pm.patient_id, pm.is_active, m.name, pm.dosage
		FROM patient_medication pm
		JOIN medication m ON m.id = pm.medication_id
		WHERE pm.id = $1`, id).
		Scan(&a.ID, &a.PatientID, &a.Active, &a.MedicationName, &a.Dosage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
