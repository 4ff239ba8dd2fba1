package medication

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// -- Catalog --

type catalogRepoPG struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepoPG{pool: pool}
}

const medicationCols = `id, name, generic_name, form, strength, unit, description, created_at, updated_at`

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.Name, &m.GenericName, &m.Form, &m.Strength, &m.Unit,
		&m.Description, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *catalogRepoPG) Create(ctx context.Context, m *Medication) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO medication (id, name, generic_name, form, strength, unit, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.Name, m.GenericName, m.Form, m.Strength, m.Unit, m.Description,
	)
	return err
}

func (r *catalogRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return scanMedication(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+medicationCols+` FROM medication WHERE id = $1`, id))
}

func (r *catalogRepoPG) Update(ctx context.Context, m *Medication) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE medication SET
			name=$2, generic_name=$3, form=$4, strength=$5, unit=$6, description=$7, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.GenericName, m.Form, m.Strength, m.Unit, m.Description,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM medication WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepoPG) List(ctx context.Context, search string, limit, offset int) ([]*Medication, int, error) {
	where := ``
	args := []interface{}{}
	if search != "" {
		where = ` WHERE name ILIKE $1 OR generic_name ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM medication`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+medicationCols+` FROM medication`+where+
		` ORDER BY name ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var meds []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, 0, err
		}
		meds = append(meds, m)
	}
	return meds, total, rows.Err()
}

// -- Assignments --

type assignmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

const assignmentCols = `pm.id, pm.patient_id, pm.medication_id, pm.dosage, pm.frequency,
	pm.schedule_times, pm.start_date, pm.end_date, pm.instructions, pm.is_active,
	pm.created_at, pm.updated_at, m.name, m.strength`

const assignmentFrom = ` FROM patient_medication pm JOIN medication m ON m.id = pm.medication_id `

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.PatientID, &a.MedicationID, &a.Dosage, &a.Frequency,
		&a.ScheduleTimes, &a.StartDate, &a.EndDate, &a.Instructions, &a.Active,
		&a.CreatedAt, &a.UpdatedAt, &a.MedicationName, &a.Strength)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patient_medication (
			id, patient_id, medication_id, dosage, frequency, schedule_times,
			start_date, end_date, instructions, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.PatientID, a.MedicationID, a.Dosage, a.Frequency, a.ScheduleTimes,
		a.StartDate, a.EndDate, a.Instructions, a.Active,
	)
	return err
}

func (r *assignmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return scanAssignment(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+assignmentCols+assignmentFrom+`WHERE pm.id = $1`, id))
}

func (r *assignmentRepoPG) Update(ctx context.Context, a *Assignment) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE patient_medication SET
			dosage=$2, frequency=$3, schedule_times=$4, start_date=$5, end_date=$6,
			instructions=$7, is_active=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Dosage, a.Frequency, a.ScheduleTimes, a.StartDate, a.EndDate,
		a.Instructions, a.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *assignmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*Assignment, error) {
	query := `SELECT ` + assignmentCols + assignmentFrom + `WHERE pm.patient_id = $1`
	if activeOnly {
		query += ` AND pm.is_active`
	}
	query += ` ORDER BY pm.created_at DESC`

	rows, err := conn(ctx, r.pool).Query(ctx, query, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// -- Reminders --

type reminderRepoPG struct {
	pool *pgxpool.Pool
}

func NewReminderRepo(pool *pgxpool.Pool) ReminderRepository {
	return &reminderRepoPG{pool: pool}
}

const reminderCols = `id, patient_medication_id, remind_at, channel, enabled, last_sent_at, created_at`

func scanReminder(row pgx.Row) (*Reminder, error) {
	var rm Reminder
	err := row.Scan(&rm.ID, &rm.AssignmentID, &rm.RemindAt, &rm.Channel, &rm.Enabled,
		&rm.LastSentAt, &rm.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *reminderRepoPG) Create(ctx context.Context, rm *Reminder) error {
	if rm.ID == uuid.Nil {
		rm.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO reminder (id, patient_medication_id, remind_at, channel, enabled)
		VALUES ($1,$2,$3,$4,$5)`,
		rm.ID, rm.AssignmentID, rm.RemindAt, rm.Channel, rm.Enabled,
	)
	return err
}

func (r *reminderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	return scanReminder(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+reminderCols+` FROM reminder WHERE id = $1`, id))
}

func (r *reminderRepoPG) Update(ctx context.Context, rm *Reminder) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE reminder SET remind_at=$2, channel=$3, enabled=$4 WHERE id = $1`,
		rm.ID, rm.RemindAt, rm.Channel, rm.Enabled,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reminderRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM reminder WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reminderRepoPG) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*Reminder, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+reminderCols+` FROM reminder WHERE patient_medication_id = $1 ORDER BY remind_at ASC`,
		assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		rm, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rm)
	}
	return reminders, rows.Err()
}

func (r *reminderRepoPG) Due(ctx context.Context, minute string) ([]*DueReminder, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT r.id, r.patient_medication_id, r.remind_at, r.channel, r.enabled,
			r.last_sent_at, r.created_at,
			p.id, u.id, u.full_name, u.email, u.phone, m.name, pm.dosage
		FROM reminder r
		JOIN patient_medication pm ON pm.id = r.patient_medication_id AND pm.is_active
		JOIN medication m ON m.id = pm.medication_id
		JOIN patient_profile p ON p.id = pm.patient_id
		JOIN users u ON u.id = p.user_id
		WHERE r.enabled
			AND r.remind_at = $1
			AND (r.last_sent_at IS NULL OR r.last_sent_at < date_trunc('day', NOW() AT TIME ZONE 'UTC'))`,
		minute)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []*DueReminder
	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(&d.ID, &d.AssignmentID, &d.RemindAt, &d.Channel, &d.Enabled,
			&d.LastSentAt, &d.CreatedAt,
			&d.PatientID, &d.PatientUserID, &d.PatientName, &d.Email, &d.Phone,
			&d.MedicationName, &d.Dosage); err != nil {
			return nil, err
		}
		due = append(due, &d)
	}
	return due, rows.Err()
}

func (r *reminderRepoPG) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE reminder SET last_sent_at = $2 WHERE id = $1`, id, at)
	return err
}
