package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) TotalPatients(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient_profile`).Scan(&n)
	return n, err
}

func (r *repoPG) TotalMedications(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medication`).Scan(&n)
	return n, err
}

func (r *repoPG) DosesInRange(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM medication_log
		WHERE scheduled_time >= $1 AND scheduled_time < $2`, start, end).Scan(&n)
	return n, err
}

func (r *repoPG) DailyCounts(ctx context.Context, start, end time.Time, patientID *uuid.UUID) ([]DayCounts, error) {
	query := `
		SELECT scheduled_date,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'taken')
		FROM medication_log
		WHERE scheduled_time >= $1 AND scheduled_time < $2`
	args := []interface{}{start, end}
	if patientID != nil {
		query += ` AND patient_id = $3`
		args = append(args, *patientID)
	}
	query += ` GROUP BY scheduled_date ORDER BY scheduled_date ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayCounts
	for rows.Next() {
		var d DayCounts
		if err := rows.Scan(&d.Day, &d.Scheduled, &d.Taken); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) PatientCounts(ctx context.Context, start, end time.Time) ([]PatientCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, u.full_name,
			(SELECT COUNT(*) FROM patient_medication pm WHERE pm.patient_id = p.id AND pm.is_active),
			COUNT(l.id),
			COUNT(l.id) FILTER (WHERE l.status = 'taken')
		FROM patient_profile p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN medication_log l
			ON l.patient_id = p.id AND l.scheduled_time >= $1 AND l.scheduled_time < $2
		GROUP BY p.id, u.full_name
		ORDER BY u.full_name ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PatientCounts
	for rows.Next() {
		var p PatientCounts
		if err := rows.Scan(&p.PatientID, &p.PatientName, &p.Medications, &p.Scheduled, &p.Taken); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) MedicationCounts(ctx context.Context, start, end time.Time, medicationID *uuid.UUID) ([]MedicationCounts, error) {
	query := `
		SELECT m.id, m.name,
			COUNT(DISTINCT pm.patient_id),
			COUNT(l.id),
			COUNT(l.id) FILTER (WHERE l.status = 'taken')
		FROM medication m
		JOIN patient_medication pm ON pm.medication_id = m.id
		LEFT JOIN medication_log l
			ON l.patient_medication_id = pm.id AND l.scheduled_time >= $1 AND l.scheduled_time < $2`
	args := []interface{}{start, end}
	if medicationID != nil {
		query += ` WHERE m.id = $3`
		args = append(args, *medicationID)
	}
	query += ` GROUP BY m.id, m.name ORDER BY m.name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MedicationCounts
	for rows.Next() {
		var m MedicationCounts
		if err := rows.Scan(&m.MedicationID, &m.MedicationName, &m.Patients, &m.Scheduled, &m.Taken); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repoPG) DemographicRows(ctx context.Context) ([]DemographicRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT date_of_birth, gender FROM patient_profile`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DemographicRow
	for rows.Next() {
		var d DemographicRow
		if err := rows.Scan(&d.DateOfBirth, &d.Gender); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) UsageCounts(ctx context.Context, start, end time.Time) ([]UsageCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.name,
			COUNT(DISTINCT pm.patient_id),
			COUNT(DISTINCT pm.id),
			COUNT(l.id),
			COUNT(l.id) FILTER (WHERE l.status = 'taken')
		FROM medication m
		JOIN patient_medication pm ON pm.medication_id = m.id
		LEFT JOIN medication_log l
			ON l.patient_medication_id = pm.id AND l.scheduled_time >= $1 AND l.scheduled_time < $2
		GROUP BY m.id, m.name
		ORDER BY COUNT(DISTINCT pm.id) DESC, m.name ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageCounts
	for rows.Next() {
		var u UsageCounts
		if err := rows.Scan(&u.MedicationID, &u.MedicationName, &u.Patients, &u.Prescriptions, &u.Scheduled, &u.Taken); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repoPG) PrescriptionStarts(ctx context.Context, start, end time.Time) ([]PrescriptionDayCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT medication_id, start_date, COUNT(*)
		FROM patient_medication
		WHERE start_date >= $1 AND start_date < $2
		GROUP BY medication_id, start_date
		ORDER BY start_date ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PrescriptionDayCount
	for rows.Next() {
		var p PrescriptionDayCount
		if err := rows.Scan(&p.MedicationID, &p.Day, &p.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
