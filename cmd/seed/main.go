package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/hospital-appointment-scheduler/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS doctors (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	specialization TEXT NOT NULL,
	department TEXT NOT NULL,
	working_days TEXT[] NOT NULL,
	start_minute SMALLINT NOT NULL,
	end_minute SMALLINT NOT NULL,
	slot_duration_minutes SMALLINT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id UUID PRIMARY KEY,
	doctor_id UUID NOT NULL REFERENCES doctors(id),
	patient_name TEXT NOT NULL,
	patient_phone TEXT NOT NULL,
	patient_email TEXT,
	department TEXT NOT NULL,
	appointment_date DATE NOT NULL,
	appointment_minute SMALLINT NOT NULL,
	status TEXT NOT NULL DEFAULT 'scheduled',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS appointments_slot_unique
	ON appointments (doctor_id, appointment_date, appointment_minute)
	WHERE status = 'scheduled';

CREATE INDEX IF NOT EXISTS appointments_date_idx
	ON appointments (appointment_date) WHERE status = 'scheduled';

CREATE TABLE IF NOT EXISTS event_logs (
	id BIGSERIAL PRIMARY KEY,
	event_type TEXT NOT NULL,
	appointment_id UUID,
	payload JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

var departments = []string{
	"Emergency",
	"Cardiology",
	"Oncology",
	"General Medicine",
	"Orthopedics",
	"Neurology",
	"Pediatrics",
	"Dermatology",
	"Psychiatry",
	"ENT",
}

var noteSamples = []string{
	"",
	"",
	"routine check-up",
	"follow-up after last visit",
	"urgent consultation requested",
	"severe back pain",
	"annual physical",
	"medication review",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if _, err := pool.Exec(context.Background(), schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	log.Println("schema applied")

	doctorIDs, err := seedDoctors(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, doctorIDs, 2000); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	workingDayOptions := [][]string{
		{"monday", "tuesday", "wednesday", "thursday", "friday"},
		{"monday", "tuesday", "wednesday", "thursday", "friday"},
		{"monday", "wednesday", "friday"},
		{"tuesday", "thursday", "saturday"},
		{"monday", "tuesday", "thursday", "friday"},
	}
	durations := []int{15, 20, 30, 60}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		dept := departments[gofakeit.Number(0, len(departments)-1)]
		days := workingDayOptions[gofakeit.Number(0, len(workingDayOptions)-1)]
		startMinute := gofakeit.Number(8, 10) * 60
		endMinute := gofakeit.Number(16, 18) * 60

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (
				id, name, specialization, department, working_days,
				start_minute, end_minute, slot_duration_minutes, is_active,
				created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, now(), now())
		`, id, "Dr. "+gofakeit.Name(), gofakeit.JobTitle(), dept, days,
			startMinute, endMinute, durations[gofakeit.Number(0, len(durations)-1)])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	const batchSize = 500
	taken := make(map[string]bool, count)

	inserted := 0
	for inserted < count {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		batch := 0
		for batch < batchSize && inserted < count {
			doctorID := doctorIDs[gofakeit.Number(0, len(doctorIDs)-1)]
			date := time.Now().UTC().AddDate(0, 0, gofakeit.Number(1, 21)).Truncate(24 * time.Hour)
			minute := gofakeit.Number(9, 16)*60 + []int{0, 30}[gofakeit.Number(0, 1)]

			key := fmt.Sprintf("%s:%s:%d", doctorID, date.Format("2006-01-02"), minute)
			if taken[key] {
				continue
			}
			taken[key] = true

			var email *string
			if gofakeit.Bool() {
				e := gofakeit.Email()
				email = &e
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (
					id, doctor_id, patient_name, patient_phone, patient_email, department,
					appointment_date, appointment_minute, status, notes, created_at, updated_at
				)
				SELECT $1, $2, $3, $4, $5, d.department, $6, $7, 'scheduled', $8, now(), now()
				FROM doctors d WHERE d.id = $2
			`, uuid.New(), doctorID, gofakeit.Name(), gofakeit.Phone(), email,
				date, minute, noteSamples[gofakeit.Number(0, len(noteSamples)-1)])
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			batch++
			inserted++
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", inserted, count)
	}

	log.Println("appointments seeded")
	return nil
}
