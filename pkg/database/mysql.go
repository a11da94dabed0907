package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/healthconnect/sms-dispatcher/environments"
	"github.com/healthconnect/sms-dispatcher/pkg/logger"
)

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to MySQL database")
	return db, nil
}

// RunMigrations creates the tables the dispatcher owns plus the minimal
// collaborator tables it reads. The clinical CRUD application owns the full
// patient/appointment/medical-record schemas; the CREATE IF NOT EXISTS
// statements here only matter for standalone deployments and tests.
func RunMigrations(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			name VARCHAR(100) PRIMARY KEY,
			value TEXT NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS sms_logs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			correlation_id VARCHAR(100),
			recipient VARCHAR(20) NOT NULL,
			message TEXT NOT NULL,
			status ENUM('sent','failed') NOT NULL,
			provider_message_id VARCHAR(100),
			sent_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_sms_logs_status (status),
			INDEX idx_sms_logs_sent_at (sent_at),
			INDEX idx_sms_logs_correlation (correlation_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS notification_marks (
			correlation_id VARCHAR(100) PRIMARY KEY,
			marked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS immunization_reminders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			patient_id BIGINT NOT NULL,
			message TEXT NOT NULL,
			sent_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			sent_by BIGINT,
			INDEX idx_immunization_reminders_patient (patient_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS reminder_log (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			medical_record_id BIGINT NOT NULL,
			reminder_date DATE NOT NULL,
			sent_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY ux_reminder_log_record_date (medical_record_id, reminder_date)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS sweep_runs (
			sweep_date DATE PRIMARY KEY,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME,
			sent_count INT NOT NULL DEFAULT 0
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS patients (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			phone_number VARCHAR(20) NOT NULL DEFAULT ''
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			patient_id BIGINT NOT NULL,
			schedule_date DATE NOT NULL,
			schedule_time VARCHAR(20) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
			INDEX idx_appointments_patient (patient_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS medical_records (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			patient_id BIGINT NOT NULL,
			follow_up_date DATE,
			notes TEXT,
			INDEX idx_medical_records_followup (follow_up_date),
			INDEX idx_medical_records_patient (patient_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	logger.Infof("Database migrations completed")

	return nil
}

// SeedTestData loads a small clinic data set for local runs. It is guarded:
// an already-populated patients table is left alone.
func SeedTestData(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM patients"); err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d patients, skipping seed", count)
		return nil
	}

	settings := map[string]string{
		"sms_enabled":   "1",
		"sms_api_key":   "test-api-key",
		"sms_sender_id": "HEALTHCON",
	}
	for name, value := range settings {
		if _, err := db.Exec(
			"INSERT INTO settings (name, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)",
			name, value,
		); err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}
	}

	patients := []struct {
		first, last, phone string
	}{
		{"Maria", "Santos", "09171234567"},
		{"Jose", "Reyes", "09281234567"},
		{"Ana", "Cruz", "09391234567"},
		{"Pedro", "Garcia", ""},
		{"Luz", "Mendoza", "09451234567"},
	}

	for _, p := range patients {
		res, err := db.Exec(
			"INSERT INTO patients (first_name, last_name, phone_number) VALUES (?, ?, ?)",
			p.first, p.last, p.phone,
		)
		if err != nil {
			return fmt.Errorf("failed to seed patients: %w", err)
		}

		patientID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get patient id: %w", err)
		}

		if _, err := db.Exec(
			"INSERT INTO appointments (patient_id, schedule_date, schedule_time) VALUES (?, DATE_ADD(CURDATE(), INTERVAL 1 DAY), '09:00 AM')",
			patientID,
		); err != nil {
			return fmt.Errorf("failed to seed appointments: %w", err)
		}

		if _, err := db.Exec(
			`INSERT INTO medical_records (patient_id, follow_up_date, notes)
			 VALUES (?, CURDATE(), '{"follow_up_message":"Please come back for your BP check."}')`,
			patientID,
		); err != nil {
			return fmt.Errorf("failed to seed medical records: %w", err)
		}
	}

	logger.Infof("Seeded %d patients with appointments and due follow-ups", len(patients))
	return nil
}
