package database

import (
	"database/sql"
	"fmt"
	"log"
)

// RunMigrations applies the schema. Statements are idempotent so startup can
// run them unconditionally.
func RunMigrations(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS groups (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS members (
			id BIGSERIAL PRIMARY KEY,
			group_id BIGINT NOT NULL REFERENCES groups(id),
			name TEXT NOT NULL,
			email TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id BIGSERIAL PRIMARY KEY,
			group_id BIGINT NOT NULL REFERENCES groups(id),
			name TEXT NOT NULL,
			description TEXT,
			cotisation_amount NUMERIC(12,2) NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			due_date DATE NOT NULL,
			state TEXT NOT NULL DEFAULT 'draft',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS monthly_cotisations (
			id BIGSERIAL PRIMARY KEY,
			group_id BIGINT NOT NULL REFERENCES groups(id),
			month INT NOT NULL,
			year INT NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			due_day INT NOT NULL DEFAULT 5,
			state TEXT NOT NULL DEFAULT 'draft',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (group_id, month, year)
		)`,
		`CREATE TABLE IF NOT EXISTS cotisations (
			id BIGSERIAL PRIMARY KEY,
			member_id BIGINT NOT NULL REFERENCES members(id),
			source_type TEXT NOT NULL,
			activity_id BIGINT REFERENCES activities(id) ON DELETE CASCADE,
			monthly_id BIGINT REFERENCES monthly_cotisations(id) ON DELETE CASCADE,
			amount_due NUMERIC(12,2) NOT NULL CHECK (amount_due > 0),
			amount_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
			due_date DATE NOT NULL,
			payment_date DATE,
			state TEXT NOT NULL DEFAULT 'pending',
			description TEXT,
			payment_notes TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cotisations_member ON cotisations(member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cotisations_state_due ON cotisations(state, due_date)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			cotisation_id BIGINT NOT NULL REFERENCES cotisations(id),
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			method TEXT NOT NULL,
			reference TEXT NOT NULL,
			payment_date DATE NOT NULL,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS payment_proofs (
			id BIGSERIAL PRIMARY KEY,
			cotisation_id BIGINT NOT NULL REFERENCES cotisations(id) ON DELETE CASCADE,
			member_id BIGINT NOT NULL REFERENCES members(id),
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			method TEXT NOT NULL,
			reference TEXT,
			payment_date DATE NOT NULL,
			filename TEXT,
			state TEXT NOT NULL DEFAULT 'submitted',
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			review_at TIMESTAMPTZ,
			decided_at TIMESTAMPTZ,
			validator_id BIGINT,
			rejection_reason TEXT,
			notes TEXT,
			validation_notes TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proofs_state ON payment_proofs(state)`,
		`CREATE TABLE IF NOT EXISTS payment_plans (
			id BIGSERIAL PRIMARY KEY,
			member_id BIGINT NOT NULL REFERENCES members(id),
			reference TEXT NOT NULL UNIQUE,
			total_amount NUMERIC(12,2) NOT NULL CHECK (total_amount > 0),
			number_of_installments INT NOT NULL CHECK (number_of_installments > 0),
			frequency TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE,
			state TEXT NOT NULL DEFAULT 'draft',
			auto_reminder BOOLEAN NOT NULL DEFAULT FALSE,
			reminder_days INT NOT NULL DEFAULT 3,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS installments (
			id BIGSERIAL PRIMARY KEY,
			plan_id BIGINT NOT NULL REFERENCES payment_plans(id) ON DELETE CASCADE,
			sequence INT NOT NULL,
			due_date DATE NOT NULL,
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			amount_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
			payment_date DATE,
			state TEXT NOT NULL DEFAULT 'pending',
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_installments_plan ON installments(plan_id)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id BIGSERIAL PRIMARY KEY,
			recipient_id BIGINT NOT NULL REFERENCES members(id),
			message TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			related_entity_type TEXT,
			related_entity_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, is_read)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	log.Println("Database migrations applied")
	return nil
}
