package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var tables = []struct {
	name string
	ddl  string
}{
	{"users", `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(50) NOT NULL UNIQUE,
	email VARCHAR(255) NOT NULL UNIQUE,
	name VARCHAR(100) NOT NULL DEFAULT '',
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(20) NOT NULL DEFAULT 'customer',
	coins BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"stops", `
CREATE TABLE IF NOT EXISTS stops (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE,
	latitude DOUBLE NULL,
	longitude DOUBLE NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"buses", `
CREATE TABLE IF NOT EXISTS buses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	operator_id BIGINT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	operating_days TINYINT UNSIGNED NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_buses_operator (operator_id),
	FOREIGN KEY (operator_id) REFERENCES users(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"route_stops", `
CREATE TABLE IF NOT EXISTS route_stops (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_id BIGINT NOT NULL,
	stop_id BIGINT NOT NULL,
	stop_order INT NOT NULL,
	arrival_time TIME NOT NULL,
	next_day TINYINT(1) NOT NULL DEFAULT 0,
	UNIQUE KEY uniq_route_order (bus_id, stop_order),
	UNIQUE KEY uniq_route_stop (bus_id, stop_id),
	FOREIGN KEY (bus_id) REFERENCES buses(id) ON DELETE CASCADE,
	FOREIGN KEY (stop_id) REFERENCES stops(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"seats", `
CREATE TABLE IF NOT EXISTS seats (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_id BIGINT NOT NULL,
	name VARCHAR(20) NOT NULL,
	seat_class VARCHAR(20) NOT NULL,
	fare BIGINT NOT NULL,
	UNIQUE KEY uniq_seat_name (bus_id, name),
	FOREIGN KEY (bus_id) REFERENCES buses(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	// active_key is NULL for cancelled/refunded rows, so the unique keys below
	// only constrain active bookings and a cancelled seat can be sold again.
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	reference CHAR(36) NOT NULL UNIQUE,
	bus_id BIGINT NOT NULL,
	seat_id BIGINT NOT NULL,
	customer_id BIGINT NOT NULL,
	operator_id BIGINT NOT NULL,
	travel_date DATE NOT NULL,
	board_stop_id BIGINT NOT NULL,
	board_order INT NOT NULL,
	alight_stop_id BIGINT NOT NULL,
	alight_order INT NOT NULL,
	fare BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'Confirmed',
	passenger_name VARCHAR(100) NOT NULL,
	passenger_email VARCHAR(255) NULL,
	passenger_phone VARCHAR(50) NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	cancelled_at DATETIME NULL,
	active_key TINYINT GENERATED ALWAYS AS (IF(status IN ('Cancelled','Refunded'), NULL, 1)) STORED,
	UNIQUE KEY uniq_active_board (bus_id, seat_id, travel_date, board_order, active_key),
	UNIQUE KEY uniq_active_alight (bus_id, seat_id, travel_date, alight_order, active_key),
	KEY idx_bookings_customer (customer_id),
	KEY idx_bookings_operator (operator_id, travel_date),
	KEY idx_bookings_status_date (status, travel_date),
	FOREIGN KEY (bus_id) REFERENCES buses(id),
	FOREIGN KEY (seat_id) REFERENCES seats(id),
	FOREIGN KEY (customer_id) REFERENCES users(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"ledger_entries", `
CREATE TABLE IF NOT EXISTS ledger_entries (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	actor_id BIGINT NOT NULL,
	counterpart_id BIGINT NULL,
	amount BIGINT NOT NULL,
	kind VARCHAR(20) NOT NULL,
	booking_id BIGINT NULL,
	note VARCHAR(255) NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_ledger_actor (actor_id, id),
	FOREIGN KEY (actor_id) REFERENCES users(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"one_time_codes", `
CREATE TABLE IF NOT EXISTS one_time_codes (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	purpose VARCHAR(40) NOT NULL,
	code_hash VARCHAR(255) NOT NULL,
	payload TEXT NULL,
	expires_at DATETIME NOT NULL,
	verified_at DATETIME NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_otp_lookup (email, purpose, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// EnsureSchema creates required tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if skip := strings.TrimSpace(os.Getenv("DB_SKIP_SCHEMA")); strings.EqualFold(skip, "true") || skip == "1" {
		logrus.WithField("DB_SKIP_SCHEMA", skip).Info("EnsureSchema: skipped")
		return nil
	}

	for _, t := range tables {
		if HasTable(ctx, db, t.name) {
			continue
		}
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
		logrus.WithField("table", t.name).Info("EnsureSchema: created")
	}
	return nil
}
