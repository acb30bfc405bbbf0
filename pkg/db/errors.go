package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Unique constraint names from the schema. Callers match on these to tell a
// duplicate email apart from a duplicate subdomain.
const (
	ConstraintChurchSubdomain      = "churches_subdomain_key"
	ConstraintAdminEmail           = "church_users_email_key"
	ConstraintSuperAdminEmail      = "super_admins_email_key"
	ConstraintAttendanceMemberDate = "attendance_records_member_date_key"
)

const pgUniqueViolationCode = "23505"

// IsUniqueViolation reports whether the provided error is a unique violation.
// When constraintName is provided, the violation must reference it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolationCode {
			return false
		}
		if constraintName == "" {
			return true
		}
		return pgErr.ConstraintName == constraintName
	}

	// SQLite (and drivers without structured errors) only give us text.
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName) ||
			strings.Contains(msg, sqliteColumnFor(constraintName))
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func sqliteColumnFor(constraintName string) string {
	switch constraintName {
	case ConstraintChurchSubdomain:
		return "churches.subdomain"
	case ConstraintAdminEmail:
		return "church_users.email"
	case ConstraintSuperAdminEmail:
		return "super_admins.email"
	case ConstraintAttendanceMemberDate:
		return "attendance_records.member_id, attendance_records.attendance_date"
	}
	return constraintName
}
