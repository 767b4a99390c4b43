// Package checkin turns a scanned QR payload into exactly one registration
// outcome. The uniqueness constraint on employee_id in the store is the only
// serialization point between concurrent scanners.
package checkin

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"eventdesk/backend/internal/pkg/i18n"
)

// TimeLayout is how registration times are shown to operators.
const TimeLayout = "15:04:05"

// Kind classifies a failed check-in.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindAnomaly    Kind = "anomaly"
	KindStorage    Kind = "storage"
)

var (
	// ErrDuplicate is returned by Store.Insert when a registration for the
	// employee already exists.
	ErrDuplicate = errors.New("registration already exists")
	// ErrNotFound is returned by Store.GetByEmployeeID when no row matches.
	ErrNotFound = errors.New("registration not found")
)

// Payload is the identity encoded in a participant QR code.
type Payload struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name,omitempty"`
	Department string `json:"department,omitempty"`
}

// Record is a persisted registration.
type Record struct {
	EmployeeID   string
	FullName     string
	Department   string
	Session      Session
	RegisteredAt time.Time
}

// Outcome is returned to the scanner for every check-in attempt.
type Outcome struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	Session        Session  `json:"session,omitempty"`
	RegisteredData *Payload `json:"registeredData,omitempty"`
	EmployeeID     string   `json:"employee_id,omitempty"`
	RegisteredAt   string   `json:"registered_at,omitempty"`
	Kind           Kind     `json:"error_kind,omitempty"`
}

// Store persists registrations. Insert must be a single atomic write that
// fails with ErrDuplicate when the employee is already registered.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	GetByEmployeeID(ctx context.Context, employeeID string) (Record, error)
}

// Recorder is notified after a registration is stored. Its errors are logged
// and never change the outcome.
type Recorder interface {
	Registered(ctx context.Context, rec Record) error
}

type Reconciler struct {
	store     Store
	clock     Clock
	loc       *time.Location
	log       *zap.Logger
	recorders []Recorder
}

func NewReconciler(store Store, clock Clock, loc *time.Location, log *zap.Logger, recorders ...Recorder) *Reconciler {
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Reconciler{
		store:     store,
		clock:     clock,
		loc:       loc,
		log:       log,
		recorders: recorders,
	}
}

// ParsePayload decodes raw scanner text. employee_id is required.
func ParsePayload(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &p); err != nil {
		return Payload{}, errors.Wrap(err, "decoding payload")
	}

	p.EmployeeID = strings.TrimSpace(p.EmployeeID)
	p.FullName = strings.TrimSpace(p.FullName)
	p.Department = strings.TrimSpace(p.Department)

	if p.EmployeeID == "" {
		return Payload{}, errors.New("employee_id is required")
	}

	return p, nil
}

// CheckIn registers the scanned participant. It performs at most one insert
// and one read.
func (r *Reconciler) CheckIn(ctx context.Context, raw string) Outcome {
	payload, err := ParsePayload(raw)
	if err != nil {
		r.log.Debug("rejected scan", zap.Error(err))
		return Outcome{
			Message: i18n.T(ctx, i18n.MsgInvalidPayload),
			Kind:    KindValidation,
		}
	}

	now := r.clock.Now().In(r.loc)
	rec := Record{
		EmployeeID:   payload.EmployeeID,
		FullName:     payload.FullName,
		Department:   payload.Department,
		Session:      SessionFor(now.Hour()),
		RegisteredAt: now,
	}

	err = r.store.Insert(ctx, rec)
	switch {
	case err == nil:
		r.notify(ctx, rec)
		return Outcome{
			Success:        true,
			Message:        i18n.T(ctx, i18n.MsgRegistered, rec.EmployeeID, string(rec.Session)),
			Session:        rec.Session,
			RegisteredData: &payload,
			EmployeeID:     rec.EmployeeID,
		}

	case errors.Is(err, ErrDuplicate):
		return r.reconcile(ctx, rec.EmployeeID)

	default:
		r.log.Error("storing registration", zap.String("employee_id", rec.EmployeeID), zap.Error(err))
		return Outcome{
			Message:    err.Error(),
			EmployeeID: rec.EmployeeID,
			Kind:       KindStorage,
		}
	}
}

// reconcile reads back the row that won the uniqueness race.
func (r *Reconciler) reconcile(ctx context.Context, employeeID string) Outcome {
	existing, err := r.store.GetByEmployeeID(ctx, employeeID)
	switch {
	case err == nil:
		at := existing.RegisteredAt.In(r.loc).Format(TimeLayout)
		return Outcome{
			Message:      i18n.T(ctx, i18n.MsgAlreadyRegistered, at),
			EmployeeID:   employeeID,
			RegisteredAt: at,
			Session:      existing.Session,
			Kind:         KindConflict,
		}

	case errors.Is(err, ErrNotFound):
		r.log.Warn("unique violation without visible row", zap.String("employee_id", employeeID))
		return Outcome{
			Message:    i18n.T(ctx, i18n.MsgRegistrationAnomaly, employeeID),
			EmployeeID: employeeID,
			Kind:       KindAnomaly,
		}

	default:
		r.log.Error("reading conflicting registration", zap.String("employee_id", employeeID), zap.Error(err))
		return Outcome{
			Message:    err.Error(),
			EmployeeID: employeeID,
			Kind:       KindStorage,
		}
	}
}

func (r *Reconciler) notify(ctx context.Context, rec Record) {
	for _, rc := range r.recorders {
		if err := rc.Registered(ctx, rec); err != nil {
			r.log.Warn("recording registration", zap.String("employee_id", rec.EmployeeID), zap.Error(err))
		}
	}
}
