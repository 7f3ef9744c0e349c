package source

import (
	"context"

	"studiometrics/internal/core"
)

// Ports for inbound record sources.
type (
	// SessionLister returns the class session records for a studio.
	SessionLister interface {
		ListSessions(ctx context.Context) ([]core.Session, error)
	}

	// PayrollLister returns per-trainer payroll lines.
	PayrollLister interface {
		ListPayroll(ctx context.Context) ([]core.PayrollLine, error)
	}

	// ClientLister returns client conversion records.
	ClientLister interface {
		ListClients(ctx context.Context) ([]core.ClientConversion, error)
	}

	// RecordSource is the full read surface a reporting backend provides.
	RecordSource interface {
		SessionLister
		PayrollLister
		ClientLister
	}
)
