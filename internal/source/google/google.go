package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"studiometrics/internal/core"
	"studiometrics/internal/log"
	"studiometrics/internal/source"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads studio records from a Google Spreadsheet. Each record
// kind lives on its own sheet with a header row; columns are matched by
// name so the studio can reorder or add columns without breaking loads.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sessionsSheet string
	payrollSheet  string
	clientsSheet  string
	logger        *log.Logger
}

// Ensure interface conformance
var (
	_ source.SessionLister = (*Client)(nil)
	_ source.PayrollLister = (*Client)(nil)
	_ source.ClientLister  = (*Client)(nil)
	_ source.RecordSource  = (*Client)(nil)
)

// Config carries the spreadsheet coordinates resolved by the caller.
type Config struct {
	SpreadsheetID string
	SessionsSheet string
	PayrollSheet  string
	ClientsSheet  string
}

// New creates a Sheets-backed source using service account credentials.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sessionsSheet: orDefault(cfg.SessionsSheet, "Sessions"),
		payrollSheet:  orDefault(cfg.PayrollSheet, "Payroll"),
		clientsSheet:  orDefault(cfg.ClientsSheet, "Clients"),
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	inlineJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inlineJSON == "" && credFile == "" {
		credFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inlineJSON != "":
		credentialsJSON = []byte(inlineJSON)
	case credFile != "":
		b, err := os.ReadFile(credFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]core.Session, error) {
	values, err := c.readSheet(ctx, c.sessionsSheet)
	if err != nil {
		return nil, err
	}
	sessions, skipped := parseSessions(values)
	c.logLoad(ctx, c.sessionsSheet, len(sessions), skipped)
	return sessions, nil
}

func (c *Client) ListPayroll(ctx context.Context) ([]core.PayrollLine, error) {
	values, err := c.readSheet(ctx, c.payrollSheet)
	if err != nil {
		return nil, err
	}
	lines, skipped := parsePayroll(values)
	c.logLoad(ctx, c.payrollSheet, len(lines), skipped)
	return lines, nil
}

func (c *Client) ListClients(ctx context.Context) ([]core.ClientConversion, error) {
	values, err := c.readSheet(ctx, c.clientsSheet)
	if err != nil {
		return nil, err
	}
	clients, skipped := parseClients(values)
	c.logLoad(ctx, c.clientsSheet, len(clients), skipped)
	return clients, nil
}

func (c *Client) readSheet(ctx context.Context, sheetName string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) logLoad(ctx context.Context, sheet string, loaded, skipped int) {
	if skipped > 0 {
		c.logger.WarnContext(ctx, "loaded sheet with skipped rows",
			log.FieldSheetsRef, sheet, log.FieldRecords, loaded, log.FieldSkipped, skipped)
		return
	}
	c.logger.DebugContext(ctx, "loaded sheet",
		log.FieldSheetsRef, sheet, log.FieldRecords, loaded)
}

func orDefault(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
