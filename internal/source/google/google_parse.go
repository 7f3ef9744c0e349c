package google

import (
	"strconv"
	"strings"
	"time"

	"studiometrics/internal/core"
)

// parseSessions converts a values matrix (as returned by the Sheets API)
// into session records. The first row is the header. Rows that fail to
// parse or validate are counted as skipped, the rest of the load goes on.
func parseSessions(values [][]interface{}) ([]core.Session, int) {
	if len(values) < 2 {
		return nil, 0
	}
	headers := toStrings(values[0])
	colDate := indexOf(headers, "date")
	colLocation := indexOf(headers, "location")
	colTrainer := indexOf(headers, "trainer")
	colClass := indexOf(headers, "class_name")
	colType := indexOf(headers, "class_type")
	colSlot := indexOf(headers, "time_slot")
	colSessions := indexOf(headers, "sessions")
	colBooked := indexOf(headers, "booked")
	colCheckedIn := indexOf(headers, "checked_in")
	colCapacity := indexOf(headers, "capacity")
	colLateCanc := indexOf(headers, "late_cancelled")
	colEmpty := indexOf(headers, "empty_sessions")
	colRevenue := indexOf(headers, "revenue")

	var out []core.Session
	skipped := 0
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		date, ok := parseSheetDate(safeGet(row, colDate))
		if !ok {
			skipped++
			continue
		}
		revenue, ok := core.MoneyFromString(safeGet(row, colRevenue))
		if !ok {
			revenue = core.Money{}
		}
		sess := core.Session{
			Location:      safeGet(row, colLocation),
			Trainer:       safeGet(row, colTrainer),
			ClassName:     safeGet(row, colClass),
			ClassType:     safeGet(row, colType),
			TimeSlot:      safeGet(row, colSlot),
			Date:          date,
			Sessions:      parseInt(safeGet(row, colSessions), 1),
			Booked:        parseInt(safeGet(row, colBooked), 0),
			CheckedIn:     parseInt(safeGet(row, colCheckedIn), 0),
			Capacity:      parseInt(safeGet(row, colCapacity), 0),
			LateCancelled: parseInt(safeGet(row, colLateCanc), 0),
			EmptySessions: parseInt(safeGet(row, colEmpty), 0),
			Revenue:       revenue,
		}
		if err := sess.Validate(); err != nil {
			skipped++
			continue
		}
		out = append(out, sess)
	}
	return out, skipped
}

func parsePayroll(values [][]interface{}) ([]core.PayrollLine, int) {
	if len(values) < 2 {
		return nil, 0
	}
	headers := toStrings(values[0])
	colDate := indexOf(headers, "date")
	colLocation := indexOf(headers, "location")
	colTrainer := indexOf(headers, "trainer")
	colSessions := indexOf(headers, "sessions")
	colCustomers := indexOf(headers, "customers")
	colPaid := indexOf(headers, "total_paid")

	var out []core.PayrollLine
	skipped := 0
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		date, ok := parseSheetDate(safeGet(row, colDate))
		if !ok {
			skipped++
			continue
		}
		paid, ok := core.MoneyFromString(safeGet(row, colPaid))
		if !ok {
			skipped++
			continue
		}
		line := core.PayrollLine{
			Location:  safeGet(row, colLocation),
			Trainer:   safeGet(row, colTrainer),
			Date:      date,
			Sessions:  parseInt(safeGet(row, colSessions), 0),
			Customers: parseInt(safeGet(row, colCustomers), 0),
			TotalPaid: paid,
		}
		if err := line.Validate(); err != nil {
			skipped++
			continue
		}
		out = append(out, line)
	}
	return out, skipped
}

func parseClients(values [][]interface{}) ([]core.ClientConversion, int) {
	if len(values) < 2 {
		return nil, 0
	}
	headers := toStrings(values[0])
	colID := indexOf(headers, "client_id")
	colLocation := indexOf(headers, "location")
	colTrainer := indexOf(headers, "trainer")
	colStatus := indexOf(headers, "status")
	colFirstSeen := indexOf(headers, "first_seen")
	colVisits := indexOf(headers, "visits")
	colLTV := indexOf(headers, "ltv")

	var out []core.ClientConversion
	skipped := 0
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		status, err := core.ParseStatus(safeGet(row, colStatus))
		if err != nil {
			skipped++
			continue
		}
		firstSeen, ok := parseSheetDate(safeGet(row, colFirstSeen))
		if !ok {
			firstSeen = core.Date{}
		}
		ltv, ok := core.MoneyFromString(safeGet(row, colLTV))
		if !ok {
			ltv = core.Money{}
		}
		c := core.ClientConversion{
			ClientID:  safeGet(row, colID),
			Location:  safeGet(row, colLocation),
			Trainer:   safeGet(row, colTrainer),
			Status:    status,
			FirstSeen: firstSeen,
			Visits:    parseInt(safeGet(row, colVisits), 0),
			LTV:       ltv,
		}
		if err := c.Validate(); err != nil {
			skipped++
			continue
		}
		out = append(out, c)
	}
	return out, skipped
}

// parseSheetDate accepts ISO dates plus the day-first format Sheets
// produces for Italian locales.
func parseSheetDate(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, false
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, true
		}
	}
	return core.Date{}, false
}

func parseInt(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Sheets sometimes serialises counts as "12.0"
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f)
		}
		return fallback
	}
	return n
}
