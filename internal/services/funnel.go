package services

import (
	"context"

	"studiometrics/internal/core"
	"studiometrics/internal/log"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// FunnelStage counts clients at one lifecycle stage.
type FunnelStage struct {
	Status core.ConversionStatus
	Count  int
}

// Funnel is the client conversion picture for one location, or the whole
// studio when Location is empty.
type Funnel struct {
	Location string
	Stages   []FunnelStage
	Total    int
	// ConversionRate is converted+retained over all clients, percent.
	ConversionRate float64
	// RetentionRate is retained over converted+retained, percent.
	RetentionRate float64
	// AvgLTV averages lifetime value over converted and retained clients
	// only; prospects and drops would just dilute it.
	AvgLTV core.Money
}

var funnelOrder = []core.ConversionStatus{
	core.StatusProspect,
	core.StatusConverted,
	core.StatusRetained,
	core.StatusDropped,
}

// ConversionFunnel builds the studio-wide funnel followed by one funnel
// per location, in first-seen location order.
func (s *ReportService) ConversionFunnel(ctx context.Context) ([]Funnel, error) {
	runID := uuid.NewString()
	s.logger.InfoContext(ctx, "running report",
		log.FieldRunID, runID, log.FieldReport, "conversion_funnel")

	rs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := []Funnel{buildFunnel("", rs.clients)}

	locations := lo.Uniq(lo.Map(rs.clients, func(c core.ClientConversion, _ int) string {
		return c.Location
	}))
	for _, loc := range locations {
		subset := lo.Filter(rs.clients, func(c core.ClientConversion, _ int) bool {
			return c.Location == loc
		})
		out = append(out, buildFunnel(loc, subset))
	}

	s.logger.DebugContext(ctx, "report done",
		log.FieldRunID, runID, log.FieldRows, len(out))
	return out, nil
}

func buildFunnel(location string, clients []core.ClientConversion) Funnel {
	counts := lo.CountValuesBy(clients, func(c core.ClientConversion) core.ConversionStatus {
		return c.Status
	})

	stages := make([]FunnelStage, 0, len(funnelOrder))
	for _, status := range funnelOrder {
		stages = append(stages, FunnelStage{Status: status, Count: counts[status]})
	}

	won := lo.Filter(clients, func(c core.ClientConversion, _ int) bool {
		return c.Status == core.StatusConverted || c.Status == core.StatusRetained
	})

	f := Funnel{
		Location: location,
		Stages:   stages,
		Total:    len(clients),
	}
	if f.Total > 0 {
		f.ConversionRate = float64(len(won)) / float64(f.Total) * 100
	}
	if len(won) > 0 {
		f.RetentionRate = float64(counts[core.StatusRetained]) / float64(len(won)) * 100
		totalLTV := lo.SumBy(won, func(c core.ClientConversion) int64 {
			return c.LTV.Cents
		})
		f.AvgLTV = core.Money{Cents: totalLTV / int64(len(won))}
	}
	return f
}
