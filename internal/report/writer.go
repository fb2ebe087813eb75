package report

import (
	"encoding/json"
	"fmt"
	"io"
	"school-bus-routing/internal/domain"
	"school-bus-routing/internal/services"
	"strings"
)

func WriteJSON(w io.Writer, p *services.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromPlan(p)); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}

// WriteText prints one block per route followed by the stops that needed
// re-insertion and those that could not be placed.
func WriteText(w io.Writer, p *services.Plan) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Instance: %s (run %s)\n", p.Instance, p.RunID)
	for _, r := range p.Routes {
		writeRoute(&b, r)
	}

	if len(p.Unserved) > 0 {
		b.WriteString("\nUnserved Bus Stops:\n")
		for _, id := range p.Unserved {
			if bus, ok := p.Reinserted[id]; ok {
				fmt.Fprintf(&b, "- Bus Stop %d (re-inserted on bus %d)\n", id, bus)
				continue
			}
			fmt.Fprintf(&b, "- Bus Stop %d\n", id)
		}
	}

	if len(p.Unplaceable) > 0 {
		b.WriteString("\nUnplaceable Bus Stops:\n")
		for _, u := range p.Unplaceable {
			fmt.Fprintf(&b, "- Bus Stop %d: %s after %d attempts\n", u.StopID, u.Reason, u.Attempts)
		}
	}

	fmt.Fprintf(&b, "\nTotal distance: %s\nTotal duration: %s\n", number(p.TotalDistance), number(p.TotalDuration))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	return nil
}

func writeRoute(b *strings.Builder, r domain.RoutePlan) {
	fmt.Fprintf(b, "\nBus %d\n", r.BusIndex)
	b.WriteString("Visited Nodes:")
	for _, id := range r.VisitedNodes {
		fmt.Fprintf(b, " %d", id)
	}
	b.WriteString("\n")
	for k, n := range r.Children {
		fmt.Fprintf(b, "Children to cluster %d: %d\n", k+1, n)
	}
	fmt.Fprintf(b, "Distance: %s  Duration: %s\n", number(r.Distance), number(r.Duration))
}

func number(v float64) string {
	if f := finite(v); f != nil {
		return fmt.Sprintf("%.2f", *f)
	}
	return "n/a"
}
