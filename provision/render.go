package provision

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type planStyles struct {
	create  lipgloss.Style
	update  lipgloss.Style
	upgrade lipgloss.Style
	noop    lipgloss.Style
	field   lipgloss.Style
	summary lipgloss.Style
}

// newPlanStyles binds styles to w so colors are dropped when w is not a terminal.
func newPlanStyles(w io.Writer) planStyles {
	r := lipgloss.NewRenderer(w)
	return planStyles{
		create:  r.NewStyle().Foreground(lipgloss.Color("2")),
		update:  r.NewStyle().Foreground(lipgloss.Color("3")),
		upgrade: r.NewStyle().Foreground(lipgloss.Color("6")),
		noop:    r.NewStyle().Faint(true),
		field:   r.NewStyle().PaddingLeft(6),
		summary: r.NewStyle().Bold(true),
	}
}

func (s planStyles) marker(a Action) (string, lipgloss.Style) {
	switch a {
	case ActionCreate, ActionRestore:
		return "+", s.create
	case ActionUpdate:
		return "~", s.update
	case ActionUpgrade:
		return "^", s.upgrade
	default:
		return " ", s.noop
	}
}

// Render writes a terraform-style summary of the plan.
func (p *Plan) Render(w io.Writer) error {
	styles := newPlanStyles(w)
	var b strings.Builder

	for _, c := range p.Changes {
		symbol, style := styles.marker(c.Action)
		b.WriteString(style.Render(fmt.Sprintf("  %s %s %q: %s", symbol, c.Resource, c.Name, c.Action)))
		b.WriteString("\n")
		for _, d := range c.Diffs {
			b.WriteString(styles.field.Render(fmt.Sprintf("%s: %s -> %s", d.Field, quoteEmpty(d.From), quoteEmpty(d.To))))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if !p.HasChanges() {
		b.WriteString(styles.summary.Render("No changes. Infrastructure matches the configuration."))
	} else {
		add, change := p.Counts()
		b.WriteString(styles.summary.Render(fmt.Sprintf("Plan: %d to add, %d to change.", add, change)))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func quoteEmpty(s string) string {
	if s == "" {
		return `""`
	}
	return s
}

// Render writes the outputs as name = value lines.
func (o *Outputs) Render(w io.Writer) error {
	rows := [][2]string{
		{"domain_name", o.DomainName},
		{"domain_arn", o.DomainARN},
		{"endpoint", o.Endpoint},
		{"endpoint_url", o.EndpointURL},
		{"dashboard_url", o.DashboardURL},
		{"secret_name", o.SecretName},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%-13s = %q\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return nil
}
