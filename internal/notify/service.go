package notify

import (
	"context"
	"fmt"
	"log"
)

// OrderSummary is whatever order data was available at dispatch time. On a
// reconciliation miss the webhook fills this from the event's own customer
// fields, so OrderID may be empty.
type OrderSummary struct {
	OrderID  string
	Email    string
	Name     string
	Format   string
	Quantity int
	Total    float64
}

// Dispatcher sends transactional emails. Every path here is fire-and-
// forget from the webhook's point of view: failures are logged and
// swallowed so a mail outage can never fail a webhook response.
type Dispatcher struct {
	mailer     Mailer
	from       string
	adminEmail string
	logf       func(format string, args ...interface{})
}

func NewDispatcher(mailer Mailer, from, adminEmail string) *Dispatcher {
	return &Dispatcher{mailer: mailer, from: from, adminEmail: adminEmail, logf: log.Printf}
}

// OrderCompleted sends the customer confirmation and the admin alert.
func (d *Dispatcher) OrderCompleted(ctx context.Context, sum OrderSummary) {
	if d.mailer == nil {
		d.logf("notify: mailer not configured, skipping emails for order %q", sum.OrderID)
		return
	}

	if sum.Email != "" {
		d.send(ctx, Email{
			From:    d.from,
			To:      sum.Email,
			Subject: "Your preorder is confirmed",
			Text:    customerBody(sum),
		})
	} else {
		d.logf("notify: no customer email available for order %q, skipping confirmation", sum.OrderID)
	}

	if d.adminEmail != "" {
		d.send(ctx, Email{
			From:    d.from,
			To:      d.adminEmail,
			Subject: "New preorder received",
			Text:    adminBody(sum),
		})
	}
}

func (d *Dispatcher) send(ctx context.Context, e Email) {
	if err := d.mailer.Send(ctx, e); err != nil {
		d.logf("notify: send to %s failed: %v", e.To, err)
	}
}

func customerBody(sum OrderSummary) string {
	body := fmt.Sprintf("Thanks for your preorder, %s!\n\n", orDefault(sum.Name, "reader"))
	if sum.Format != "" {
		body += fmt.Sprintf("Format: %s\nQuantity: %d\n", sum.Format, sum.Quantity)
	}
	if sum.Total > 0 {
		body += fmt.Sprintf("Total: $%.2f\n", sum.Total)
	}
	body += "\nWe'll email you again when your copy ships."
	return body
}

func adminBody(sum OrderSummary) string {
	return fmt.Sprintf("Order %s\nCustomer: %s <%s>\nFormat: %s x%d\nTotal: $%.2f\n",
		orDefault(sum.OrderID, "(unmatched)"), sum.Name, sum.Email, sum.Format, sum.Quantity, sum.Total)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
