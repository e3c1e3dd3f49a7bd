// ABOUTME: Seed data for the dev server
// ABOUTME: Deterministic users, money movements, onboarding requests, and moderation items

package devserver

import (
	"fmt"
	"strings"
	"time"
)

type record map[string]any

type dataset struct {
	users         []record
	transactions  []record
	withdrawals   []record
	requests      []record
	notifications []record
	reports       []record
	issues        []record
}

var firstNames = []string{"Amara", "Ben", "Chloe", "Dmitri", "Elena", "Farah", "Gustavo", "Hana", "Ivan", "Jade", "Kofi", "Lena"}
var lastNames = []string{"Okafor", "Silva", "Nguyen", "Petrov", "Rossi", "Haddad", "Moreno", "Sato", "Kowalski", "Dubois"}

func personName(i int) string {
	return firstNames[i%len(firstNames)] + " " + lastNames[(i*7)%len(lastNames)]
}

func personEmail(i int) string {
	return strings.ToLower(strings.ReplaceAll(personName(i), " ", ".")) + fmt.Sprintf("%d@example.com", i)
}

func money(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func seed(now time.Time) *dataset {
	d := &dataset{}
	day := func(offset int) time.Time { return now.AddDate(0, 0, -offset) }

	for i := 1; i <= 24; i++ {
		role := "customer"
		if i%3 == 0 {
			role = "cleaner"
		}
		d.users = append(d.users, record{
			"id":            i,
			"uid":           fmt.Sprintf("usr-%04d", i),
			"name":          personName(i),
			"email":         personEmail(i),
			"role":          role,
			"phone_number":  fmt.Sprintf("+1555%07d", 1000+i*37),
			"joined_date":   day(i * 9).Format("2006-01-02"),
			"is_deactivate": i%8 == 0,
			"avatar":        nil,
		})
	}

	statuses := []string{"completed", "pending", "processing", "refunded"}
	types := []string{"booking", "tip", "refund"}
	for i := 1; i <= 30; i++ {
		d.transactions = append(d.transactions, record{
			"transaction_id": fmt.Sprintf("TXN-%05d", 10000+i),
			"customer":       personName(i),
			"email":          personEmail(i),
			"type":           types[i%len(types)],
			"amount":         money(2500 + i*731),
			"status":         statuses[i%len(statuses)],
			"date":           day(i).Format("2006-01-02"),
			"description":    fmt.Sprintf("Home cleaning, %d rooms", 1+i%4),
		})
	}

	for i := 1; i <= 12; i++ {
		u := d.users[(i*3-1)%len(d.users)]
		d.withdrawals = append(d.withdrawals, record{
			"id":         i,
			"amount":     money(10000 + i*1250),
			"status":     "pending",
			"reason":     nil,
			"created_at": day(i).Format(time.RFC3339),
			"user":       record{"id": u["id"], "name": u["name"], "email": u["email"]},
			"payouts": []record{
				{"booking": fmt.Sprintf("BK-%04d", i*11), "amount": money(5000 + i*600)},
				{"booking": fmt.Sprintf("BK-%04d", i*11+1), "amount": money(5000 + i*650)},
			},
		})
	}

	for i := 1; i <= 8; i++ {
		d.requests = append(d.requests, record{
			"id":           100 + i,
			"request_id":   fmt.Sprintf("REQ-%03d", i),
			"cleaner_id":   100 + i,
			"name":         personName(i + 30),
			"email":        personEmail(i + 30),
			"role":         "cleaner",
			"phone_number": fmt.Sprintf("+1555%07d", 9000+i*13),
			"address":      fmt.Sprintf("%d Market Street", 10+i*4),
			"is_approved":  false,
			"status":       "pending",
			"documents":    []string{"id_card.pdf", "background_check.pdf"},
		})
	}

	for i := 1; i <= 6; i++ {
		at := day(i * 2)
		status := "sent"
		if i == 1 {
			status = "pending"
		}
		d.notifications = append(d.notifications, record{
			"notification_id": i,
			"title":           fmt.Sprintf("Service update #%d", i),
			"body":            "New cleaning slots are available this week.",
			"date":            at.Format("02-01-2006"),
			"time":            at.Format("15:04:05"),
			"timezone":        "UTC",
			"status":          status,
			"delivered":       120 * i,
		})
	}

	reasons := []string{"No-show", "Inappropriate language", "Payment dispute", "Damaged property"}
	for i := 1; i <= 9; i++ {
		at := day(i)
		d.reports = append(d.reports, record{
			"report_id": i,
			"reason":    reasons[i%len(reasons)],
			"date":      at.Format("2006-01-02"),
			"time":      at.Format("15:04"),
			"is_marked": i%4 == 0,
			"reporter": record{
				"reporter_name":  personName(i),
				"reporter_email": personEmail(i),
			},
			"reportable": record{
				"reported_user_name":  personName(i + 5),
				"reported_user_email": personEmail(i + 5),
			},
		})
	}

	titles := []string{"App crashes on checkout", "Cannot update address", "Booking shows wrong time", "Refund not received"}
	for i := 1; i <= 7; i++ {
		at := day(i)
		d.issues = append(d.issues, record{
			"issue_id":    i,
			"title":       titles[i%len(titles)],
			"description": "Reported from the mobile app.",
			"date":        at.Format("2006-01-02"),
			"time":        at.Format("15:04"),
			"is_marked":   i%3 == 0,
			"user":        record{"name": personName(i + 2), "email": personEmail(i + 2)},
		})
	}
	return d
}
