package sms

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"momo/internal/core"
)

// Transaction types produced by the categorizer.
const (
	TypeIncomingMoney    = "Incoming Money"
	TypePaymentCompleted = "Payment Completed"
	TypeAirtimePayment   = "Airtime Payment"
	TypeAgentWithdrawal  = "Agent Withdrawal"
	TypeInternetBundle   = "Internet Bundle"
	TypeBankTransfer     = "Bank Transfer"
)

// Reject reasons recorded for messages that do not become records.
const (
	ReasonUncategorized = "Could not categorize message"
	ReasonInsertFailed  = "Database insertion failed"
)

const amountRe = `(\d+(?:\.\d+)?)`

// rule maps a regex match to the fields it fills. Rules are tried in
// order; the first match wins.
type rule struct {
	kind  string
	re    *regexp.Regexp
	build func(m []string, t *core.Transaction)
}

func ci(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

var rules = []rule{
	{TypeIncomingMoney, ci(`You have received ` + amountRe + ` RWF from (.+?)\.`), senderRule},
	{TypeIncomingMoney, ci(`received ` + amountRe + ` RWF from (.+?)[.\s]`), senderRule},
	{TypePaymentCompleted, ci(`Your payment of ` + amountRe + ` RWF to (.+?) has been completed`), receiverRule},
	{TypePaymentCompleted, ci(`payment of ` + amountRe + ` RWF to (.+?) has been completed`), receiverRule},
	{TypeAirtimePayment, ci(`payment of ` + amountRe + ` RWF to Airtime`), fixedReceiver("Airtime")},
	{TypeAirtimePayment, ci(amountRe + ` RWF.*?Airtime.*?completed`), fixedReceiver("Airtime")},
	{TypeAgentWithdrawal, ci(`You (.+?) have via agent: (.+?) \((\d+)\), withdrawn ` + amountRe + ` RWF`), func(m []string, t *core.Transaction) {
		t.SenderName = strings.TrimSpace(m[1])
		t.AgentName = strings.TrimSpace(m[2])
		t.AgentPhone = m[3]
		t.Amount = parseAmount(m[4])
	}},
	{TypeAgentWithdrawal, ci(`withdrawn ` + amountRe + ` RWF.*?agent`), amountOnly},
	{TypeInternetBundle, ci(`purchased an internet bundle.*?` + amountRe + ` RWF`), fixedReceiver("Internet Bundle")},
	{TypeInternetBundle, ci(`internet bundle.*?` + amountRe + ` RWF`), fixedReceiver("Internet Bundle")},
	{TypeBankTransfer, ci(`bank.*?` + amountRe + ` RWF`), amountOnly},
	{TypeBankTransfer, ci(amountRe + ` RWF.*?bank`), amountOnly},
}

var (
	txIDPatterns = []*regexp.Regexp{
		ci(`Transaction ID: (\w+)`),
		ci(`TxId: (\w+)`),
		ci(`TxId:(\w+)`),
		ci(`ID: (\w+)`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`Date: (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`),
		regexp.MustCompile(`on (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`),
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`),
	}
	feePattern = ci(`Fee: ` + amountRe + ` RWF`)
)

func senderRule(m []string, t *core.Transaction) {
	t.Amount = parseAmount(m[1])
	t.SenderName = strings.TrimSpace(m[2])
}

func receiverRule(m []string, t *core.Transaction) {
	t.Amount = parseAmount(m[1])
	t.ReceiverName = strings.TrimSpace(m[2])
}

func amountOnly(m []string, t *core.Transaction) {
	t.Amount = parseAmount(m[1])
}

func fixedReceiver(name string) func([]string, *core.Transaction) {
	return func(m []string, t *core.Transaction) {
		t.Amount = parseAmount(m[1])
		t.ReceiverName = name
	}
}

// Categorizer classifies mobile-money SMS bodies.
type Categorizer struct{}

// Categorize parses body into a transaction. It reports false when no
// rule matches. The returned record is unsaved (ID 0).
func (Categorizer) Categorize(body string) (core.Transaction, bool) {
	body = strings.TrimSpace(body)
	if body == "" {
		return core.Transaction{}, false
	}
	for _, r := range rules {
		m := r.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		t := core.Transaction{
			Type:          r.kind,
			TransactionID: extractTransactionID(body),
			DateTime:      extractDateTime(body),
			Fee:           extractFee(body),
			RawMessage:    body,
		}
		r.build(m, &t)
		return t, true
	}
	return core.Transaction{}, false
}

func extractTransactionID(body string) string {
	for _, re := range txIDPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}
	return ""
}

func extractDateTime(body string) time.Time {
	for _, re := range datePatterns {
		m := re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		if ts, err := time.Parse(core.DateTimeLayout, m[1]); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func extractFee(body string) core.Money {
	if m := feePattern.FindStringSubmatch(body); m != nil {
		return parseAmount(m[1])
	}
	return core.Money{}
}

// parseAmount converts a matched decimal string to cents. Inputs come
// from amountRe so parse errors cannot happen in practice.
func parseAmount(s string) core.Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}
	}
	return core.Money{Cents: d.Shift(2).Round(0).IntPart()}
}
