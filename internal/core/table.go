package core

// MaxTableRows caps the number of rows rendered in the transactions table.
const MaxTableRows = 100

const notAvailable = "N/A"

// Row is the table projection of a transaction.
type Row struct {
	ID      int64
	Date    string
	Type    string
	Amount  string
	Details string
}

// DetailField is one labelled line of the detail panel. Quote marks the
// original SMS text, which the panel renders differently.
type DetailField struct {
	Label string
	Value string
	Quote bool
}

// TablePage projects the first MaxTableRows visible records.
func TablePage(visible []Transaction) []Row {
	n := len(visible)
	if n > MaxTableRows {
		n = MaxTableRows
	}
	rows := make([]Row, n)
	for i, t := range visible[:n] {
		rows[i] = Row{
			ID:      t.ID,
			Date:    formatDate(t),
			Type:    t.DisplayType(),
			Amount:  formatAmount(t.Amount),
			Details: Details(t),
		}
	}
	return rows
}

// Details summarises the counterparty: sender, then receiver, then agent,
// then the external id.
func Details(t Transaction) string {
	switch {
	case t.SenderName != "":
		return "From: " + t.SenderName
	case t.ReceiverName != "":
		return "To: " + t.ReceiverName
	case t.AgentName != "":
		return "Agent: " + t.AgentName
	case t.TransactionID != "":
		return t.TransactionID
	default:
		return notAvailable
	}
}

// DetailView lists the fields shown in the detail panel. Counterparty lines
// only appear when present.
func DetailView(t Transaction) []DetailField {
	fee := "0 " + Currency
	if !t.Fee.IsZero() {
		fee = FormatRWF(t.Fee)
	}
	dt := notAvailable
	if t.HasDateTime() {
		dt = t.DateTime.Format("02/01/2006 15:04:05")
	}

	fields := []DetailField{
		{Label: "Transaction ID", Value: orNA(t.TransactionID)},
		{Label: "Type", Value: t.DisplayType()},
		{Label: "Amount", Value: formatAmount(t.Amount)},
		{Label: "Fee", Value: fee},
		{Label: "Date & Time", Value: dt},
	}
	if t.SenderName != "" {
		fields = append(fields, DetailField{Label: "From", Value: t.SenderName})
	}
	if t.ReceiverName != "" {
		fields = append(fields, DetailField{Label: "To", Value: t.ReceiverName})
	}
	if t.AgentName != "" {
		fields = append(fields, DetailField{Label: "Agent", Value: t.AgentName + " (" + orNA(t.AgentPhone) + ")"})
	}
	return append(fields, DetailField{Label: "Original Message", Value: orNA(t.RawMessage), Quote: true})
}

func formatDate(t Transaction) string {
	if !t.HasDateTime() {
		return notAvailable
	}
	return t.DateTime.Format("02/01/2006")
}

func formatAmount(m Money) string {
	if m.IsZero() {
		return notAvailable
	}
	return FormatRWF(m)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
