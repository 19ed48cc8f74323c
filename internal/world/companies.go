package world

import (
	"ironhaul/server/internal/rng"
	"ironhaul/server/internal/sim"
)

const (
	loanInterestAPR = 5
	overdraftFee    = 25
	hqUpkeep        = 200
	loanRepayment   = 500
)

// Company is one transport operator.
type Company struct {
	ID     uint32 `json:"id"`
	Name   string `json:"name"`
	Cash   int64  `json:"cash"`
	Loan   int64  `json:"loan"`
	Rating uint8  `json:"rating"`
	Age    uint16 `json:"age"`
}

type transaction struct {
	company uint32
	amount  int64
}

// PendingTransaction is the serializable form of one unsettled booking.
type PendingTransaction struct {
	Company uint32 `json:"company"`
	Amount  int64  `json:"amount"`
}

// Companies runs the operator finance passes. Income and expenses
// booked by the other subsystems accumulate in a pending ledger that
// settles during the companies' own slot of the sequence, in booking
// order.
type Companies struct {
	companies []Company
	pending   []transaction
}

var companyNames = []string{
	"Iron Haul Co.", "Grand Pacific", "Blackrock Freight", "Meridian Lines",
}

func newCompanies() *Companies { return &Companies{} }

func (c *Companies) Name() string { return "companies" }

// Book queues an amount against a company. Negative amounts are
// expenses.
func (c *Companies) Book(company uint32, amount int64) {
	c.pending = append(c.pending, transaction{company: company, amount: amount})
}

func (c *Companies) settle() {
	for _, tx := range c.pending {
		for i := range c.companies {
			if c.companies[i].ID == tx.company {
				c.companies[i].Cash += tx.amount
				break
			}
		}
	}
	c.pending = c.pending[:0]
}

func (c *Companies) Update(ctx *sim.Context) sim.Status {
	c.settle()
	return sim.Continue
}

// UpdateDaily closes the day's books: bookings made during the
// boundary passes settle here, then overdrawn accounts pay the fee.
func (c *Companies) UpdateDaily(ctx *sim.Context) sim.Status {
	c.settle()
	for i := range c.companies {
		if c.companies[i].Cash < 0 {
			c.companies[i].Cash -= overdraftFee
		}
	}
	return sim.Continue
}

func (c *Companies) UpdateQuarterly(ctx *sim.Context) sim.Status {
	for i := range c.companies {
		co := &c.companies[i]
		switch {
		case co.Cash >= 0 && co.Rating < 100:
			co.Rating++
		case co.Cash < 0 && co.Rating > 0:
			co.Rating--
		}
	}
	return sim.Continue
}

func (c *Companies) UpdateYearly(ctx *sim.Context) sim.Status {
	for i := range c.companies {
		c.companies[i].Age++
	}
	return sim.Continue
}

// Finance returns the first monthly pass: interest on outstanding
// loans.
func (c *Companies) Finance() sim.MonthUpdater { return companyFinance{c} }

// Headquarters returns the second monthly pass: head office upkeep and
// automatic loan repayment.
func (c *Companies) Headquarters() sim.MonthUpdater { return companyHeadquarters{c} }

type companyFinance struct{ c *Companies }

func (p companyFinance) UpdateMonthly(ctx *sim.Context) sim.Status {
	for i := range p.c.companies {
		co := &p.c.companies[i]
		co.Cash -= co.Loan * loanInterestAPR / 100 / 12
	}
	return sim.Continue
}

type companyHeadquarters struct{ c *Companies }

func (p companyHeadquarters) UpdateMonthly(ctx *sim.Context) sim.Status {
	for i := range p.c.companies {
		co := &p.c.companies[i]
		co.Cash -= hqUpkeep
		if co.Loan > 0 && co.Cash > 2*co.Loan {
			pay := int64(loanRepayment)
			if pay > co.Loan {
				pay = co.Loan
			}
			co.Loan -= pay
			co.Cash -= pay
		}
	}
	return sim.Continue
}

// Get returns the company with the given id.
func (c *Companies) Get(id uint32) (Company, bool) {
	for _, co := range c.companies {
		if co.ID == id {
			return co, true
		}
	}
	return Company{}, false
}

func (c *Companies) count() int { return len(c.companies) }

func (c *Companies) generate(cfg Config, prng *rng.Prng) {
	c.companies = make([]Company, 0, cfg.Companies)
	c.pending = nil
	for i := 0; i < cfg.Companies; i++ {
		c.companies = append(c.companies, Company{
			ID:     uint32(i + 1),
			Name:   companyNames[i%len(companyNames)],
			Cash:   int64(8000 + prng.NextN(4001)),
			Loan:   5000,
			Rating: 50,
		})
	}
}

func (c *Companies) snapshot() []Company {
	out := make([]Company, len(c.companies))
	copy(out, c.companies)
	return out
}

func (c *Companies) snapshotPending() []PendingTransaction {
	if len(c.pending) == 0 {
		return nil
	}
	out := make([]PendingTransaction, len(c.pending))
	for i, tx := range c.pending {
		out[i] = PendingTransaction{Company: tx.company, Amount: tx.amount}
	}
	return out
}

func (c *Companies) restore(companies []Company, pending []PendingTransaction) {
	c.companies = append([]Company(nil), companies...)
	c.pending = c.pending[:0]
	for _, tx := range pending {
		c.pending = append(c.pending, transaction{company: tx.Company, amount: tx.Amount})
	}
}
