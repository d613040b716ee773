package pricing

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type PlanID string

const (
	PlanStarter    PlanID = "starter"
	PlanStandard   PlanID = "standard"
	PlanEnterprise PlanID = "enterprise"
)

type AddOnID string

const (
	AddOnAdmin   AddOnID = "admin"
	AddOnTeacher AddOnID = "teacher"
	AddOnStudent AddOnID = "student"
	AddOnParent  AddOnID = "parent"
	AddOnStorage AddOnID = "storage"
)

// AddOnOrder is the display order of add-on lines.
var AddOnOrder = []AddOnID{AddOnAdmin, AddOnTeacher, AddOnStudent, AddOnParent, AddOnStorage}

// StorageBlockGB is the size of one storage add-on unit.
const StorageBlockGB = 10

var (
	ErrUnknownPlan  = errors.New("unknown plan")
	ErrUnknownAddOn = errors.New("unknown add-on")
)

type AddOnRate struct {
	UnitPrice decimal.Decimal
	MaxUnits  int
}

// UpgradeRule fires when the plan's monthly price plus add-ons reaches Threshold.
type UpgradeRule struct {
	Target      PlanID
	Threshold   decimal.Decimal
	TargetPrice decimal.Decimal
}

type Plan struct {
	ID              PlanID
	MonthlyPrice    decimal.Decimal
	MaxStorageLabel string
	AddOns          map[AddOnID]AddOnRate
	Upgrade         *UpgradeRule
}

func (p Plan) HasAddOns() bool { return len(p.AddOns) > 0 }

// Catalog is the immutable set of plans and promo codes.
type Catalog struct {
	plans  map[PlanID]Plan
	order  []PlanID
	promos PromoTable
}

func (c *Catalog) Plan(id PlanID) (Plan, bool) {
	p, ok := c.plans[id]
	return p, ok
}

// Plans returns plans in catalog order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}

func (c *Catalog) Promos() PromoTable { return c.promos }

// ParsePlanID normalizes s and checks it against the catalog.
func (c *Catalog) ParsePlanID(s string) (PlanID, error) {
	id := PlanID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := c.plans[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
	return id, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultCatalog returns the built-in starter/standard/enterprise catalog.
func DefaultCatalog() *Catalog {
	starter := Plan{
		ID:              PlanStarter,
		MonthlyPrice:    d("49"),
		MaxStorageLabel: "50 GB",
		AddOns: map[AddOnID]AddOnRate{
			AddOnAdmin:   {UnitPrice: d("5.00"), MaxUnits: 20},
			AddOnTeacher: {UnitPrice: d("3.00"), MaxUnits: 50},
			AddOnStudent: {UnitPrice: d("0.50"), MaxUnits: 500},
			AddOnParent:  {UnitPrice: d("0.25"), MaxUnits: 500},
			AddOnStorage: {UnitPrice: d("2.00"), MaxUnits: 50},
		},
		Upgrade: &UpgradeRule{Target: PlanStandard, Threshold: d("70"), TargetPrice: d("99")},
	}
	standard := Plan{
		ID:              PlanStandard,
		MonthlyPrice:    d("99"),
		MaxStorageLabel: "200 GB",
		AddOns: map[AddOnID]AddOnRate{
			AddOnAdmin:   {UnitPrice: d("4.00"), MaxUnits: 20},
			AddOnTeacher: {UnitPrice: d("2.50"), MaxUnits: 100},
			AddOnStudent: {UnitPrice: d("0.40"), MaxUnits: 2000},
			AddOnParent:  {UnitPrice: d("0.20"), MaxUnits: 2000},
			AddOnStorage: {UnitPrice: d("1.50"), MaxUnits: 100},
		},
		Upgrade: &UpgradeRule{Target: PlanEnterprise, Threshold: d("180"), TargetPrice: d("299")},
	}
	enterprise := Plan{
		ID:              PlanEnterprise,
		MonthlyPrice:    d("299"),
		MaxStorageLabel: "Unlimited",
	}

	return &Catalog{
		plans: map[PlanID]Plan{
			PlanStarter:    starter,
			PlanStandard:   standard,
			PlanEnterprise: enterprise,
		},
		order:  []PlanID{PlanStarter, PlanStandard, PlanEnterprise},
		promos: DefaultPromoTable(),
	}
}

type catalogFile struct {
	Plans []struct {
		ID           string  `yaml:"id"`
		MonthlyPrice float64 `yaml:"monthly_price"`
		MaxStorage   string  `yaml:"max_storage"`
		AddOns       map[string]struct {
			UnitPrice float64 `yaml:"unit_price"`
			MaxUnits  int     `yaml:"max_units"`
		} `yaml:"add_ons"`
		Upgrade *struct {
			Target    string  `yaml:"target"`
			Threshold float64 `yaml:"threshold"`
		} `yaml:"upgrade"`
	} `yaml:"plans"`
	PromoCodes map[string]float64 `yaml:"promo_codes"`
}

// LoadCatalog reads a YAML catalog file. Promo codes default to the built-in table
// when the file has none.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b)
}

func ParseCatalog(b []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, errors.New("catalog has no plans")
	}

	c := &Catalog{plans: make(map[PlanID]Plan, len(f.Plans))}
	for _, fp := range f.Plans {
		id := PlanID(strings.ToLower(strings.TrimSpace(fp.ID)))
		if id == "" {
			return nil, errors.New("catalog plan without id")
		}
		if _, dup := c.plans[id]; dup {
			return nil, fmt.Errorf("duplicate plan %q", id)
		}
		if fp.MonthlyPrice <= 0 {
			return nil, fmt.Errorf("plan %q: monthly_price must be positive", id)
		}

		p := Plan{
			ID:              id,
			MonthlyPrice:    decimal.NewFromFloat(fp.MonthlyPrice),
			MaxStorageLabel: fp.MaxStorage,
		}
		if len(fp.AddOns) > 0 {
			p.AddOns = make(map[AddOnID]AddOnRate, len(fp.AddOns))
			for name, rate := range fp.AddOns {
				aid := AddOnID(name)
				if !knownAddOn(aid) {
					return nil, fmt.Errorf("plan %q: %w %q", id, ErrUnknownAddOn, name)
				}
				if rate.MaxUnits < 0 || rate.UnitPrice < 0 {
					return nil, fmt.Errorf("plan %q: add-on %q has negative values", id, name)
				}
				p.AddOns[aid] = AddOnRate{UnitPrice: decimal.NewFromFloat(rate.UnitPrice), MaxUnits: rate.MaxUnits}
			}
		}
		if fp.Upgrade != nil {
			p.Upgrade = &UpgradeRule{
				Target:    PlanID(strings.ToLower(fp.Upgrade.Target)),
				Threshold: decimal.NewFromFloat(fp.Upgrade.Threshold),
			}
		}
		c.plans[id] = p
		c.order = append(c.order, id)
	}

	// upgrade targets take their price from the target plan
	for id, p := range c.plans {
		if p.Upgrade == nil {
			continue
		}
		target, ok := c.plans[p.Upgrade.Target]
		if !ok {
			return nil, fmt.Errorf("plan %q: upgrade target %q: %w", id, p.Upgrade.Target, ErrUnknownPlan)
		}
		p.Upgrade.TargetPrice = target.MonthlyPrice
	}

	if len(f.PromoCodes) > 0 {
		c.promos = make(PromoTable, len(f.PromoCodes))
		for code, fraction := range f.PromoCodes {
			if fraction <= 0 || fraction > 1 {
				return nil, fmt.Errorf("promo %q: discount must be in (0,1]", code)
			}
			c.promos[normalizeCode(code)] = decimal.NewFromFloat(fraction)
		}
	} else {
		c.promos = DefaultPromoTable()
	}
	return c, nil
}

func knownAddOn(id AddOnID) bool {
	for _, a := range AddOnOrder {
		if a == id {
			return true
		}
	}
	return false
}
