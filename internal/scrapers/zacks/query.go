package zacks

import (
	"encoding/json"
	"fmt"
	"strconv"

	"stockclients/internal/components/telemetry"
	"stockclients/internal/scrapers/scrape"
)

const report_registry_build_query = "registry.build-query"

// FormField is one key/value pair of an outbound form, order is significant since the
// screener backend reads the array-valued fields positionally.
type FormField struct {
	Key   string
	Value string
}

// FieldConfig is one screening criterion, ex. {"id": "zacks_rank", "value": 1, "operator": "<="}.
type FieldConfig struct {
	ID       string `json:"id"`
	Value    any    `json:"value"`
	Operator string `json:"operator"`
}

// Strategy translates a (value, operator) pair into the provider's form fields.
type Strategy interface {
	Encode(value, operator string) ([]FormField, error)
}

// OperatorTable maps a comparison operator to the provider's numeric operator code.
type OperatorTable map[string]int

var (
	OperatorsA = OperatorTable{">=": 6, "<=": 7, "=": 8, "<>": 17}
	OperatorsB = OperatorTable{">=": 12, "<=": 13, "=": 19, "<>": 20}
)

// OperatorStrategy encodes a screener item that is compared with one of the operators
// of its table.
type OperatorStrategy struct {
	Item      string
	Label     string
	Key       string
	Operators OperatorTable
}

func (s OperatorStrategy) Encode(value, operator string) ([]FormField, error) {
	code, ok := s.Operators[operator]
	if !ok {
		return nil, &scrape.UnsupportedOperatorError{Field: s.Label, Operator: operator}
	}
	return []FormField{
		{Key: "operator[]", Value: strconv.Itoa(code)},
		{Key: "value[]", Value: value},
		{Key: "p_items[]", Value: s.Item},
		{Key: "p_item_name[]", Value: s.Label},
		{Key: "p_item_key[]", Value: s.Key},
	}, nil
}

func operatorA(item, label, key string) OperatorStrategy {
	return OperatorStrategy{Item: item, Label: label, Key: key, Operators: OperatorsA}
}

func operatorB(item, label, key string) OperatorStrategy {
	return OperatorStrategy{Item: item, Label: label, Key: key, Operators: OperatorsB}
}

// Registry maps a logical field id to its strategy.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

func (r *Registry) Register(id string, strategy Strategy) {
	r.strategies[id] = strategy
}

func (r *Registry) Lookup(id string) (Strategy, bool) {
	strategy, ok := r.strategies[id]
	return strategy, ok
}

// DefaultRegistry holds every screener field the scraper knows about.
var DefaultRegistry = NewRegistry()

func init() {
	fields := map[string]Strategy{
		"zacks_rank":           operatorA("15005", "Zacks Rank", "0"),
		"zacks_industry_rank":  operatorA("15025", "Zacks Industry Rank", "1"),
		"value_score":          operatorB("15030", "Value Score", "2"),
		"growth_score":         operatorB("15035", "Growth Score", "3"),
		"momentum_score":       operatorB("15040", "Momentum Score", "4"),
		"vgm_score":            operatorB("15045", "VGM Score", "5"),
		"earnings_esp":         operatorA("17060", "Earnings ESP", "6"),
		"52_week_high":         operatorA("14010", "52 Week High", "7"),
		"market_cap":           operatorA("12010", "Market Cap (mil)", "8"),
		"last_eps_surprise":    operatorA("17005", "Last EPS Surprise (%)", "9"),
		"p/e_f1":               operatorA("22010", "P/E (F1)", "10"),
		"num_brokers":          operatorA("16010", "# of Brokers in Rating", "11"),
		"percent_change_f1":    operatorA("18020", "% Change F1 Est. (4 weeks)", "13"),
		"div_yield":            operatorA("25005", "Div. Yield %", "14"),
		"avg_volume":           operatorA("12015", "Avg. Volume", "15"),
		"last_reported_qtr":    operatorA("17030", "Last Reported Qtr (yyyymm)", "68"),
		"last_eps_report_date": operatorA("17050", "Last EPS Report Date (yyyymmdd)", "72"),
		"next_eps_report_date": operatorA("17055", "Next EPS Report Date (yyyymmdd)", "73"),
		"q0_consensus_est":     operatorA("19005", "Q0 Consensus Est. (last completed fiscal Qtr)", "80"),
	}
	for id, strategy := range fields {
		DefaultRegistry.Register(id, strategy)
	}
}

// DefaultBaseParams are the fixed fields every screen submission starts with.
func DefaultBaseParams() []FormField {
	return []FormField{
		{Key: "is_only_matches", Value: "1"},
		{Key: "is_premium_exists", Value: "0"},
		{Key: "is_edit_view", Value: "0"},
		{Key: "saved_screen_name", Value: ""},
		{Key: "tab_id", Value: "1"},
		{Key: "start_page", Value: "1"},
		{Key: "no_of_rec", Value: "15"},
		{Key: "sort_col", Value: "2"},
		{Key: "sort_type", Value: "ASC"},
	}
}

func formatValue(value any) (string, error) {
	switch v := value.(type) {
	case json.Number:
		return v.String(), nil
	default:
		return scrape.Text(v)
	}
}

// BuildQuery appends the encoded fields of every config, in order, after a copy of base.
// Configs with an unknown id are skipped and reported, an unsupported operator fails
// the whole query. Neither base nor configs are modified.
func (r *Registry) BuildQuery(tel telemetry.API, base []FormField, configs []FieldConfig) ([]FormField, error) {
	out := make([]FormField, len(base), len(base)+len(configs)*5)
	copy(out, base)

	for _, cfg := range configs {
		strategy, ok := r.Lookup(cfg.ID)
		if !ok {
			tel.ReportWarning(report_registry_build_query, &scrape.UnknownFieldError{ID: cfg.ID})
			continue
		}

		value, err := formatValue(cfg.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", cfg.ID, err)
		}
		fields, err := strategy.Encode(value, cfg.Operator)
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}

	return out, nil
}
