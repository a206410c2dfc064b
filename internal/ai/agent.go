package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"portfolio-agent/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// Agent wraps the OpenAI Responses API for intent routing and slot
// extraction. Both calls use strict structured output so the model can only
// answer in the shapes routerOut and slotOut describe.
type Agent struct {
	client *openai.Client
	model  shared.ResponsesModel
}

// NewAgent creates an Agent. An empty model falls back to gpt-4o-mini.
func NewAgent(apiKey, model string) *Agent {
	if model == "" {
		model = string(shared.ChatModelGPT4oMini)
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client, model: shared.ResponsesModel(model)}
}

// routerOut is the structured-output shape for intent classification.
type routerOut struct {
	Intent     string  `json:"intent" jsonschema:"enum=compare_properties,enum=property_summary,enum=portfolio_summary,enum=expense_analysis,enum=list_properties,enum=asset_details,enum=tenant_summary,enum=unknown" jsonschema_description:"The single best intent for the query"`
	Confidence float64 `json:"confidence" jsonschema_description:"Classifier confidence between 0.0 and 1.0"`
}

// slotOut is the structured-output shape for entity extraction. Timeframe
// fields are zero/empty when the query does not mention them.
type slotOut struct {
	Properties  []string `json:"properties" jsonschema_description:"Property names mentioned in the query, e.g. Building 120"`
	Tenants     []string `json:"tenants" jsonschema_description:"Tenant names mentioned in the query, e.g. Tenant 8"`
	Year        int      `json:"year" jsonschema_description:"Calendar year like 2024, 0 when not specified"`
	Quarter     string   `json:"quarter" jsonschema_description:"Quarter code like 2024-Q4, empty when not specified"`
	Month       string   `json:"month" jsonschema_description:"Month code like 2025-M02, empty when not specified"`
	Metric      string   `json:"metric" jsonschema:"enum=net,enum=revenue,enum=expense" jsonschema_description:"Which figure the user asked about; net when unclear"`
	BreakdownBy string   `json:"breakdown_by" jsonschema:"enum=,enum=ledger_group,enum=ledger_category,enum=tenant_name" jsonschema_description:"Grouping column for expense breakdowns, empty for the default"`
	TopN        int      `json:"top_n" jsonschema_description:"Requested list length for top-expense queries, 0 for the default"`
}

// ClassifyIntent asks the model for the single best intent label.
func (a *Agent) ClassifyIntent(ctx context.Context, text string) (core.Classification, error) {
	prompt := fmt.Sprintf(`You are an intent classifier for a real estate financial assistant.
Available intents:
- compare_properties: compare 2+ properties by P&L for a period (the query explicitly compares assets)
- property_summary: P&L (profit/loss) for a single named property for a period
- portfolio_summary: P&L across all properties (e.g. "total P&L", "net profit", "P&L for 2024" with no property named)
- expense_analysis: top or largest expenses for a property or the portfolio
- list_properties: show the list of all properties (e.g. "what properties do you have")
- asset_details: descriptive details about a single asset (e.g. "tell me about Building X")
- tenant_summary: P&L for a named tenant
- unknown: everything else

IMPORTANT: "all properties", "entire portfolio" or "total P&L" means portfolio_summary, NOT list_properties.

Return the intent and a confidence between 0 and 1.

Query: %s`, text)

	var out routerOut
	if err := a.call(ctx, prompt, "intent_classification", "The routed intent for one user query", &out); err != nil {
		return core.Classification{}, err
	}
	intent := core.IntentLabel(out.Intent)
	switch intent {
	case core.IntentCompareProperties, core.IntentPropertySummary, core.IntentPortfolioSummary,
		core.IntentExpenseAnalysis, core.IntentListProperties, core.IntentAssetDetails,
		core.IntentTenantSummary:
	default:
		intent = core.IntentUnknown
	}
	conf := out.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return core.Classification{Intent: intent, Confidence: conf}, nil
}

// ExtractSlots asks the model for the structured parameters of one query.
// The returned SlotSet is fresh extraction only; carry-over from prior turns
// is the caller's concern.
func (a *Agent) ExtractSlots(ctx context.Context, text string) (core.SlotSet, error) {
	prompt := fmt.Sprintf(`Extract parameters from the user's query about a real estate portfolio.
Timeframe fields:
- year: a calendar year like 2024
- quarter: format "2024-Q4"
- month: format "2025-M02"
Property names look like "Building 120" and tenants like "Tenant 8".

Rules:
- properties: list of property names exactly as written (two names for a comparison)
- tenants: list of tenant names exactly as written
- if no timeframe is mentioned, leave year 0 and quarter/month empty
- metric is "revenue" or "expense" only when the query asks for that figure alone, otherwise "net"

Query: %s`, text)

	var out slotOut
	if err := a.call(ctx, prompt, "slot_extraction", "The structured parameters of one user query", &out); err != nil {
		return core.SlotSet{}, err
	}
	return out.toSlots()
}

func (a *Agent) call(ctx context.Context, prompt, name, description string, dst any) error {
	schemaJSON, err := json.Marshal(generateSchema(dst))
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: a.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        name,
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt(description),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return fmt.Errorf("empty response content")
	}
	if err := json.Unmarshal([]byte(content), dst); err != nil {
		return fmt.Errorf("failed to parse completion: %w", err)
	}
	return nil
}

func (s slotOut) toSlots() (core.SlotSet, error) {
	slots := core.SlotSet{
		Properties: trimAll(s.Properties),
		Tenants:    trimAll(s.Tenants),
		TopN:       s.TopN,
	}

	period := core.Period{Year: s.Year}
	if s.Quarter != "" {
		var y, q int
		if _, err := fmt.Sscanf(s.Quarter, "%d-Q%d", &y, &q); err != nil || q < 1 || q > 4 {
			return core.SlotSet{}, fmt.Errorf("bad quarter code %q", s.Quarter)
		}
		period = core.Period{Year: y, Quarter: q}
	} else if s.Month != "" {
		var y, m int
		if _, err := fmt.Sscanf(s.Month, "%d-M%d", &y, &m); err != nil || m < 1 || m > 12 {
			return core.SlotSet{}, fmt.Errorf("bad month code %q", s.Month)
		}
		period = core.Period{Year: y, Month: time.Month(m)}
	}
	slots.Period = period

	switch s.Metric {
	case "revenue":
		slots.Metric = core.CategoryRevenue
	case "expense":
		slots.Metric = core.CategoryExpense
	}

	switch core.BreakdownKey(s.BreakdownBy) {
	case core.BreakdownLedgerGroup, core.BreakdownLedgerCategory, core.BreakdownTenant:
		slots.BreakdownBy = core.BreakdownKey(s.BreakdownBy)
	}
	return slots, nil
}

func trimAll(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func generateSchema(v any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}
