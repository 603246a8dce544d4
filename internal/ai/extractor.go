package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amishk599/insightd/internal/model"
)

// Extractor turns combined insight text into structured rows using strict
// JSON-schema completions.
type Extractor struct {
	provider LLMProvider
	model    string
}

func NewExtractor(provider LLMProvider, modelName string) *Extractor {
	return &Extractor{provider: provider, model: modelName}
}

// CombineContents joins insight bodies the way the extractor expects them.
func CombineContents(contents []string) string {
	return strings.Join(contents, "\n\n")
}

func (e *Extractor) ExtractVisa(ctx context.Context, text string) ([]model.VisaInfo, error) {
	var out struct {
		VisaList []model.VisaInfo `json:"visa_list"`
	}
	if err := e.extract(ctx, structureVisaPromptRaw, "VisaInfoList", visaListSchema, text, &out); err != nil {
		return nil, err
	}
	return out.VisaList, nil
}

func (e *Extractor) ExtractCulture(ctx context.Context, text string) ([]model.CultureInfo, error) {
	var out struct {
		CultureList []model.CultureInfo `json:"culture_list"`
	}
	if err := e.extract(ctx, structureCulturePromptRaw, "CultureInfoList", cultureListSchema, text, &out); err != nil {
		return nil, err
	}
	return out.CultureList, nil
}

func (e *Extractor) ExtractIndustry(ctx context.Context, text string) ([]model.IndustryInfo, error) {
	var out struct {
		IndustryList []model.IndustryInfo `json:"industry_list"`
	}
	if err := e.extract(ctx, structureIndustryPromptRaw, "IndustryInfoList", industryListSchema, text, &out); err != nil {
		return nil, err
	}
	return out.IndustryList, nil
}

func (e *Extractor) extract(ctx context.Context, prompt, name string, schema map[string]any, text string, dst any) error {
	raw, err := e.provider.Complete(ctx, CompletionRequest{
		Model:  e.model,
		System: strings.TrimSpace(prompt),
		User:   text,
		Format: &ResponseFormat{Name: name, Schema: schema},
	})
	if err != nil {
		return fmt.Errorf("extract %s: %w", name, err)
	}
	// Structured outputs guarantee schema-valid JSON, so any decode failure
	// is a provider fault rather than something to repair.
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}
