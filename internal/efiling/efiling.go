// Package efiling serves static guidance on filing each task's document
// with New York courts and agencies.
package efiling

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Lawguy81/cnslr-legal-platform/internal/catalog"
)

//go:embed efiling.yaml
var guideYAML []byte

// Availability says whether a court accepts electronic filing.
type Availability string

const (
	Available   Availability = "available"
	Limited     Availability = "limited"
	Unavailable Availability = "unavailable"
)

// System is an electronic filing system.
type System struct {
	Name               string   `yaml:"name" json:"name"`
	URL                string   `yaml:"url" json:"url"`
	Description        string   `yaml:"description" json:"description"`
	SupportedCaseTypes []string `yaml:"supportedCaseTypes" json:"supportedCaseTypes"`
	Features           []string `yaml:"features,omitempty" json:"features,omitempty"`
	Note               string   `yaml:"note,omitempty" json:"note,omitempty"`
}

// Court is a court that hears one of the supported task types.
type Court struct {
	Name       string       `yaml:"name" json:"name"`
	EFiling    Availability `yaml:"eFiling" json:"eFiling"`
	System     string       `yaml:"system,omitempty" json:"system,omitempty"`
	FilingFee  string       `yaml:"filingFee,omitempty" json:"filingFee,omitempty"`
	ClaimLimit string       `yaml:"claimLimit,omitempty" json:"claimLimit,omitempty"`
	Website    string       `yaml:"website,omitempty" json:"website,omitempty"`
	Note       string       `yaml:"note,omitempty" json:"note,omitempty"`
}

// Fees describes how filing fees are paid.
type Fees struct {
	Note           string   `yaml:"note" json:"note"`
	PaymentMethods []string `yaml:"paymentMethods" json:"paymentMethods"`
	FeeWaiver      string   `yaml:"feeWaiver" json:"feeWaiver"`
}

// Requirements apply to every electronic filing.
type Requirements struct {
	General         []string `yaml:"general" json:"general"`
	SelfRepresented []string `yaml:"selfRepresented" json:"selfRepresented"`
	Fees            Fees     `yaml:"fees" json:"fees"`
}

// Eligibility is the answer to an e-filing eligibility check.
type Eligibility struct {
	Eligible  bool     `yaml:"eligible" json:"eligible"`
	System    string   `yaml:"system" json:"system"`
	Message   string   `yaml:"message" json:"message"`
	NextSteps []string `yaml:"nextSteps" json:"nextSteps"`
}

// TaskInfo is the filing guidance for one task type. Message and
// Recommendation are set only on the fallback record.
type TaskInfo struct {
	Court                string       `yaml:"court,omitempty" json:"court,omitempty"`
	EFiling              Availability `yaml:"eFiling,omitempty" json:"eFiling,omitempty"`
	System               string       `yaml:"system,omitempty" json:"system,omitempty"`
	Website              string       `yaml:"website,omitempty" json:"website,omitempty"`
	Process              []string     `yaml:"process,omitempty" json:"process,omitempty"`
	Deadline             string       `yaml:"deadline,omitempty" json:"deadline,omitempty"`
	Fee                  string       `yaml:"fee,omitempty" json:"fee,omitempty"`
	Limit                string       `yaml:"limit,omitempty" json:"limit,omitempty"`
	Tip                  string       `yaml:"tip,omitempty" json:"tip,omitempty"`
	Documents            []string     `yaml:"documents,omitempty" json:"documents,omitempty"`
	AlternativeResources []string     `yaml:"alternativeResources,omitempty" json:"alternativeResources,omitempty"`
	Message              string       `yaml:"message,omitempty" json:"message,omitempty"`
	Recommendation       string       `yaml:"recommendation,omitempty" json:"recommendation,omitempty"`
}

// Fallback is returned for task types without specific guidance.
var Fallback = TaskInfo{
	Message:        "Filing information not available for this document type",
	Recommendation: "Consult with a legal professional or court clerk",
}

// Guide holds every piece of filing guidance.
type Guide struct {
	Systems      map[string]System   `yaml:"systems" json:"systems"`
	Courts       []Court             `yaml:"courts" json:"supportedCourts"`
	Requirements Requirements        `yaml:"requirements" json:"requirements"`
	Eligibility  Eligibility         `yaml:"eligibility" json:"-"`
	Tasks        map[string]TaskInfo `yaml:"tasks" json:"-"`
}

// Parse decodes and checks a guide.
func Parse(data []byte) (*Guide, error) {
	var g Guide
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse filing guide: %w", err)
	}
	for id, info := range g.Tasks {
		if _, ok := catalog.ParseTaskType(id); !ok {
			return nil, fmt.Errorf("filing guide: unknown task %q", id)
		}
		switch info.EFiling {
		case Available, Limited, Unavailable:
		default:
			return nil, fmt.Errorf("filing guide: task %q has e-filing %q", id, info.EFiling)
		}
	}
	return &g, nil
}

var (
	defaultOnce  sync.Once
	defaultGuide *Guide
)

// Default returns the embedded guide.
func Default() *Guide {
	defaultOnce.Do(func() {
		g, err := Parse(guideYAML)
		if err != nil {
			panic(err)
		}
		defaultGuide = g
	})
	return defaultGuide
}

// ForTask returns guidance for taskID, or Fallback. ok reports whether
// specific guidance exists.
func (g *Guide) ForTask(taskID string) (info TaskInfo, ok bool) {
	info, ok = g.Tasks[taskID]
	if !ok {
		return Fallback, false
	}
	return info, true
}
