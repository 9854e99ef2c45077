package domain

// AnalysisResult is the structured output of the analysis provider for a
// piece of raw content. It is ephemeral: the caller maps it into Article
// fields before persisting anything.
type AnalysisResult struct {
	Title               string         `json:"title"`
	Summary             string         `json:"summary"`
	SocialPost          string         `json:"bluesky_post"`
	MainPoints          []string       `json:"main_points"`
	RightsAnalysis      RightsAnalysis `json:"human_rights_analysis"`
	SuggestedCategories []string       `json:"suggested_categories"`

	// Presentation derivatives rendered from the structured data above.
	MainPointsHTML     string `json:"-"`
	RightsAnalysisHTML string `json:"-"`
}

// RightsAnalysis groups the three fixed sub-domains of the assessment.
type RightsAnalysis struct {
	CivilPolitical    RightsSection `json:"civil_political_rights"`
	EconomicSocial    RightsSection `json:"economic_social_cultural_rights"`
	HumanitarianLaw   RightsSection `json:"international_humanitarian_law"`
	OverallAssessment string        `json:"overall_assessment"`
	Recommendations   []string      `json:"recommendations"`
}

// RightsSection is one sub-domain of the rights analysis. Only sections
// flagged relevant are rendered.
type RightsSection struct {
	Relevant bool     `json:"relevant"`
	Points   []string `json:"points"`
	Concerns []string `json:"concerns"`
}

// Review is the editorial rewrite generated from an existing article.
type Review struct {
	Title          string          `json:"title"`
	Lead           string          `json:"lead"`
	Sections       []ReviewSection `json:"sections"`
	Hashtags       []string        `json:"hashtags"`
	CharacterCount int             `json:"character_count"`

	HTML      string `json:"-"`
	PlainText string `json:"-"`
}

// ReviewSection is a single titled block of the rewrite.
type ReviewSection struct {
	Subheading string `json:"subheading"`
	Content    string `json:"content"`
}
