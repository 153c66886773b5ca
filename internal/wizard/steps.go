package wizard

// InputKind selects the widget a step renders.
type InputKind string

const (
	InputRadio       InputKind = "radio"
	InputYesNo       InputKind = "yesno"
	InputText        InputKind = "text"
	InputTextarea    InputKind = "textarea"
	InputCheckboxes  InputKind = "checkboxes"
	InputAgreement   InputKind = "agreement"
	InputDescription InputKind = "description"
)

type Option struct {
	Value string
	Label string
}

// Input describes how a step collects its answer. Name is the form field
// and the FormAnswers JSON key.
type Input struct {
	Kind        InputKind
	Name        string
	Options     []Option
	Placeholder string
	Label       string

	// Free-text qualifier shown when the "Other" checkbox is selected.
	OtherName        string
	OtherPlaceholder string

	// Agreement text the user must accept.
	Document string
}

// Step is one screen of the wizard.
type Step struct {
	Key         string
	Title       string
	Description string
	Input       Input

	// Fields are the FormAnswers fields that must validate before leaving
	// this step.
	Fields []string
}

// Valid reports whether answers satisfy this step.
func (s Step) Valid(answers FormAnswers) bool {
	if len(s.Fields) == 0 {
		return true
	}
	return answers.validFields(s.Fields...)
}

// DefaultSteps returns the ability-search questionnaire in order.
func DefaultSteps() []Step {
	return []Step{
		{
			Key:         "inventionStage",
			Title:       "Invention Stage",
			Description: "What stage is your invention in?",
			Input: Input{Kind: InputRadio, Name: "inventionStage", Options: []Option{
				{"idea", "Idea only"},
				{"prototype", "Prototype developed"},
				{"market", "Product in market"},
			}},
			Fields: []string{"InventionStage"},
		},
		{
			Key:         "priorArtSearch",
			Title:       "Prior Art Search",
			Description: "Have you conducted any prior art searches?",
			Input: Input{Kind: InputRadio, Name: "priorArtSearch", Options: []Option{
				{"self", "I have conducted searches myself."},
				{"professional", "Yes, but with professional help."},
				{"no", "No, I need assistance with this."},
			}},
			Fields: []string{"PriorArtSearch"},
		},
		{
			Key:         "novelty",
			Title:       "Novelty",
			Description: "Do you believe your invention is novel, and why?",
			Input: Input{Kind: InputTextarea, Name: "novelty",
				Placeholder: "Explain why you believe your invention is novel..."},
			Fields: []string{"Novelty"},
		},
		{
			Key:         "publicDisclosure",
			Title:       "Public Disclosure",
			Description: "Have you disclosed your invention publicly in any form?",
			Input: Input{Kind: InputYesNo, Name: "publicDisclosure", Options: []Option{
				{"true", "Yes (Provide details)"},
				{"false", "No"},
			}},
			Fields: []string{"PublicDisclosure"},
		},
		{
			Key:         "patentGoals",
			Title:       "Patent Goals",
			Description: "What are your main goals for patenting the invention?",
			Input: Input{Kind: InputCheckboxes, Name: "patentGoals", Label: "Select all that apply:",
				Options: []Option{
					{GoalProtectIP, GoalProtectIP},
					{GoalInvestors, GoalInvestors},
					{GoalLicensing, GoalLicensing},
					{GoalOther, GoalOther},
				},
				OtherName:        "otherGoal",
				OtherPlaceholder: "Please specify other goals",
			},
			Fields: []string{"PatentGoals"},
		},
		{
			Key:         "protectionRegions",
			Title:       "Protection Regions",
			Description: "Are you interested in patent protection in specific countries or regions?",
			Input: Input{Kind: InputRadio, Name: "protectionRegions", Options: []Option{
				{"domestic", "Domestic only"},
				{"international", "International"},
			}},
			Fields: []string{"ProtectionRegions"},
		},
		{
			Key:         "timeline",
			Title:       "Timeline",
			Description: "What is your timeline for filing a patent application?",
			Input: Input{Kind: InputRadio, Name: "timeline", Options: []Option{
				{"immediate", "Immediate (within 1-3 months)"},
				{"short-term", "Short-term (within 4-6 months)"},
				{"no-timeline", "No specific timeline"},
			}},
			Fields: []string{"Timeline"},
		},
		{
			Key:         "budget",
			Title:       "Budget",
			Description: "What is your budget for obtaining a patent?",
			Input:       Input{Kind: InputText, Name: "budget", Placeholder: "Enter your budget range"},
			Fields:      []string{"Budget"},
		},
		{
			Key:         "disclosureProcessFamiliarity",
			Title:       "Disclosure Process Familiarity",
			Description: "Are you familiar with the invention disclosure process?",
			Input: Input{Kind: InputRadio, Name: "disclosureProcessFamiliarity", Options: []Option{
				{"familiar", "Yes, I am familiar."},
				{"somewhat", "Somewhat familiar, but need more details."},
				{"not-familiar", "Not familiar at all."},
			}},
			Fields: []string{"DisclosureProcessFamiliarity"},
		},
		{
			Key:         "needDisclosureExplanation",
			Title:       "Disclosure Explanation",
			Description: "Would you like a detailed explanation of how invention disclosure can impact your patent application?",
			Input: Input{Kind: InputYesNo, Name: "needDisclosureExplanation", Options: []Option{
				{"true", "Yes, please provide details."},
				{"false", "No, I understand the implications."},
			}},
			Fields: []string{"NeedDisclosureExplanation"},
		},
		{
			Key:         "needDisclosureAssistance",
			Title:       "Disclosure Assistance",
			Description: "Would you like assistance in preparing a comprehensive invention disclosure document?",
			Input: Input{Kind: InputYesNo, Name: "needDisclosureAssistance", Options: []Option{
				{"true", "Yes, I need help with documentation."},
				{"false", "No, I will prepare it myself."},
			}},
			Fields: []string{"NeedDisclosureAssistance"},
		},
		{
			Key:         "needConfidentialityAgreement",
			Title:       "Confidentiality Agreement",
			Description: "Do you require confidentiality agreements before disclosing details of your invention?",
			Input: Input{Kind: InputYesNo, Name: "needConfidentialityAgreement", Options: []Option{
				{"true", "Yes, I need an NDA in place."},
				{"false", "No, I am ready to disclose without an NDA."},
			}},
			Fields: []string{"NeedConfidentialityAgreement"},
		},
		{
			Key:         "ndaAgreed",
			Title:       "Non-Disclosure Agreement",
			Description: "Please review and agree to the following Non-Disclosure Agreement:",
			Input: Input{Kind: InputAgreement, Name: "ndaAgreed",
				Label:    "I agree to the terms of the Non-Disclosure Agreement",
				Document: NDAText},
			Fields: []string{"NDAAgreed"},
		},
		{
			Key:         "patentDescription",
			Title:       "Patent Description",
			Description: "Please provide a detailed description of your patent/invention:",
			Input: Input{Kind: InputDescription, Name: "patentDescription",
				Placeholder: "Describe your patent/invention in detail...",
				Label:       "Or upload a text file:"},
			Fields: []string{"PatentDescription"},
		},
	}
}

// NDAText is the confidentiality agreement shown before the description step.
const NDAText = `PATENT (INVENTION) CONFIDENTIALITY AGREEMENT

This Agreement, effective this ____ day of ______________________________, 20___, by and between ______________________________, an individual, with the address of __________________________________________________ (hereinafter "INVENTOR")  and __________________________________________________, with the address __________________________________________________ (hereinafter "RECIPIENT") confirms the terms under which the INVENTOR may disclose proprietary information and materials possessed, developed or acquired by INVENTOR with respect to one or more inventions of INVENTOR. RECIPIENT wishes to receive from INVENTOR such proprietary information and materials as INVENTOR desires to disclose for the sole purpose of evaluating INVENTOR's inventions.

INVENTOR shall mark as "confidential" all written materials it regards as embodying proprietary information and materials so RECIPIENT is aware that its receipt of such materials is governed by the terms of this Agreement. Oral disclosure of proprietary information to RECIPIENT will be reduced to writing within thirty (30) days of oral disclosure by the INVENTOR and clearly marked as "confidential". RECIPIENT agrees that any such information and materials shall be maintained in secrecy and shall not, except to the extent authorized by the INVENTOR in writing, knowingly use such information and materials for any purpose other than the use contemplated hereby; and RECIPIENT will use all reasonable diligence to prevent unauthorized use or disclosure by RECIPIENT for a period of five (5) years from the signing of this Agreement; provided, that RECIPIENT shall have the right to disclose such information and materials to its necessary personnel, which shall include employees, and to independent searchers, consultants, subcontractors and patent office personnel who have agreed to maintain the confidential nature of such information and materials.

RECIPIENT shall have the right to challenge any claim of proprietary right and obligation of confidentiality of such information and materials claimed to constitute a proprietary right by showing that such information and materials are already in its or its affiliates possession prior to receipt thereof from the INVENTOR hereunder.  No obligation of confidentiality shall exist as to information and materials that:

1.	are in the public domain by public use, publication, general knowledge or the like, or after disclosure hereunder become general or public knowledge, through no fault of RECIPIENT, or

2.	are properly obtained by RECIPIENT from a third party for use or disclosure.

Any and all proprietary written materials or other information or samples in tangible form received by RECIPIENT from INVENTOR shall, upon request, be immediately returned, except for one single copy which may be retained to establish a record of what was received.

This Agreement shall be interpreted and enforced under the laws of the State of ____________________. Both parties hereby consent to the jurisdiction of the federal and state courts located in the State of ____________________ with respect to the subject matter hereof.

This Agreement constitutes the full understanding of the parties and a complete and exclusive statement of the terms of their agreement with respect to the subject matter hereof. If any part of this Agreement shall be held invalid or unenforceable in any application, such invalidity and/or unenforceability shall not affect such provision in any other application or any other provision of any application. No modification or alteration of this Agreement shall be effective unless in writing and signed by the respective parties.

It is understood that no patent right or license is hereby granted to RECIPIENT by this Agreement and that the disclosure of proprietary information and materials shall not result in any obligation to grant RECIPIENT any rights in and to the subject matter of INVENTOR.`
