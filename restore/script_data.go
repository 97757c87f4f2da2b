package restore

import (
	"github.com/chiedza-labs/resurrect/agent"
	"github.com/chiedza-labs/resurrect/theater"
)

// Script returns a copy of the scripted demo sequence. The sequence is
// fixed: the fallback narrative must be identical on every run so the demo
// never surprises a presenter.
func Script() []theater.Message {
	out := make([]theater.Message, len(demoScript))
	copy(out, demoScript)
	return out
}

// MockDocument returns the fixed restored-text result paired with the
// scripted sequence.
func MockDocument() *Document {
	doc := &Document{
		OverallConfidence: mockOverallConfidence,
		AgentLog:          Script(),
	}
	doc.Segments = append(doc.Segments, mockSegments...)
	return doc
}

const mockOverallConfidence = 94

var demoScript = []theater.Message{
	{Agent: agent.Scanner, Text: "\U0001F52C Initializing document scan..."},
	{Agent: agent.Scanner, Text: "\U0001F4C4 Analyzing document (1240x1754px)... aged paper stock detected, moderate foxing along the left margin.", Section: "Image Analysis"},
	{Agent: agent.Scanner, Text: "\U0001F50D Running OCR extraction... 842 characters recovered from faded iron-gall ink.", Confidence: theater.Conf(82), Section: "Text Extraction"},
	{Agent: agent.Scanner, Text: "✅ Scanner complete. Handing enhanced scan to linguistic analysis.", Confidence: theater.Conf(86)},

	{Agent: agent.Linguist, Text: "\U0001F4DA Initializing linguistic & cultural analysis..."},
	{Agent: agent.Linguist, Text: "\U0001F524 Doke orthography detected: ƀ, Ɲ, ȥ. Converting to modern Shona spelling.", Confidence: theater.Conf(88), Section: "Character Analysis"},
	{Agent: agent.Linguist, Text: "✅ Linguistic pass complete: 14 character conversions, honorific forms preserved.", Confidence: theater.Conf(90)},

	{Agent: agent.Historian, Text: "\U0001F4DC Initializing historical analysis engine (1888-1923 database)..."},
	{Agent: agent.Historian, Text: "\U0001F4CB Letterhead matches the Morgenster Mission press, in use 1901-1907.", Confidence: theater.Conf(87), Section: "Provenance"},
	{Agent: agent.Historian, Text: "✅ Historical context verified: drought references align with the 1903 season.", Confidence: theater.Conf(89)},

	{Agent: agent.Validator, Text: "\U0001F50D Initializing hallucination detection protocols..."},
	{Agent: agent.Validator, Text: "\U0001F504 Cross-referencing Scanner↔Linguist↔Historian outputs...", Section: "Cross-Validation"},
	{Agent: agent.Validator, Text: "\U0001F4DD Linguist reported 14 conversions; two look ambiguous against the raw scan. Requesting justification.", Section: "Agent Cross-Check", Debate: true},
	{Agent: agent.Validator, Text: "✅ Consensus reached. No cross-agent inconsistencies remain. Final confidence 94%.", Confidence: theater.Conf(94), Section: "Final Score"},

	{Agent: agent.RepairAdvisor, Text: "\U0001F527 Initializing physical condition assessment..."},
	{Agent: agent.RepairAdvisor, Text: "⚠️ Foxing and a 3cm edge tear detected. Recommend deacidification and Japanese-tissue mend.", Confidence: theater.Conf(85), Section: "Condition Report"},
	{Agent: agent.RepairAdvisor, Text: "✅ Restoration narrative complete. Document archived with full agent log.", Confidence: theater.Conf(94)},
}

var mockSegments = []Segment{
	{Text: "Morgenster Mission, Fort Victoria\n", Confidence: agent.ConfidenceHigh, Keyword: "Morgenster"},
	{Text: "14 June 1903\n\n", Confidence: agent.ConfidenceHigh},
	{Text: "Kwa hanzvadzi yangu Runesu,\n\n", Confidence: agent.ConfidenceHigh, Keyword: "Runesu"},
	{Text: "The rains failed us again this season and the river at ", Confidence: agent.ConfidenceHigh},
	{Text: "Mucheke", Confidence: agent.ConfidenceLow, Keyword: "Mucheke"},
	{Text: " runs low. We have moved the cattle to the hill pastures, as Father did in the year of the ", Confidence: agent.ConfidenceHigh},
	{Text: "great hunger", Confidence: agent.ConfidenceLow, Keyword: "great hunger"},
	{Text: ". The mission school has taken both of the boys, and Tendai now reads the scriptures aloud each evening.\n\n", Confidence: agent.ConfidenceHigh, Keyword: "Tendai"},
	{Text: "Ndinokutumira rudo rwangu rwese,\n", Confidence: agent.ConfidenceHigh},
	{Text: "Chenai", Confidence: agent.ConfidenceHigh, Keyword: "Chenai"},
}
