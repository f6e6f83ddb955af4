package prompts

const classifySpec = `Respond with a JSON object matching this exact structure:

{
  "category": "<Eliminate|Simplify|Digitise|RPA|AI Agent|Agentic AI>",
  "confidence": 0.0,
  "rationale": "<explanation>",
  "action": "<auto_classify|clarify|manual_review>",
  "category_progression": "<narrative>",
  "future_opportunities": ["<opportunity>"]
}

Field constraints:
- category: exactly one of the six category names.
- confidence: number between 0 and 1.
- rationale: brief explanation citing the evidence used.
- action: the next step, as defined in the instructions.
- category_progression: optional narrative of how the process could move
  toward more advanced categories as it matures. Empty string when not
  applicable.
- future_opportunities: optional list of improvements that become possible
  later. Empty array when not applicable.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Do not include personal data in any field`

const clarifySpec = `Respond with a JSON object matching this exact structure:

{
  "questions": ["<question1>", "<question2>"]
}

Field constraints:
- questions: between 1 and the requested maximum number of questions,
  each a single sentence ending with a question mark.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Never repeat a previously asked question
- Return an empty array only when no further question would change the outcome`

const extractSpec = `Respond with a JSON object matching this exact structure:

{
  "attributes": {
    "<attribute name>": {
      "value": <value or null>,
      "confidence": 0.0,
      "source_span": "<text>"
    }
  }
}

Field constraints:
- attributes: one entry per requested attribute, keyed by its exact name.
- value: categorical attributes use one of the listed possible values,
  numeric attributes a number, boolean attributes true or false, null when
  the evidence is insufficient.
- confidence: number between 0 and 1, 0 when value is null.
- source_span: the supporting text, empty when value is null.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Do not add attributes that were not requested`

const summarizeSpec = `Respond with a JSON object matching this exact structure:

{
  "summary": "<summary>"
}

Field constraints:
- summary: plain prose, at most 200 words.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

var specs = map[Stage]string{
	StageClassify:  classifySpec,
	StageClarify:   clarifySpec,
	StageExtract:   extractSpec,
	StageSummarize: summarizeSpec,
}

// Spec returns the hardcoded output specification for a workflow stage.
// Specifications are not overridable: the response parsers depend on them.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
