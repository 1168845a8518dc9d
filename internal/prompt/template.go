package prompt

// Templates instruct the model to answer as raw JavaScript data that the
// companion snippet can feed into the exam editor. The shared rules matter
// more than the per-kind shape: no code fences, no question numbers in
// stems, answer indices are zero-based, and every data-blank-id must be
// unique per response.

const sharedRules = `
Rules:
1. Output only the JavaScript shown above, with the data filled in. Do not
   wrap it in a code fence and do not add commentary.
2. Do not include question numbers in stems.
3. Options must not carry "A."/"B." prefixes; keep option text exactly as in
   the source material.
4. "answer" is a zero-based index (0=A, 1=B, 2=C, 3=D).
5. Use a different data-blank-id for every blank.
6. Write each analysis as: key point, reasoning, then the answer.`

const multipleChoiceTemplate = `
Convert the question(s) I gave you into JavaScript of exactly this shape:

var Questions = [
    {
        stem: ` + "`" + `Which of the following is a <span class="underline fillblank" data-blank-id="593417796829762300" contenteditable="false" style="text-indent: 0; border-bottom: 1px solid #f6c908;display:inline-block;min-width: 40px;max-width: 80px;"><input type="text" style="display:none">   </span> language?` + "`" + `,
        "options": ["Python", "HTML", "CSS", "HTTP"],
        "answer": 0,
        analysis: "Key point: programming languages. Python is a general-purpose programming language. Answer: A."
    }
];
` + sharedRules

const readingTemplate = `
Convert the passage and its questions into JavaScript of exactly this shape.
Keep a space between mixed-script words, justify paragraphs, and drop any
content from the scan that is not part of the passage:

var newContent = ` + "`" + `
    <p style="text-align: justify; text-indent: 2em;">
        Passage text with numbered blanks rendered as
        <span class="number fillblank" contenteditable="false" data-blank-id="1"
              style="display: inline-block;width:40px;height: 20px;line-height: 20px;border-bottom: 2px solid #000;text-align:center">
        </span>
        where the original had them.
    </p>
` + "`" + `;

var Questions = [
    {
        "stem": "What does 'AI' stand for?",
        "options": ["Artificial Intelligence", "Automated Input", "Advanced Internet", "Analog Interface"],
        "answer": 0,
        "analysis": "Key point: abbreviations. AI is short for Artificial Intelligence. Answer: A."
    }
];
` + sharedRules

const clozeTemplate = `
Convert the cloze passage into JavaScript of exactly this shape. Number the
blanks as in the source and keep the paragraph styling:

var newContent = ` + "`" + `
    <p style="text-align: justify; text-indent: 2em;">
        Passage text with each gap rendered as
        <span class="number fillblank" contenteditable="false" data-blank-id="31"
              style="text-indent:0; display: inline-block;width:40px;height: 20px;line-height: 20px;border-bottom: 2px solid #000;text-align:center">31</span>
        in place.
    </p>
` + "`" + `;

var Questions = [
    {
        "options": ["reason", "question", "word", "way"],
        "answer": 1,
        "analysis": "Key point: noun choice. The sentence introduces a survey question. Answer: B."
    }
];
` + sharedRules

const listeningTemplate = `
Convert the listening question(s) into JavaScript of exactly this shape. Each
analysis must quote the transcript line it relies on:

var Questions = [
    {
        "stem": "When did the dialogue most probably take place?",
        "options": ["In winter.", "In autumn.", "In spring."],
        "answer": 1,
        "analysis": "Key point: season inference. Transcript: 'Many leaves turn yellow.' Yellowing leaves mark autumn. Answer: B."
    }
];
` + sharedRules

const listeningCompoundTemplate = `
Convert the compound listening section into JavaScript of exactly this shape,
with the shared material in newContent and one entry per sub-question. Each
analysis must quote the transcript line it relies on:

var newContent = ` + "`" + `
Shared passage or transcript header.
` + "`" + `;

var Questions = [
    {
        "stem": "What does the boy advise the girl to do?",
        "options": ["To take more exercise.", "To have a good rest.", "To stay at home."],
        "answer": 0,
        "analysis": "Key point: detail comprehension. Transcript: 'I think you can take more exercise.' Answer: A."
    }
];
` + sharedRules

const multiBlankTemplate = `
Convert the fill-in question(s) into JavaScript of exactly this shape. A stem
with several gaps stays one entry whose answer array holds one string per
gap, in order:

var Questions = [
    {
        stem: ` + "`" + `The capital of France is <span class="underline fillblank" data-blank-id="593417796829762301" contenteditable="false" style="text-indent: 0; border-bottom: 1px solid #f6c908;display:inline-block;min-width: 40px;max-width: 80px;"><input type="text" style="display:none">   </span>.` + "`" + `,
        answer: ["Paris"],
        analysis: "Key point: world geography. Paris is the capital of France. Answer: Paris."
    }
];
` + sharedRules

// Template returns the instruction prologue for a question kind.
func Template(k Kind) string {
	switch k {
	case KindMultipleChoice:
		return multipleChoiceTemplate
	case KindReading:
		return readingTemplate
	case KindCloze:
		return clozeTemplate
	case KindListening:
		return listeningTemplate
	case KindListeningCompound:
		return listeningCompoundTemplate
	case KindMultiBlank:
		return multiBlankTemplate
	default:
		return multipleChoiceTemplate
	}
}

// Build combines the user's question text with the kind's template. The text
// comes first so the model reads the material before the format rules.
func Build(k Kind, text string) string {
	if text == "" {
		return Template(k)
	}
	return text + "\n\n" + Template(k)
}
