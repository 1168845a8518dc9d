package prompt

import (
	"encoding/binary"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// The automation snippets below are appended after the model's reply so the
// combined text can be pasted straight into the exam editor's console. The
// model supplies the Questions/newContent data; the snippet drives the form.

const snippetHelpers = `
const delay = (ms) => new Promise(resolve => setTimeout(resolve, ms));

function triggerEvents(element) {
    element.focus();
    ['input', 'change', 'keyup', 'blur'].forEach(type => {
        element.dispatchEvent(new Event(type, { bubbles: true, cancelable: true }));
    });
}

async function fillEditableDiv(container, placeholder, text) {
    let input = container.querySelector('[contenteditable="true"][placeholder="' + placeholder + '"]');
    if (!input) {
        input = Array.from(container.querySelectorAll('[contenteditable="true"]')).find(el => {
            const p = el.getAttribute('placeholder');
            return p && p.includes(placeholder);
        });
    }
    if (!input) {
        console.warn('no editable field for "' + placeholder + '"');
        return;
    }
    input.classList.remove('placeholder');
    input.innerHTML = '<p>' + text + '</p>';
    triggerEvents(input);
    await delay(100);
}

async function selectQuestionType(name) {
    const select = document.querySelector('div[title]') ||
        document.querySelector('.ant-select-selection-selected-value');
    if (!select) { console.warn('question type selector not found'); return; }
    select.click();
    await delay(200);
    const option = Array.from(document.querySelectorAll('li.ant-select-dropdown-menu-item'))
        .find(li => li.textContent.trim() === name);
    if (option) option.click();
    await delay(300);
}

async function fillOptions(form, data) {
    const inputs = form.querySelectorAll('.options .ckeditor_div[contenteditable="true"]');
    for (let i = 0; i < data.options.length; i++) {
        if (!inputs[i]) continue;
        inputs[i].classList.remove('placeholder');
        inputs[i].innerHTML = data.options[i];
        triggerEvents(inputs[i]);
        await delay(100);
    }
    const radios = form.querySelectorAll('.ant-radio-group input[type="radio"]');
    if (radios[data.answer]) radios[data.answer].click();
    await delay(100);
}
`

const singleQuestionSnippet = snippetHelpers + `
async function main() {
    for (const data of Questions) {
        const add = document.querySelector('.add-operate-item');
        if (add) { add.click(); await delay(1500); }
        await selectQuestionType('Single choice');
        const forms = document.querySelectorAll('.question-item');
        const form = forms[forms.length - 1] || document;
        await fillEditableDiv(form, 'stem', data.stem);
        await fillOptions(form, data);
        await fillEditableDiv(form, 'analysis', data.analysis);
        await delay(500);
    }
    console.log('done: ' + Questions.length + ' question(s)');
}
main();
`

const compoundSnippet = snippetHelpers + `
async function main() {
    await selectQuestionType('Compound');
    const passage = document.querySelector('.showBox');
    if (passage) { passage.innerHTML = newContent; triggerEvents(passage); }
    const editor = document.querySelector('.ckeditor_div.cke_editable');
    if (editor) { editor.innerHTML = newContent; triggerEvents(editor); }
    await delay(500);
    for (const data of Questions) {
        const add = Array.from(document.querySelectorAll('button span'))
            .find(el => el.textContent.trim() === 'Add sub-question');
        if (add) { add.parentElement.click(); await delay(1500); }
        const forms = document.querySelectorAll('.fuhe-content-wrap');
        const form = forms[forms.length - 1] || document;
        await fillEditableDiv(form, 'stem', data.stem);
        await fillOptions(form, data);
        await fillEditableDiv(form, 'analysis', data.analysis);
    }
    console.log('done: ' + Questions.length + ' sub-question(s)');
}
main();
`

const clozeSnippet = snippetHelpers + `
async function main() {
    const passage = document.querySelector('.showBox');
    if (passage) { passage.innerHTML = newContent; triggerEvents(passage); }
    const editor = document.querySelector('.ckeditor_div.cke_editable');
    if (editor) { editor.innerHTML = newContent; triggerEvents(editor); }
    await delay(500);
    const tabs = document.querySelectorAll('.blank-name');
    for (let i = 0; i < Questions.length; i++) {
        if (tabs[i]) { tabs[i].click(); await delay(500); }
        const form = document.querySelector('.blank-config-item:not([style*="display: none"])') || document;
        await fillOptions(form, Questions[i]);
        await fillEditableDiv(form, 'analysis', Questions[i].analysis);
    }
    console.log('done: ' + Questions.length + ' blank(s)');
}
main();
`

// AdditionalCode returns the automation snippet for a question kind.
func AdditionalCode(k Kind) string {
	switch k {
	case KindCloze:
		return clozeSnippet
	case KindReading, KindListeningCompound:
		return compoundSnippet
	default:
		return singleQuestionSnippet
	}
}

// FreshBlankID returns a random numeric blank identifier in the form the
// editor templates use.
func FreshBlankID() string {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8])
	return strconv.FormatUint(n, 10)
}

var blankIDPattern = regexp.MustCompile(`data-blank-id="[^"]*"`)

// RefreshBlankIDs replaces every data-blank-id value in s with a fresh
// random one. The editor treats duplicate blank ids across pastes as the
// same blank, so replies must never reuse an id.
func RefreshBlankIDs(s string) string {
	return blankIDPattern.ReplaceAllStringFunc(s, func(string) string {
		return `data-blank-id="` + FreshBlankID() + `"`
	})
}

// StripCodeFence removes a surrounding markdown code fence if the model
// wrapped its reply in one despite the instructions.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return s
	}
	// Drop the opening fence line (possibly "```javascript") and a closing
	// fence if present.
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
