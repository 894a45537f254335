package field

// Prompt is either a fixed string or generated from already-resolved values.
type Prompt struct {
	text string
	gen  func(Values) string
}

func Static(text string) Prompt {
	return Prompt{text: text}
}

func Generated(fn func(Values) string) Prompt {
	return Prompt{gen: fn}
}

func (p Prompt) IsGenerated() bool { return p.gen != nil }

// Render evaluates the prompt. Generated prompts must only be rendered once
// the keys they read are resolved; the caller checks that.
func (p Prompt) Render(vals Values) string {
	if p.gen != nil {
		return p.gen(vals)
	}
	return p.text
}
