// internal/forms/forms.go
package forms

// Runtime model for HTML forms and their controls. The converter builds
// these while walking the document; form submission itself lives elsewhere.

// Method is the submission method of a form.
type Method int

const (
	MethodGet Method = iota
	MethodPostURLEncoded
	MethodPostMultipart
)

// ControlKind identifies the kind of a form control.
type ControlKind int

const (
	ControlHidden ControlKind = iota
	ControlTextbox
	ControlPassword
	ControlSubmit
	ControlReset
	ControlButton
	ControlCheckbox
	ControlRadio
	ControlSelect
	ControlTextarea
	ControlImage
	ControlFile
)

var controlKindNames = map[ControlKind]string{
	ControlHidden:   "hidden",
	ControlTextbox:  "text",
	ControlPassword: "password",
	ControlSubmit:   "submit",
	ControlReset:    "reset",
	ControlButton:   "button",
	ControlCheckbox: "checkbox",
	ControlRadio:    "radio",
	ControlSelect:   "select",
	ControlTextarea: "textarea",
	ControlImage:    "image",
	ControlFile:     "file",
}

func (k ControlKind) String() string {
	if s, ok := controlKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Form is one form in the document and the controls attached to it.
type Form struct {
	Action   string
	Method   Method
	Controls []*Control
}

// New creates a form context. The action attribute is required by the
// converter before a form context opens, so it is never empty here.
func New(action string, method Method) *Form {
	return &Form{Action: action, Method: method}
}

// AddControl attaches a control to the form.
func (f *Form) AddControl(c *Control) {
	c.Form = f
	f.Controls = append(f.Controls, c)
}

// Option is one entry of a select control.
type Option struct {
	Value           string
	Text            string
	Selected        bool
	InitialSelected bool
}

// SelectData is the state specific to select controls. Options live in an
// ordered slice owned by the control.
type SelectData struct {
	Multiple    bool
	Items       []*Option
	Current     *Option // the single selection, when exactly one
	NumSelected int
}

// Control is a form control's runtime state (a "gadget").
type Control struct {
	Kind         ControlKind
	Form         *Form // nil for controls outside any form context
	Name         string
	Value        string
	InitialValue string
	Selected     bool // checkbox / radio checked state
	MaxLength    int
	Select       SelectData

	// Box is the owning box in the constructed tree, nil for hidden
	// controls which render nothing. Declared as any to keep this package
	// free of a dependency on the box tree.
	Box any
}

// NewControl creates a control of the given kind.
func NewControl(kind ControlKind) *Control {
	return &Control{Kind: kind}
}

// AddOption appends an option to a select control. Value and text are
// deep copies by virtue of Go string semantics; the caller's buffers are
// never aliased.
func AddOption(c *Control, value, text string, selected bool) {
	opt := &Option{Value: value, Text: text, Selected: selected, InitialSelected: selected}
	c.Select.Items = append(c.Select.Items, opt)
	if selected {
		c.Select.NumSelected++
		c.Select.Current = opt
	}
}
