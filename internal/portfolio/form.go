package portfolio

// Contact form field names, as posted by the page.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSubject = "subject"
	FieldMessage = "message"
)

// Status messages shown next to the submit button.
const (
	MessageSending = "Sending..."
	MessageSent    = "Message sent. Thank you!"
	MessageFailed  = "Something went wrong."
)

// FormState holds the contact form's current field values.
type FormState struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Set updates the field with the given name. Unknown names are ignored and
// reported with false.
func (f *FormState) Set(field, value string) bool {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldSubject:
		f.Subject = value
	case FieldMessage:
		f.Message = value
	default:
		return false
	}
	return true
}

// IsZero reports whether every field is empty.
func (f FormState) IsZero() bool {
	return f == FormState{}
}

// StatusKind is the submission lifecycle state of the contact form.
type StatusKind string

const (
	StatusIdle    StatusKind = "idle"
	StatusLoading StatusKind = "loading"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// FormStatus pairs the lifecycle state with the message displayed for it.
type FormStatus struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
}

// Form is the contact form: field values plus submission status. Its methods
// return the next form and never modify the receiver.
type Form struct {
	State  FormState  `json:"state"`
	Status FormStatus `json:"status"`
}

// NewForm returns an empty, idle form.
func NewForm() Form {
	return Form{Status: FormStatus{Kind: StatusIdle}}
}

// Input applies a single field edit.
func (f Form) Input(field, value string) Form {
	f.State.Set(field, value)
	return f
}

// Begin moves the form into loading. It returns false, and the form unchanged,
// while a submission is already in flight.
func (f Form) Begin() (Form, bool) {
	if f.Status.Kind == StatusLoading {
		return f, false
	}
	f.Status = FormStatus{Kind: StatusLoading, Message: MessageSending}
	return f, true
}

// Succeed completes a submission and clears the fields.
func (f Form) Succeed() Form {
	if f.Status.Kind != StatusLoading {
		return f
	}
	return Form{
		Status: FormStatus{Kind: StatusSuccess, Message: MessageSent},
	}
}

// Fail completes a submission with an error message. Field values are kept so
// the visitor can correct and resend them.
func (f Form) Fail(message string) Form {
	if f.Status.Kind != StatusLoading {
		return f
	}
	if message == "" {
		message = MessageFailed
	}
	f.Status = FormStatus{Kind: StatusError, Message: message}
	return f
}

// SubmitDisabled reports whether the submit control is non-interactive.
func (f Form) SubmitDisabled() bool {
	return f.Status.Kind == StatusLoading
}
