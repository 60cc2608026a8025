package reveal

// Response is the artifact a transition emits. The command surface renders
// it into a Telegram message.
type Response interface {
	isResponse()
}

// LockedCard shows a found entry without its link, with an affordance to
// confirm watching.
type LockedCard struct {
	Code  string
	Title string
	Views int64
}

// UnlockedCard carries the link after a confirmed, gate-satisfying unlock.
type UnlockedCard struct {
	Code  string
	Title string
	URL   string
	Views int64
}

// GatePrompt asks the user to join the still-missing channels before the
// pending code can proceed.
type GatePrompt struct {
	MissingChannels []string
	PendingCode     string
}

// NotFound reports an unknown code.
type NotFound struct {
	Code string
}

func (LockedCard) isResponse()   {}
func (UnlockedCard) isResponse() {}
func (GatePrompt) isResponse()   {}
func (NotFound) isResponse()     {}
