package gateway

// Lifecycle is the state of an appeal at the agency.
type Lifecycle string

const (
	Submitted       Lifecycle = "submitted"
	Received        Lifecycle = "received"
	UnderReview     Lifecycle = "under_review"
	DecisionPending Lifecycle = "decision_pending"
	Approved        Lifecycle = "approved"
	Denied          Lifecycle = "denied"
	Dismissed       Lifecycle = "dismissed"
	Withdrawn       Lifecycle = "withdrawn"
)

type lifecycleInfo struct {
	description string
	nextSteps   []string
	resolved    bool
}

// lifecycles is the only place state text lives. Adding a state means
// adding a row here.
var lifecycles = map[Lifecycle]lifecycleInfo{
	Submitted: {
		description: "Your appeal has been submitted and is in our system",
		nextSteps:   []string{"Your appeal is being processed", "You will receive email updates", "Check back here for status updates"},
	},
	Received: {
		description: "Your appeal has been received by NYC DOF",
		nextSteps:   []string{"Your submission was confirmed by NYC DOF", "Your appeal will be reviewed within 2-3 weeks"},
	},
	UnderReview: {
		description: "Your appeal is currently under review",
		nextSteps:   []string{"Your appeal is currently being evaluated", "Decision should be made within 2-3 weeks"},
	},
	DecisionPending: {
		description: "Decision is pending - review should be completed soon",
		nextSteps:   []string{"Your case is in final review stages", "Check back within a few days"},
	},
	Approved: {
		description: "Your appeal has been approved. The ticket will be dismissed.",
		nextSteps:   []string{"Congratulations! Your appeal was approved", "The parking ticket will be dismissed"},
		resolved:    true,
	},
	Denied: {
		description: "Your appeal has been denied. The ticket penalty remains valid.",
		nextSteps:   []string{"Your appeal was denied", "You can request a hearing within 10 days"},
		resolved:    true,
	},
	Dismissed: {
		description: "Your appeal has been dismissed.",
		nextSteps:   []string{"Your appeal has been dismissed", "Contact NYC DOF if this was an error"},
		resolved:    true,
	},
	Withdrawn: {
		description: "Your appeal has been withdrawn.",
		nextSteps:   []string{"Your appeal has been withdrawn", "You can submit a new appeal"},
		resolved:    true,
	},
}

// ParseLifecycle maps an agency status string onto Lifecycle. Anything
// unrecognized is Submitted.
func ParseLifecycle(s string) Lifecycle {
	l := Lifecycle(s)
	if _, ok := lifecycles[l]; ok {
		return l
	}
	return Submitted
}

// allLifecycles returns every state in progression order.
func allLifecycles() []Lifecycle {
	return []Lifecycle{Submitted, Received, UnderReview, DecisionPending, Approved, Denied, Dismissed, Withdrawn}
}

func (l Lifecycle) Description() string { return lifecycles[ParseLifecycle(string(l))].description }

// NextSteps returns a copy of the guidance for l.
func (l Lifecycle) NextSteps() []string {
	return append([]string(nil), lifecycles[ParseLifecycle(string(l))].nextSteps...)
}

// Resolved reports whether the agency has closed the appeal.
func (l Lifecycle) Resolved() bool { return lifecycles[ParseLifecycle(string(l))].resolved }
