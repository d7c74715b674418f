package domain

// Subscriber is a simulated phone account with one or more lines. It is
// created once per generation run; the call scheduler appends regular calls
// and the fraud injector appends clones, nothing else mutates it.
type Subscriber struct {
	PhoneNumber string `json:"phoneNumber"`

	// NumCalls is the number of regular calls to generate for this
	// subscriber. The final call list may be longer after fraud injection.
	NumCalls int `json:"numCalls"`

	// PhoneLines is the number of lines on the account, always >= 1.
	PhoneLines int `json:"phoneLines"`

	// AvgCallDuration and AvgOffPeakCallDuration map call type to the
	// subscriber's average duration in minutes.
	AvgCallDuration        map[string]int64 `json:"avgCallDuration"`
	AvgOffPeakCallDuration map[string]int64 `json:"avgOffPeakCallDuration"`

	Calls []*Call `json:"calls"`
}

// NewSubscriber returns an empty subscriber with initialized duration maps.
func NewSubscriber() *Subscriber {
	return &Subscriber{
		AvgCallDuration:        make(map[string]int64),
		AvgOffPeakCallDuration: make(map[string]int64),
	}
}

// Population is the completed artifact of one generation run: the ordered
// subscriber list with their ordered call lists.
type Population struct {
	Subscribers []*Subscriber `json:"subscribers"`
}

// TotalCalls returns the number of calls across all subscribers.
func (p *Population) TotalCalls() int {
	total := 0
	for _, s := range p.Subscribers {
		total += len(s.Calls)
	}
	return total
}

// FraudCalls returns the number of calls classified as fraudulent.
func (p *Population) FraudCalls() int {
	total := 0
	for _, s := range p.Subscribers {
		for _, c := range s.Calls {
			if c.Fraud != FraudNone {
				total++
			}
		}
	}
	return total
}
