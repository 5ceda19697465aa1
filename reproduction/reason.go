package reproduction

// Reason explains why a conception attempt did not result in pregnancy.
// None of these are errors.
type Reason uint8

const (
	ReasonNone Reason = iota // conceived
	ReasonDead
	ReasonAlreadyPregnant
	ReasonChance
	ReasonCooldown
	ReasonNoHunger
	ReasonInsufficientResource
	ReasonNoPartner
	ReasonBotched
)

var reasonNames = [...]string{
	ReasonNone:                 "none",
	ReasonDead:                 "dead",
	ReasonAlreadyPregnant:      "already_pregnant",
	ReasonChance:               "chance",
	ReasonCooldown:             "cooldown",
	ReasonNoHunger:             "no_hunger",
	ReasonInsufficientResource: "insufficient_resource",
	ReasonNoPartner:            "no_partner",
	ReasonBotched:              "botched",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}
